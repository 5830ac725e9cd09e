package voice

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/composer"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/subtitle"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

const DefaultVoice = "en-US-AriaNeural"

// EdgeTTS synthesizes narration with the edge-tts CLI and reads back the
// sentence timings it writes next to the audio.
type EdgeTTS struct {
	runner utils.CommandRunner
	prober *composer.Prober
	path   string
	logger logger.Logger
}

func NewEdgeTTS(runner utils.CommandRunner, prober *composer.Prober, path string, log logger.Logger) *EdgeTTS {
	if path == "" {
		path = "edge-tts"
	}
	return &EdgeTTS{runner: runner, prober: prober, path: path, logger: log}
}

func (e *EdgeTTS) Synthesize(ctx context.Context, text, voice string, rate float64, outFile string) (*models.SpeechResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	voice = VoiceName(voice)
	cuesFile := strings.TrimSuffix(outFile, ".mp3") + ".vtt"

	e.logger.Infof("Synthesizing %d characters with voice %s", len([]rune(text)), voice)
	res, err := e.runner.Run(ctx, e.path,
		"--voice", voice,
		"--rate", RateArg(rate),
		"--text", text,
		"--write-media", outFile,
		"--write-subtitles", cuesFile,
	)
	if err != nil {
		return nil, fmt.Errorf("edge-tts failed: %w, stderr: %s", err, utils.TailOutput(res.Stderr, 512))
	}
	if info, err := os.Stat(outFile); err != nil || info.Size() == 0 {
		return nil, fmt.Errorf("edge-tts produced no audio at %s", outFile)
	}

	duration, err := e.prober.ProbeDuration(ctx, outFile)
	if err != nil {
		return nil, err
	}

	result := &models.SpeechResult{AudioFile: outFile, Duration: duration}
	timings, err := subtitle.ParseFile(cuesFile)
	if err != nil {
		e.logger.Warnf("Synthesize - timings unavailable: %v", err)
		return result, nil
	}
	result.Timings = subtitle.Sanitize(timings)
	return result, nil
}

// VoiceName drops the gender suffix UI voice lists append, e.g.
// "en-US-AriaNeural-Female".
func VoiceName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultVoice
	}
	for _, suffix := range []string{"-Female", "-Male"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// RateArg renders a speed multiplier the way edge-tts expects, 1.2 -> "+20%".
func RateArg(rate float64) string {
	if rate <= 0 {
		rate = 1
	}
	pct := int(math.Round((rate - 1) * 100))
	if pct >= 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}
