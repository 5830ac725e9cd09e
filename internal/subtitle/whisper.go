package subtitle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

// WhisperSource transcribes narration with the whisper CLI.
type WhisperSource struct {
	runner utils.CommandRunner
	path   string
	model  string
}

func NewWhisperSource(runner utils.CommandRunner, path, model string) *WhisperSource {
	if path == "" {
		path = "whisper"
	}
	if model == "" {
		model = "base"
	}
	return &WhisperSource{runner: runner, path: path, model: model}
}

func (w *WhisperSource) Transcribe(ctx context.Context, audioFile string) ([]models.SubtitleEntry, error) {
	outDir, err := os.MkdirTemp(filepath.Dir(audioFile), "whisper-")
	if err != nil {
		return nil, fmt.Errorf("failed to create whisper dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	res, err := w.runner.Run(ctx, w.path,
		audioFile,
		"--model", w.model,
		"--output_format", "srt",
		"--output_dir", outDir,
		"--word_timestamps", "True",
	)
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %w, stderr: %s", err, utils.TailOutput(res.Stderr, 512))
	}

	// whisper names its output after the input file
	base := strings.TrimSuffix(filepath.Base(audioFile), filepath.Ext(audioFile))
	entries, err := ParseFile(filepath.Join(outDir, base+".srt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}
	return entries, nil
}
