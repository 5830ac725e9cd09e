package composer

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

const bgmFadeOut = 3.0

// AudioMix describes the final soundtrack: the narration, optionally laid over
// a looped background track that fades out at the end.
type AudioMix struct {
	VoiceFile   string
	VoiceVolume float64
	Background  string
	BgmVolume   float64
	Duration    float64
}

// inputArgs returns the ffmpeg inputs of the mix, voice first.
func (m AudioMix) inputArgs() []string {
	args := []string{"-i", m.VoiceFile}
	if m.Background != "" {
		args = append(args, "-stream_loop", "-1", "-i", m.Background)
	}
	return args
}

// filter builds the audio graph; voiceInput is the ffmpeg input index of the
// voice file and the background, if any, follows it.
func (m AudioMix) filter(voiceInput int, out string) string {
	voice := fmt.Sprintf("[%d:a]volume=%s,atrim=0:%s,asetpts=PTS-STARTPTS",
		voiceInput, ff(m.VoiceVolume), ff(m.Duration))
	if m.Background == "" {
		return voice + "[" + out + "]"
	}
	fade := min(bgmFadeOut, m.Duration)
	bgm := fmt.Sprintf("[%d:a]volume=%s,atrim=0:%s,asetpts=PTS-STARTPTS,afade=t=out:st=%s:d=%s[bgm]",
		voiceInput+1, ff(m.BgmVolume), ff(m.Duration), ff(m.Duration-fade), ff(fade))
	return voice + "[voice];" + bgm + ";[voice][bgm]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[" + out + "]"
}

// ResolveBackgroundTrack picks the background track for a task: the explicit
// file when given, a random mp3 from songDir for type "random", nothing for
// type "none".
func ResolveBackgroundTrack(bgmType, bgmFile, songDir string, rnd *rand.Rand) (string, error) {
	if bgmType == "" || bgmType == models.BgmNone {
		return "", nil
	}
	if bgmFile != "" {
		if _, err := os.Stat(bgmFile); err != nil {
			return "", fmt.Errorf("background track %s: %w", bgmFile, err)
		}
		return bgmFile, nil
	}
	if bgmType != models.BgmRandom {
		return "", nil
	}
	files, err := filepath.Glob(filepath.Join(songDir, "*.mp3"))
	if err != nil {
		return "", fmt.Errorf("failed to list songs: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no songs found in %s", songDir)
	}
	sort.Strings(files)
	return files[rnd.Intn(len(files))], nil
}
