package voice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/amankumarsingh77/shorts-assembler/internal/composer"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type fakeRunner struct {
	run   func(name string, args []string) (utils.CommandResult, error)
	calls [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (utils.CommandResult, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.run(name, args)
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

const cues = `WEBVTT

00:00:00.100 --> 00:00:01.500
Hello there.

00:00:01.500 --> 00:00:03.250
General Kenobi.
`

func TestSynthesize(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "audio.mp3")
	runner := &fakeRunner{run: func(name string, args []string) (utils.CommandResult, error) {
		if name == "ffprobe" {
			return utils.CommandResult{Stdout: "3.48\n"}, nil
		}
		if err := os.WriteFile(argAfter(args, "--write-media"), []byte("mp3"), 0o644); err != nil {
			return utils.CommandResult{}, err
		}
		if err := os.WriteFile(argAfter(args, "--write-subtitles"), []byte(cues), 0o644); err != nil {
			return utils.CommandResult{}, err
		}
		return utils.CommandResult{}, nil
	}}
	tts := NewEdgeTTS(runner, composer.NewProber(runner, ""), "", logger.NewNop())

	res, err := tts.Synthesize(context.Background(), " Hello there. General Kenobi. ", "en-GB-RyanNeural-Male", 1.2, out)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if res.Duration != 3.48 || res.AudioFile != out {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Timings) != 2 || res.Timings[1].Text != "General Kenobi." || res.Timings[1].End != 3.25 {
		t.Fatalf("timings = %+v", res.Timings)
	}
	args := runner.calls[0]
	if args[0] != "edge-tts" || argAfter(args, "--voice") != "en-GB-RyanNeural" || argAfter(args, "--rate") != "+20%" {
		t.Fatalf("edge-tts args = %v", args)
	}
}

func TestSynthesizeFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
		run  func(name string, args []string) (utils.CommandResult, error)
	}{
		{
			name: "empty text",
			text: "  ",
			run: func(string, []string) (utils.CommandResult, error) {
				return utils.CommandResult{}, nil
			},
		},
		{
			name: "tool error",
			text: "hi",
			run: func(string, []string) (utils.CommandResult, error) {
				return utils.CommandResult{Stderr: "network down", ExitCode: 1}, errors.New("exit status 1")
			},
		},
		{
			name: "no audio written",
			text: "hi",
			run: func(string, []string) (utils.CommandResult, error) {
				return utils.CommandResult{}, nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{run: tt.run}
			tts := NewEdgeTTS(runner, composer.NewProber(runner, ""), "", logger.NewNop())
			if _, err := tts.Synthesize(context.Background(), tt.text, "", 1, filepath.Join(t.TempDir(), "audio.mp3")); err == nil {
				t.Fatalf("Synthesize() succeeded")
			}
		})
	}
}

func TestRateArg(t *testing.T) {
	tests := map[float64]string{0: "+0%", 1: "+0%", 1.5: "+50%", 0.8: "-20%"}
	for rate, want := range tests {
		if got := RateArg(rate); got != want {
			t.Fatalf("RateArg(%v) = %q, want %q", rate, got, want)
		}
	}
}

func TestVoiceName(t *testing.T) {
	if got := VoiceName(""); got != DefaultVoice {
		t.Fatalf("VoiceName(\"\") = %q", got)
	}
	if got := VoiceName("zh-CN-XiaoyiNeural-Female"); got != "zh-CN-XiaoyiNeural" {
		t.Fatalf("VoiceName() = %q", got)
	}
}
