package composer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type Prober struct {
	runner utils.CommandRunner
	path   string
}

func NewProber(runner utils.CommandRunner, ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{runner: runner, path: ffprobePath}
}

// ProbeClip reads the first video stream's size and the container duration.
func (p *Prober) ProbeClip(ctx context.Context, path string) (models.RawClip, error) {
	width, height, err := p.ProbeSize(ctx, path)
	if err != nil {
		return models.RawClip{}, err
	}
	duration, err := p.ProbeDuration(ctx, path)
	if err != nil {
		return models.RawClip{}, err
	}
	return models.RawClip{
		Path:     path,
		Duration: duration,
		Width:    width,
		Height:   height,
	}, nil
}

// ProbeSize reads the first video stream's dimensions. Still images work too.
func (p *Prober) ProbeSize(ctx context.Context, path string) (int, int, error) {
	res, err := p.runner.Run(ctx, p.path, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height", "-of", "csv=p=0", path)
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe error: %v output: %s", err, utils.TailOutput(res.Stderr, 512))
	}

	trimmedOutput := strings.TrimSpace(res.Stdout)
	trimmedOutput = strings.TrimRight(trimmedOutput, ",")
	parts := strings.Split(trimmedOutput, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe output: %q", trimmedOutput)
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width: %v", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height: %v", err)
	}
	return width, height, nil
}

// ProbeDuration returns the container duration in seconds. It works for audio
// files as well.
func (p *Prober) ProbeDuration(ctx context.Context, path string) (float64, error) {
	res, err := p.runner.Run(ctx, p.path, "-v", "error", "-show_entries",
		"format=duration", "-of", "csv=p=0", path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration error: %v output: %s", err, utils.TailOutput(res.Stderr, 512))
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %v", err)
	}
	return duration, nil
}
