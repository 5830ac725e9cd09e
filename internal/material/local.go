package material

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/composer"
	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/pipeline"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

// LocalProvider serves the files listed in VideoParams.Materials. Still
// images are turned into short zooming clips first.
type LocalProvider struct {
	cfg    *config.Config
	runner utils.CommandRunner
	prober *composer.Prober
	logger logger.Logger
}

func NewLocalProvider(cfg *config.Config, runner utils.CommandRunner, log logger.Logger) pipeline.MaterialProvider {
	return &LocalProvider{
		cfg:    cfg,
		runner: runner,
		prober: composer.NewProber(runner, cfg.Pipeline.FFprobePath),
		logger: log,
	}
}

func (p *LocalProvider) Materials(ctx context.Context, req pipeline.MaterialRequest) ([]models.RawClip, error) {
	if len(req.Params.Materials) == 0 {
		return nil, fmt.Errorf("no local materials given")
	}

	var clips []models.RawClip
	for i, m := range req.Params.Materials {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := strings.TrimPrefix(m.URL, "file://")
		if _, err := os.Stat(path); err != nil {
			p.logger.Warnf("Materials - skipping %s: %v", path, err)
			continue
		}

		switch {
		case isImage(path):
			clip, err := p.imageClip(ctx, path, filepath.Join(req.TaskDir, fmt.Sprintf("image-%d.mp4", i)), req.Params.ClipDuration)
			if err != nil {
				p.logger.Warnf("Materials - image %s: %v", path, err)
				continue
			}
			clips = append(clips, clip)
		case isVideo(path):
			clip, err := p.prober.ProbeClip(ctx, path)
			if err != nil {
				p.logger.Warnf("Materials - probe %s: %v", path, err)
				continue
			}
			if !largeEnough(clip, p.cfg.Pipeline.MinMaterialSize) {
				p.logger.Warnf("Materials - %s is too small (%dx%d)", path, clip.Width, clip.Height)
				continue
			}
			clips = append(clips, clip)
		default:
			p.logger.Warnf("Materials - unsupported file %s", path)
		}
	}
	return clips, nil
}

// imageClip renders a still image as a clip of the given length with a slow
// zoom towards the centre.
func (p *LocalProvider) imageClip(ctx context.Context, image, out string, duration float64) (models.RawClip, error) {
	width, height, err := p.prober.ProbeSize(ctx, image)
	if err != nil {
		return models.RawClip{}, err
	}
	clip := models.RawClip{Path: image, Width: width, Height: height}
	if !largeEnough(clip, p.cfg.Pipeline.MinMaterialSize) {
		return models.RawClip{}, fmt.Errorf("image too small (%dx%d)", width, height)
	}
	if duration <= 0 {
		duration = 3
	}
	fps := p.cfg.Pipeline.FPS
	if fps <= 0 {
		fps = 30
	}
	frames := int(duration * float64(fps))
	// zoompan needs even output dimensions for yuv420p
	w, h := width&^1, height&^1
	zoom := fmt.Sprintf("zoompan=z='min(zoom+0.0015,1.2)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d", frames, w, h, fps)

	ffmpeg := p.cfg.Pipeline.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	res, err := p.runner.Run(ctx, ffmpeg, "-y",
		"-loop", "1", "-i", image,
		"-vf", zoom,
		"-t", strconv.FormatFloat(duration, 'f', -1, 64),
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-an",
		out,
	)
	if err != nil {
		return models.RawClip{}, fmt.Errorf("ffmpeg error: %v output: %s", err, utils.TailOutput(res.Stderr, 512))
	}
	return models.RawClip{Path: out, Duration: duration, Width: w, Height: h}, nil
}
