package material

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/amankumarsingh77/shorts-assembler/internal/composer"
	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/pipeline"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

// S3Provider pulls stock footage from the material bucket, where clips are
// stored under materials/<term>/.
type S3Provider struct {
	cfg     *config.Config
	awsRepo tasks.AWSRepository
	prober  *composer.Prober
	logger  logger.Logger
}

func NewS3Provider(cfg *config.Config, awsRepo tasks.AWSRepository, runner utils.CommandRunner, log logger.Logger) pipeline.MaterialProvider {
	return &S3Provider{
		cfg:     cfg,
		awsRepo: awsRepo,
		prober:  composer.NewProber(runner, cfg.Pipeline.FFprobePath),
		logger:  log,
	}
}

// TermPrefix is the key prefix holding footage for a search term.
func TermPrefix(term string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(term)), "-")
	return "materials/" + slug + "/"
}

// Materials downloads footage term by term until MinDuration is covered.
func (p *S3Provider) Materials(ctx context.Context, req pipeline.MaterialRequest) ([]models.RawClip, error) {
	bucket := p.cfg.S3.MaterialBucket
	if bucket == "" {
		return nil, fmt.Errorf("material bucket is not configured")
	}
	if len(req.Terms) == 0 {
		return nil, fmt.Errorf("no search terms")
	}

	dir := filepath.Join(req.TaskDir, "materials")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create material dir: %w", err)
	}

	seen := make(map[string]bool)
	var clips []models.RawClip
	for _, term := range req.Terms {
		keys, err := p.awsRepo.ListObjects(ctx, bucket, TermPrefix(term))
		if err != nil {
			p.logger.Warnf("Materials - ListObjects %q error: %v", term, err)
			continue
		}
		p.logger.Infof("Found %d objects for term %q", len(keys), term)

		for _, key := range keys {
			if seen[key] || !isVideo(key) {
				continue
			}
			seen[key] = true
			if req.MinDuration > 0 && totalDuration(clips) >= req.MinDuration {
				return clips, nil
			}

			dest := filepath.Join(dir, fmt.Sprintf("%03d-%s", len(seen), path.Base(key)))
			if err := p.awsRepo.DownloadFile(ctx, bucket, key, dest); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				p.logger.Warnf("Materials - DownloadFile %s error: %v", key, err)
				continue
			}
			clip, err := p.prober.ProbeClip(ctx, dest)
			if err != nil {
				p.logger.Warnf("Materials - probe %s: %v", key, err)
				os.Remove(dest)
				continue
			}
			if !largeEnough(clip, p.cfg.Pipeline.MinMaterialSize) {
				p.logger.Warnf("Materials - %s is too small (%dx%d)", key, clip.Width, clip.Height)
				os.Remove(dest)
				continue
			}
			clips = append(clips, clip)
		}
	}

	if len(clips) > 0 && totalDuration(clips) < req.MinDuration {
		p.logger.Warnf("Materials - footage covers %.1fs of %.1fs, clips will repeat", totalDuration(clips), req.MinDuration)
	}
	return clips, nil
}
