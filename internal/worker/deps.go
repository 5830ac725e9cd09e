package worker

import (
	"context"

	"github.com/amankumarsingh77/shorts-assembler/internal/composer"
	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/llm"
	"github.com/amankumarsingh77/shorts-assembler/internal/material"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/pipeline"
	"github.com/amankumarsingh77/shorts-assembler/internal/subtitle"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/internal/voice"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

// NewOrchestrator wires the production collaborators around store. Without a
// Gemini key only tasks with an explicit script and terms can run; without
// awsRepo the s3 material source is unavailable. The returned func releases
// the LLM client.
func NewOrchestrator(ctx context.Context, cfg *config.Config, store tasks.Repository, awsRepo tasks.AWSRepository, log logger.Logger) (*pipeline.Orchestrator, func(), error) {
	runner := utils.NewExecRunner()
	compositor := composer.NewCompositor(cfg, runner, log)

	deps := pipeline.Deps{
		Store:       store,
		Voice:       voice.NewEdgeTTS(runner, compositor.Prober(), cfg.Pipeline.EdgeTTSPath, log),
		Transcriber: subtitle.NewWhisperSource(runner, cfg.Pipeline.WhisperPath, cfg.Pipeline.WhisperModel),
		Materials: map[string]pipeline.MaterialProvider{
			models.SourceLocal: material.NewLocalProvider(cfg, runner, log),
		},
		Composer: compositor,
	}
	if awsRepo != nil {
		deps.Materials[models.SourceS3] = material.NewS3Provider(cfg, awsRepo, runner, log)
	}

	cleanup := func() {}
	if cfg.LLM.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiService(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		deps.Scripts = gemini
		deps.Terms = gemini
		cleanup = func() {
			if err := gemini.Close(); err != nil {
				log.Warnf("failed to close gemini client: %v", err)
			}
		}
	} else {
		log.Warn("llm.geminiApiKey is not set, tasks need an explicit script and terms")
	}

	return pipeline.NewOrchestrator(cfg, deps, log), cleanup, nil
}
