package worker

import (
	"context"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

const (
	DefaultPollInterval = 2 * time.Second
	MaxParallelUploads  = 4
)

// TaskRunner runs one task to completion. pipeline.Orchestrator implements it.
type TaskRunner interface {
	Start(ctx context.Context, taskID string, params models.VideoParams, stopAt models.Stage) (*models.Task, error)
}

// cpuGate reports whether a new job may start and the sampled CPU usage.
type cpuGate func(maxUsage float64) (bool, float64)
