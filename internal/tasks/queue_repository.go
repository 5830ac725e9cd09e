package tasks

import (
	"context"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

type QueueRepository interface {
	EnqueueJob(ctx context.Context, key string, job *models.TaskJob) error
	// DequeueJob blocks up to timeout and returns nil when the queue stayed empty.
	DequeueJob(ctx context.Context, key string, timeout time.Duration) (*models.TaskJob, error)
	QueueLength(ctx context.Context, key string) (int64, error)
}
