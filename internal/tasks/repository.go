package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskTerminal = errors.New("task already finished")
)

// Repository is the task store. Every Update is atomic over its field set and
// never lowers progress.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, taskID string) (*models.Task, error)
	Update(ctx context.Context, taskID string, update models.TaskUpdate) (*models.Task, error)
	List(ctx context.Context, pq *utils.Pagination) (*models.TaskList, error)
	Delete(ctx context.Context, taskID string) error
}

// ApplyUpdate merges update into task unless the task already reached a
// terminal state. Stores call it while holding their own lock or transaction.
func ApplyUpdate(task *models.Task, update models.TaskUpdate, now time.Time) error {
	if task.State.Terminal() {
		return ErrTaskTerminal
	}
	update.Apply(task)
	task.UpdatedAt = now
	return nil
}
