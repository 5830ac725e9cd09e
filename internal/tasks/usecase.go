package tasks

import (
	"context"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type UseCase interface {
	Submit(ctx context.Context, params *models.VideoParams, stopAt models.Stage) (*models.Task, error)
	Get(ctx context.Context, taskID string) (*models.Task, error)
	List(ctx context.Context, pq *utils.Pagination) (*models.TaskList, error)
	Delete(ctx context.Context, taskID string) error
}
