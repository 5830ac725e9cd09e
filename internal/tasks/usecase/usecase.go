package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type taskUC struct {
	cfg       *config.Config
	taskRepo  tasks.Repository
	queueRepo tasks.QueueRepository
	awsRepo   tasks.AWSRepository
	logger    logger.Logger
}

// NewTaskUseCase wires the task API. awsRepo may be nil when no output bucket
// is used.
func NewTaskUseCase(
	cfg *config.Config,
	taskRepo tasks.Repository,
	queueRepo tasks.QueueRepository,
	awsRepo tasks.AWSRepository,
	log logger.Logger,
) tasks.UseCase {
	return &taskUC{
		cfg:       cfg,
		taskRepo:  taskRepo,
		queueRepo: queueRepo,
		awsRepo:   awsRepo,
		logger:    log,
	}
}

func (u *taskUC) Submit(ctx context.Context, params *models.VideoParams, stopAt models.Stage) (*models.Task, error) {
	if params == nil {
		return nil, fmt.Errorf("invalid input: params is nil")
	}
	if err := utils.ValidateStruct(ctx, params); err != nil {
		u.logger.Errorf("Submit - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}
	if stopAt == "" {
		stopAt = models.StageVideo
	}
	params.Normalize()

	task, err := u.taskRepo.Create(ctx, &models.Task{
		TaskID: uuid.New().String(),
		State:  models.TaskStatePending,
	})
	if err != nil {
		u.logger.Errorf("Submit - Create error: %v", err)
		return nil, err
	}

	job := &models.TaskJob{
		TaskID:     task.TaskID,
		Params:     *params,
		StopAt:     stopAt,
		Status:     models.JobStatusQueued,
		EnqueuedAt: time.Now(),
	}
	if err := utils.ValidateStruct(ctx, job); err != nil {
		u.logger.Errorf("Submit - ValidateStruct job error: %v", err)
		return nil, err
	}
	if err := u.queueRepo.EnqueueJob(ctx, u.cfg.Redis.JobQueueKey, job); err != nil {
		u.logger.Errorf("Submit - EnqueueJob error: %v", err)
		msg := "failed to enqueue task: " + err.Error()
		failed := models.TaskStateFailed
		if _, uerr := u.taskRepo.Update(ctx, task.TaskID, models.TaskUpdate{State: &failed, Error: &msg}); uerr != nil {
			u.logger.Errorf("Submit - Update error: %v", uerr)
		}
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	u.logger.Infof("Submitted task %s (stop_at=%s)", task.TaskID, stopAt)
	return task, nil
}

func (u *taskUC) Get(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := u.taskRepo.Get(ctx, taskID)
	if err != nil {
		u.logger.Errorf("Get - Get error: %v", err)
		return nil, err
	}
	return task, nil
}

func (u *taskUC) List(ctx context.Context, pq *utils.Pagination) (*models.TaskList, error) {
	pq.Clamp()
	list, err := u.taskRepo.List(ctx, pq)
	if err != nil {
		u.logger.Errorf("List - List error: %v", err)
		return nil, err
	}
	return list, nil
}

// Delete removes the task record, its working directory and any uploaded
// artifacts.
func (u *taskUC) Delete(ctx context.Context, taskID string) error {
	if _, err := uuid.Parse(taskID); err != nil {
		return fmt.Errorf("invalid task id: %w", err)
	}
	if err := u.taskRepo.Delete(ctx, taskID); err != nil {
		u.logger.Errorf("Delete - Delete error: %v", err)
		return err
	}

	if dir := u.cfg.Pipeline.TaskDir; dir != "" {
		if err := os.RemoveAll(filepath.Join(dir, taskID)); err != nil {
			u.logger.Warnf("Delete - RemoveAll error: %v", err)
		}
	}

	bucket := u.cfg.S3.OutputBucket
	if u.awsRepo == nil || bucket == "" {
		return nil
	}
	keys, err := u.awsRepo.ListObjects(ctx, bucket, tasks.ArtifactPrefix(taskID))
	if err != nil {
		u.logger.Warnf("Delete - ListObjects error: %v", err)
		return nil
	}
	for _, key := range keys {
		if err := u.awsRepo.RemoveObject(ctx, bucket, key); err != nil {
			u.logger.Warnf("Delete - RemoveObject %s error: %v", key, err)
		}
	}
	return nil
}
