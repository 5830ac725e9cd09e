package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type taskRepo struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) tasks.Repository {
	return &taskRepo{
		db: db,
	}
}

func (r *taskRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	state := task.State
	if state == "" {
		state = models.TaskStatePending
	}
	created := &models.Task{}
	if err := r.db.QueryRowxContext(
		ctx,
		createTaskQuery,
		task.TaskID,
		string(state),
		task.Progress,
	).StructScan(created); err != nil {
		return nil, errors.Wrap(err, "taskRepo.Create.QueryRowxContext")
	}
	return created, nil
}

func (r *taskRepo) Get(ctx context.Context, taskID string) (*models.Task, error) {
	task := &models.Task{}
	if err := r.db.GetContext(ctx, task, getTaskByIDQuery, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, errors.Wrap(err, "taskRepo.Get.GetContext")
	}
	return task, nil
}

// Update locks the row, merges the update in Go and writes the result back in
// the same transaction.
func (r *taskRepo) Update(ctx context.Context, taskID string, update models.TaskUpdate) (*models.Task, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "taskRepo.Update.BeginTxx")
	}
	defer tx.Rollback()

	task := &models.Task{}
	if err := tx.GetContext(ctx, task, lockTaskQuery, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, errors.Wrap(err, "taskRepo.Update.GetContext")
	}
	if err := tasks.ApplyUpdate(task, update, task.UpdatedAt); err != nil {
		return nil, err
	}

	updated := &models.Task{}
	if err := tx.QueryRowxContext(
		ctx,
		updateTaskQuery,
		task.TaskID,
		string(task.State),
		task.Progress,
		task.Script,
		task.Terms,
		task.AudioFile,
		task.AudioDuration,
		task.SubtitlePath,
		task.Materials,
		task.CombinedVideos,
		task.Videos,
		task.Error,
	).StructScan(updated); err != nil {
		return nil, errors.Wrap(err, "taskRepo.Update.QueryRowxContext")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "taskRepo.Update.Commit")
	}
	return updated, nil
}

func (r *taskRepo) List(ctx context.Context, pq *utils.Pagination) (*models.TaskList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalTasksQuery); err != nil {
		return nil, errors.Wrap(err, "taskRepo.List.GetContext.totalCount")
	}
	if totalCount == 0 {
		return &models.TaskList{
			Tasks:      make([]*models.Task, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}

	query := getTasksNewestQuery
	if pq.GetOrderBy() == "oldest" {
		query = getTasksOldestQuery
	}
	rows, err := r.db.QueryxContext(ctx, query, pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, errors.Wrap(err, "taskRepo.List.QueryxContext")
	}
	defer rows.Close()

	list := make([]*models.Task, 0, pq.GetSize())
	for rows.Next() {
		task := &models.Task{}
		if err = rows.StructScan(task); err != nil {
			return nil, errors.Wrap(err, "taskRepo.List.StructScan")
		}
		list = append(list, task)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "taskRepo.List.rows.Err")
	}

	return &models.TaskList{
		Tasks:      list,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

func (r *taskRepo) Delete(ctx context.Context, taskID string) error {
	res, err := r.db.ExecContext(ctx, deleteTaskQuery, taskID)
	if err != nil {
		return errors.Wrap(err, "taskRepo.Delete.ExecContext")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "taskRepo.Delete.RowsAffected")
	}
	if count == 0 {
		return tasks.ErrTaskNotFound
	}
	return nil
}
