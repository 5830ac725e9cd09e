package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

var taskColumnNames = []string{
	"task_id", "state", "progress", "script", "terms", "audio_file", "audio_duration", "subtitle_path",
	"materials", "combined_videos", "videos", "error", "created_at", "updated_at",
}

var testStamp = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (tasks.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTaskRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func taskRow(id string, state models.TaskState, progress float64, terms string) *sqlmock.Rows {
	return sqlmock.NewRows(taskColumnNames).
		AddRow(id, string(state), progress, "", terms, "", 0.0, "", "[]", "[]", "[]", "", testStamp, testStamp)
}

func TestPqRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(createTaskQuery).
		WithArgs("t1", "pending", 0.0).
		WillReturnRows(taskRow("t1", models.TaskStatePending, 0, "[]"))

	task, err := repo.Create(context.Background(), &models.Task{TaskID: "t1"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.State != models.TaskStatePending || !task.CreatedAt.Equal(testStamp) {
		t.Fatalf("Create() = %+v", task)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPqRepoUpdateLocksMergesAndCommits(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockTaskQuery).
		WithArgs("t1").
		WillReturnRows(taskRow("t1", models.TaskStateProcessing, 30, "[]"))
	// progress stays at the locked 30 and terms are stored as a JSON array
	mock.ExpectQuery(updateTaskQuery).
		WithArgs("t1", "processing", 30.0, "", `["cat"]`, "", 0.0, "", "[]", "[]", "[]", "").
		WillReturnRows(taskRow("t1", models.TaskStateProcessing, 30, `["cat"]`))
	mock.ExpectCommit()

	task, err := repo.Update(context.Background(), "t1", models.TaskUpdate{
		Progress: ptr(10.0),
		Terms:    []string{"cat"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if task.Progress != 30 || len(task.Terms) != 1 || task.Terms[0] != "cat" {
		t.Fatalf("Update() = %+v", task)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPqRepoUpdateRollsBack(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		lockErr error
		wantErr error
	}{
		{name: "missing task", rows: sqlmock.NewRows(taskColumnNames), wantErr: tasks.ErrTaskNotFound},
		{name: "terminal task", rows: taskRow("t1", models.TaskStateComplete, 100, "[]"), wantErr: tasks.ErrTaskTerminal},
		{name: "lock fails", lockErr: errors.New("deadlock detected")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			lock := mock.ExpectQuery(lockTaskQuery).WithArgs("t1")
			if tt.lockErr != nil {
				lock.WillReturnError(tt.lockErr)
			} else {
				lock.WillReturnRows(tt.rows)
			}
			mock.ExpectRollback()

			_, err := repo.Update(context.Background(), "t1", models.TaskUpdate{State: ptr(models.TaskStateFailed)})
			if err == nil {
				t.Fatalf("Update() succeeded")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Update() error = %v, want %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestPqRepoGetMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(getTaskByIDQuery).WithArgs("missing").WillReturnRows(sqlmock.NewRows(taskColumnNames))

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrTaskNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPqRepoList(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(getTotalTasksQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(getTasksOldestQuery).
		WithArgs(2, 2).
		WillReturnRows(taskRow("t3", models.TaskStatePending, 0, "[]"))

	list, err := repo.List(context.Background(), &utils.Pagination{Page: 2, Size: 2, OrderBy: "oldest"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.TotalCount != 3 || list.HasMore || len(list.Tasks) != 1 || list.Tasks[0].TaskID != "t3" {
		t.Fatalf("List() = %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPqRepoDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(deleteTaskQuery).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteTaskQuery).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(context.Background(), "t1"); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Fatalf("Delete(deleted) error = %v, want ErrTaskNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
