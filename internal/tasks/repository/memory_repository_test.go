package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

func ptr[T any](v T) *T { return &v }

func TestMemoryRepoUpdateIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskMemoryRepo()
	if _, err := repo.Create(ctx, &models.Task{TaskID: "t1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	steps := []struct {
		progress float64
		want     float64
	}{
		{5, 5}, {30, 30}, {10, 30}, {150, 100},
	}
	for _, s := range steps {
		task, err := repo.Update(ctx, "t1", models.TaskUpdate{Progress: ptr(s.progress)})
		if err != nil {
			t.Fatalf("Update(%v) error = %v", s.progress, err)
		}
		if task.Progress != s.want {
			t.Fatalf("Update(%v) progress = %v, want %v", s.progress, task.Progress, s.want)
		}
	}
}

func TestMemoryRepoTerminalTaskRejectsUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskMemoryRepo()
	repo.Create(ctx, &models.Task{TaskID: "t1"})

	if _, err := repo.Update(ctx, "t1", models.TaskUpdate{
		State:  ptr(models.TaskStateComplete),
		Videos: []string{"final-1.mp4"},
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	_, err := repo.Update(ctx, "t1", models.TaskUpdate{State: ptr(models.TaskStateFailed)})
	if !errors.Is(err, tasks.ErrTaskTerminal) {
		t.Fatalf("Update() after complete error = %v, want ErrTaskTerminal", err)
	}
	if _, err := repo.Update(ctx, "missing", models.TaskUpdate{}); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Fatalf("Update(missing) error = %v, want ErrTaskNotFound", err)
	}
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskMemoryRepo()
	repo.Create(ctx, &models.Task{TaskID: "t1"})
	repo.Update(ctx, "t1", models.TaskUpdate{Terms: []string{"sea"}})

	got, _ := repo.Get(ctx, "t1")
	got.Terms[0] = "changed"
	again, _ := repo.Get(ctx, "t1")
	if again.Terms[0] != "sea" {
		t.Fatalf("store shares slices with callers: %v", again.Terms)
	}
}

func TestMemoryRepoConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskMemoryRepo()
	repo.Create(ctx, &models.Task{TaskID: "t1"})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(p float64) {
			defer wg.Done()
			repo.Update(ctx, "t1", models.TaskUpdate{Progress: ptr(p)})
			repo.Get(ctx, "t1")
		}(float64(i))
	}
	wg.Wait()

	task, _ := repo.Get(ctx, "t1")
	if task.Progress != 50 {
		t.Fatalf("progress = %v, want 50", task.Progress)
	}
}

func TestMemoryRepoListAndDelete(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	repo := &taskMemoryRepo{
		tasks: make(map[string]*models.Task),
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		},
	}
	for i := 0; i < 5; i++ {
		repo.Create(ctx, &models.Task{TaskID: fmt.Sprintf("t%d", i)})
	}

	page := &utils.Pagination{Page: 1, Size: 2, OrderBy: "newest"}
	list, err := repo.List(ctx, page)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.TotalCount != 5 || !list.HasMore || len(list.Tasks) != 2 || list.Tasks[0].TaskID != "t4" {
		t.Fatalf("newest page = %+v", list)
	}

	last, _ := repo.List(ctx, &utils.Pagination{Page: 3, Size: 2, OrderBy: "oldest"})
	if len(last.Tasks) != 1 || last.Tasks[0].TaskID != "t4" || last.HasMore {
		t.Fatalf("oldest last page = %+v", last)
	}

	if err := repo.Delete(ctx, "t2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "t2"); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Fatalf("Get(deleted) error = %v", err)
	}
	if err := repo.Delete(ctx, "t2"); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Fatalf("Delete(deleted) error = %v", err)
	}
}

func TestNewTaskStore(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: "memory"},
		{backend: " Memory "},
		{backend: "redis", wantErr: true},
		{backend: "postgres", wantErr: true},
		{backend: "mongo", wantErr: true},
	}
	for _, tt := range tests {
		store, err := NewTaskStore(tt.backend, nil, nil, "task:")
		if (err != nil) != tt.wantErr {
			t.Fatalf("NewTaskStore(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
		}
		if !tt.wantErr && store == nil {
			t.Fatalf("NewTaskStore(%q) returned nil store", tt.backend)
		}
	}
}
