package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type taskMemoryRepo struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
	now   func() time.Time
}

func NewTaskMemoryRepo() tasks.Repository {
	return &taskMemoryRepo{
		tasks: make(map[string]*models.Task),
		now:   time.Now,
	}
}

func (r *taskMemoryRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	t := task.Clone()
	if t.State == "" {
		t.State = models.TaskStatePending
	}
	t.CreatedAt, t.UpdatedAt = now, now
	r.tasks[t.TaskID] = t
	return t.Clone(), nil
}

func (r *taskMemoryRepo) Get(ctx context.Context, taskID string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return nil, tasks.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *taskMemoryRepo) Update(ctx context.Context, taskID string, update models.TaskUpdate) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return nil, tasks.ErrTaskNotFound
	}
	if err := tasks.ApplyUpdate(t, update, r.now()); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

func (r *taskMemoryRepo) List(ctx context.Context, pq *utils.Pagination) (*models.TaskList, error) {
	r.mu.RLock()
	all := make([]*models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		all = append(all, t.Clone())
	}
	r.mu.RUnlock()

	oldestFirst := pq.GetOrderBy() == "oldest"
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].TaskID < all[j].TaskID
		}
		if oldestFirst {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	totalCount := len(all)
	start := min(pq.GetOffset(), totalCount)
	end := min(start+pq.GetLimit(), totalCount)
	return &models.TaskList{
		Tasks:      all[start:end],
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

func (r *taskMemoryRepo) Delete(ctx context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[taskID]; !ok {
		return tasks.ErrTaskNotFound
	}
	delete(r.tasks, taskID)
	return nil
}
