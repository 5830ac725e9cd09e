package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks/repository"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
)

type fakeQueue struct {
	jobs []*models.TaskJob
}

func (q *fakeQueue) EnqueueJob(ctx context.Context, key string, job *models.TaskJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) DequeueJob(ctx context.Context, key string, timeout time.Duration) (*models.TaskJob, error) {
	return nil, nil
}

func (q *fakeQueue) QueueLength(ctx context.Context, key string) (int64, error) {
	return int64(len(q.jobs)), nil
}

func newTestEcho(t *testing.T, queue *fakeQueue) *echo.Echo {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.TaskDir = t.TempDir()
	s := NewServer(cfg, repository.NewTaskMemoryRepo(), queue, nil, logger.NewNop())
	e := echo.New()
	if err := s.MapHandlers(e); err != nil {
		t.Fatalf("MapHandlers() error = %v", err)
	}
	return e
}

func TestHealthReportsQueueLength(t *testing.T) {
	queue := &fakeQueue{jobs: []*models.TaskJob{{TaskID: "a"}}}
	e := newTestEcho(t, queue)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "OK" || body["queued_tasks"] != float64(1) {
		t.Fatalf("body = %v", body)
	}
}

func TestSubmitThenGetTask(t *testing.T) {
	queue := &fakeQueue{}
	e := newTestEcho(t, queue)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", strings.NewReader(`{"video_subject":"tides"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK && rec.Code != http.StatusCreated && rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d body = %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created["task_id"] == "" || len(queue.jobs) != 1 || queue.jobs[0].TaskID != created["task_id"] {
		t.Fatalf("created = %v, jobs = %d", created, len(queue.jobs))
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/"+created["task_id"], nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var task models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatal(err)
	}
	if task.State != models.TaskStatePending {
		t.Fatalf("state = %v", task.State)
	}
}
