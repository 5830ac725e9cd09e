package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type fakeUC struct {
	submitted []*models.VideoParams
	stops     []models.Stage
	tasks     map[string]*models.Task
}

func (f *fakeUC) Submit(ctx context.Context, params *models.VideoParams, stopAt models.Stage) (*models.Task, error) {
	f.submitted = append(f.submitted, params)
	f.stops = append(f.stops, stopAt)
	return &models.Task{TaskID: "task-1", State: models.TaskStatePending}, nil
}

func (f *fakeUC) Get(ctx context.Context, taskID string) (*models.Task, error) {
	if t, ok := f.tasks[taskID]; ok {
		return t, nil
	}
	return nil, tasks.ErrTaskNotFound
}

func (f *fakeUC) List(ctx context.Context, pq *utils.Pagination) (*models.TaskList, error) {
	return &models.TaskList{Tasks: []*models.Task{}, Page: pq.GetPage(), PageSize: pq.GetSize()}, nil
}

func (f *fakeUC) Delete(ctx context.Context, taskID string) error {
	if _, ok := f.tasks[taskID]; !ok {
		return tasks.ErrTaskNotFound
	}
	delete(f.tasks, taskID)
	return nil
}

func newTestServer(uc *fakeUC) *echo.Echo {
	e := echo.New()
	MapTaskRoutes(e.Group("/api/v1"), NewTaskHandler(uc))
	return e
}

func TestCreateEndpointsSetStopAt(t *testing.T) {
	tests := []struct {
		path string
		want models.Stage
	}{
		{"/api/v1/videos", models.StageVideo},
		{"/api/v1/scripts", models.StageScript},
		{"/api/v1/audio", models.StageAudio},
		{"/api/v1/subtitle", models.StageSubtitle},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			uc := &fakeUC{}
			e := newTestServer(uc)
			body := `{"video_subject":"rain","video_terms":"cloud, storm","text_background_color":false}`
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["task_id"] != "task-1" {
				t.Fatalf("response = %s", rec.Body.String())
			}
			if len(uc.stops) != 1 || uc.stops[0] != tt.want {
				t.Fatalf("stop_at = %v, want %s", uc.stops, tt.want)
			}
			p := uc.submitted[0]
			if p.Subject != "rain" || len(p.Terms) != 2 || p.Terms[1] != "storm" || p.TextBackgroundColor != "false" {
				t.Fatalf("params = %+v", p)
			}
		})
	}
}

func TestCreateVideoRejectsMalformedBody(t *testing.T) {
	e := newTestServer(&fakeUC{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", strings.NewReader(`{"video_subject":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetAndDeleteTask(t *testing.T) {
	uc := &fakeUC{tasks: map[string]*models.Task{
		"abc": {TaskID: "abc", State: models.TaskStateComplete, Progress: 100, Videos: models.StringList{"final-1.mp4"}},
	}}
	e := newTestServer(uc)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var task models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil || task.Progress != 100 || len(task.Videos) != 1 {
		t.Fatalf("GET body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/tasks/abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/abc", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want 404", rec.Code)
	}
}

func TestListTasksRejectsBadPage(t *testing.T) {
	e := newTestServer(&fakeUC{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks?page=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks?page=2&size=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
