package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

type taskHandler struct {
	taskUC tasks.UseCase
}

func NewTaskHandler(taskUC tasks.UseCase) tasks.Handler {
	return &taskHandler{
		taskUC: taskUC,
	}
}

func (h *taskHandler) CreateVideo() echo.HandlerFunc {
	return h.submit(models.StageVideo)
}

func (h *taskHandler) CreateScript() echo.HandlerFunc {
	return h.submit(models.StageScript)
}

func (h *taskHandler) CreateAudio() echo.HandlerFunc {
	return h.submit(models.StageAudio)
}

func (h *taskHandler) CreateSubtitle() echo.HandlerFunc {
	return h.submit(models.StageSubtitle)
}

// submit queues a task that runs up to and including stopAt.
func (h *taskHandler) submit(stopAt models.Stage) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &models.VideoParams{}
		if err := c.Bind(params); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		task, err := h.taskUC.Submit(c.Request().Context(), params, stopAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"task_id": task.TaskID})
	}
}

func (h *taskHandler) GetTask() echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := h.taskUC.Get(c.Request().Context(), c.Param("task_id"))
		if err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func (h *taskHandler) ListTasks() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		list, err := h.taskUC.List(c.Request().Context(), pagination)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

func (h *taskHandler) DeleteTask() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.taskUC.Delete(c.Request().Context(), c.Param("task_id")); err != nil {
			return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Task deleted successfully"})
	}
}

func statusFor(err error) int {
	if errors.Is(err, tasks.ErrTaskNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
