package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	taskHttp "github.com/amankumarsingh77/shorts-assembler/internal/tasks/delivery/http"
	taskUsecase "github.com/amankumarsingh77/shorts-assembler/internal/tasks/usecase"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	taskUC := taskUsecase.NewTaskUseCase(s.cfg, s.taskRepo, s.queueRepo, s.awsRepo, s.logger)
	taskHandlers := taskHttp.NewTaskHandler(taskUC)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")

	taskHttp.MapTaskRoutes(v1, taskHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		resp := map[string]interface{}{"status": "OK"}
		if n, err := s.queueRepo.QueueLength(c.Request().Context(), s.cfg.Redis.JobQueueKey); err == nil {
			resp["queued_tasks"] = n
		}
		return c.JSON(http.StatusOK, resp)
	})
	return nil
}
