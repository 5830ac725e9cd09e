package http

import (
	"github.com/labstack/echo/v4"

	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
)

func MapTaskRoutes(group *echo.Group, h tasks.Handler) {
	group.POST("/videos", h.CreateVideo())
	group.POST("/scripts", h.CreateScript())
	group.POST("/audio", h.CreateAudio())
	group.POST("/subtitle", h.CreateSubtitle())
	group.GET("/tasks", h.ListTasks())
	group.GET("/tasks/:task_id", h.GetTask())
	group.DELETE("/tasks/:task_id", h.DeleteTask())
}
