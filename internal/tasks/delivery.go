package tasks

import "github.com/labstack/echo/v4"

type Handler interface {
	CreateVideo() echo.HandlerFunc
	CreateScript() echo.HandlerFunc
	CreateAudio() echo.HandlerFunc
	CreateSubtitle() echo.HandlerFunc
	GetTask() echo.HandlerFunc
	ListTasks() echo.HandlerFunc
	DeleteTask() echo.HandlerFunc
}
