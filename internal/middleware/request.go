package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

// RequestLoggerMiddleware logs one line per request with its status and latency.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		latency := time.Since(start)
		if status >= http.StatusInternalServerError {
			mw.logger.Errorf("RequestID: %s, Method: %s, URI: %s, Status: %v, Latency: %s, IP: %s",
				utils.GetRequestID(c), req.Method, req.URL.Path, status, latency, utils.GetIPAddress(c))
		} else {
			mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %v, Latency: %s",
				utils.GetRequestID(c), req.Method, req.URL.Path, status, latency)
		}
		return nil
	}
}

// CORS allows the configured origins to call the task API.
func (mw *MiddlewareManager) CORS() echo.MiddlewareFunc {
	origins := mw.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
		MaxAge:       300,
	})
}
