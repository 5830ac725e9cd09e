package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	apiMiddlewares "github.com/amankumarsingh77/shorts-assembler/internal/middleware"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5
)

type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	taskRepo  tasks.Repository
	queueRepo tasks.QueueRepository
	awsRepo   tasks.AWSRepository
	logger    logger.Logger
}

// NewServer takes the already selected task store. awsRepo may be nil.
func NewServer(cfg *config.Config, taskRepo tasks.Repository, queueRepo tasks.QueueRepository, awsRepo tasks.AWSRepository, logger logger.Logger) *Server {
	return &Server{
		echo:      echo.New(),
		cfg:       cfg,
		taskRepo:  taskRepo,
		queueRepo: queueRepo,
		awsRepo:   awsRepo,
		logger:    logger,
	}
}

func (s *Server) Run() error {
	if err := s.MapHandlers(s.echo); err != nil {
		return err
	}
	s.echo.HideBanner = true
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Recover())
	mw := apiMiddlewares.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	s.echo.Use(mw.RequestLoggerMiddleware)
	s.echo.Use(mw.CORS())

	server := &http.Server{
		Addr:           s.cfg.Server.Port,
		ReadTimeout:    time.Second * time.Duration(s.cfg.Server.ReadTimeout),
		WriteTimeout:   time.Second * time.Duration(s.cfg.Server.WriteTimeout),
		MaxHeaderBytes: maxHeaderBytes,
	}
	go func() {
		s.logger.Infof("Server is listening on PORT: %s", s.cfg.Server.Port)
		if err := s.echo.StartServer(server); err != nil && err != http.ErrServerClosed {
			s.logger.Fatalf("error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	ctx, shutdown := context.WithTimeout(context.Background(), time.Second*ctxTimeout)
	defer shutdown()
	s.logger.Infof("shutting down server")
	return s.echo.Shutdown(ctx)
}
