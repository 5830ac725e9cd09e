package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks/repository"
	"github.com/amankumarsingh77/shorts-assembler/internal/worker"
	"github.com/amankumarsingh77/shorts-assembler/pkg/db/aws"
	"github.com/amankumarsingh77/shorts-assembler/pkg/db/postgres"
	"github.com/amankumarsingh77/shorts-assembler/pkg/db/redis"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfgFile, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("LoadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("ParseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Workers: %d", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Worker.WorkerCount)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient, err := redis.NewRedisClient(ctx, cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %v", err)
	}
	defer redisClient.Close()

	var psqlDB *sqlx.DB
	if cfg.Store.Backend == repository.BackendPostgres {
		psqlDB, err = postgres.NewPsqlDB(cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to db: %v", err)
		}
		defer psqlDB.Close()
	}

	taskRepo, err := repository.NewTaskStore(cfg.Store.Backend, redisClient, psqlDB, cfg.Redis.TaskKeyPrefix)
	if err != nil {
		appLogger.Fatalf("could not create task store: %v", err)
	}

	var awsRepo tasks.AWSRepository
	if cfg.S3.OutputBucket != "" || cfg.S3.MaterialBucket != "" {
		s3Client, err := aws.NewS3Client(ctx, cfg)
		if err != nil {
			appLogger.Fatalf("could not create s3 client: %v", err)
		}
		awsRepo = repository.NewAwsRepository(s3Client)
	}

	orchestrator, closeDeps, err := worker.NewOrchestrator(ctx, cfg, taskRepo, awsRepo, appLogger)
	if err != nil {
		appLogger.Fatalf("could not build pipeline: %v", err)
	}
	defer closeDeps()

	w := worker.NewWorker(cfg, appLogger, repository.NewJobRedisRepo(redisClient, appLogger), awsRepo, orchestrator)
	w.Start(ctx)
	<-ctx.Done()
	appLogger.Info("Shutting down, waiting for running tasks")
	w.Wait()
}
