package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/server"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks/repository"
	"github.com/amankumarsingh77/shorts-assembler/pkg/db/aws"
	"github.com/amankumarsingh77/shorts-assembler/pkg/db/postgres"
	"github.com/amankumarsingh77/shorts-assembler/pkg/db/redis"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
)

func main() {
	log.Println("Starting api server")
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
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s, Store: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode, cfg.Store.Backend)

	ctx := context.Background()
	redisClient, err := redis.NewRedisClient(ctx, cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %v", err)
	}
	defer redisClient.Close()
	appLogger.Info("redis connected")

	var psqlDB *sqlx.DB
	if cfg.Store.Backend == repository.BackendPostgres {
		psqlDB, err = postgres.NewPsqlDB(cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to db: %v", err)
		}
		defer psqlDB.Close()
		appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	}

	taskRepo, err := repository.NewTaskStore(cfg.Store.Backend, redisClient, psqlDB, cfg.Redis.TaskKeyPrefix)
	if err != nil {
		appLogger.Fatalf("could not create task store: %v", err)
	}

	var awsRepo tasks.AWSRepository
	if cfg.S3.OutputBucket != "" {
		s3Client, err := aws.NewS3Client(ctx, cfg)
		if err != nil {
			appLogger.Fatalf("could not create s3 client: %v", err)
		}
		awsRepo = repository.NewAwsRepository(s3Client)
	}

	s := server.NewServer(cfg, taskRepo, repository.NewJobRedisRepo(redisClient, appLogger), awsRepo, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Errorf("server stopped with error: %v", err)
	}
}
