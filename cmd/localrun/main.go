// Command localrun assembles one video on this machine without redis,
// postgres or S3. Materials must be local files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks/repository"
	"github.com/amankumarsingh77/shorts-assembler/internal/worker"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

func main() {
	var (
		configFile = flag.String("config", "config.yml", "config file, defaults are used when it is missing")
		paramsFile = flag.String("params", "", "JSON file with video params")
		subject    = flag.String("subject", "", "video subject")
		stopAt     = flag.String("stop-at", string(models.StageVideo), "last stage to run: script, terms, audio, subtitle, materials or video")
	)
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Default()
	if v, err := config.LoadConfig(*configFile); err == nil {
		if parsed, err := config.ParseConfig(v); err == nil {
			cfg = parsed
		}
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()

	params := &models.VideoParams{}
	if *paramsFile != "" {
		data, err := os.ReadFile(*paramsFile)
		if err != nil {
			log.Fatalf("read params: %v", err)
		}
		if err := json.Unmarshal(data, params); err != nil {
			log.Fatalf("parse params: %v", err)
		}
	}
	if *subject != "" {
		params.Subject = *subject
	}
	if params.Source == "" {
		params.Source = models.SourceLocal
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := utils.ValidateStruct(ctx, params); err != nil {
		log.Fatalf("invalid params: %v", err)
	}

	store := repository.NewTaskMemoryRepo()
	orchestrator, closeDeps, err := worker.NewOrchestrator(ctx, cfg, store, nil, appLogger)
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}
	defer closeDeps()

	taskID := uuid.New().String()
	if _, err := store.Create(ctx, &models.Task{TaskID: taskID, State: models.TaskStatePending}); err != nil {
		log.Fatalf("create task: %v", err)
	}

	stage, err := models.ParseStage(*stopAt)
	if err != nil {
		log.Fatalf("invalid stop-at: %v", err)
	}
	task, err := orchestrator.Start(ctx, taskID, *params, stage)
	if err != nil {
		appLogger.Errorf("task %s failed: %v", taskID, err)
	}
	if task != nil {
		out, _ := json.MarshalIndent(task, "", "  ")
		fmt.Println(string(out))
	}
	if err != nil {
		os.Exit(1)
	}
}
