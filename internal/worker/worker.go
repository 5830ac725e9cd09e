package worker

import (
	"context"
	"sync"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

// Worker pulls task jobs off the queue and runs them.
type Worker struct {
	cfg       *config.Config
	logger    logger.Logger
	queueRepo tasks.QueueRepository
	awsRepo   tasks.AWSRepository
	runner    TaskRunner
	canAccept cpuGate
	wg        sync.WaitGroup
}

// NewWorker builds a worker pool. awsRepo may be nil, in which case rendered
// videos stay on local disk.
func NewWorker(cfg *config.Config, logger logger.Logger, queueRepo tasks.QueueRepository, awsRepo tasks.AWSRepository, runner TaskRunner) *Worker {
	return &Worker{
		cfg:       cfg,
		logger:    logger,
		queueRepo: queueRepo,
		awsRepo:   awsRepo,
		runner:    runner,
		canAccept: utils.CheckCPUUsage,
	}
}

// Start launches WorkerCount goroutines that run until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	count := w.cfg.Worker.WorkerCount
	if count <= 0 {
		count = 1
	}
	w.logger.Infof("Starting %d workers", count)
	for i := range count {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

// Wait blocks until every worker goroutine has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	poll := w.pollInterval()
	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("worker %d stopping", id)
			return
		default:
		}

		if limit := w.cfg.Worker.MaxCPUUsage; limit > 0 {
			if ok, usage := w.canAccept(limit); !ok {
				w.logger.Infof("CPU usage is high: %f", usage)
				sleep(ctx, poll)
				continue
			}
		}

		job, err := w.queueRepo.DequeueJob(ctx, w.cfg.Redis.JobQueueKey, poll)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("worker %d: DequeueJob error: %v", id, err)
			sleep(ctx, poll)
			continue
		}
		if job == nil {
			continue
		}
		if err := w.HandleJob(ctx, job); err != nil {
			w.logger.Errorf("worker %d: task %s: %v", id, job.TaskID, err)
		}
	}
}

func (w *Worker) pollInterval() time.Duration {
	if s := w.cfg.Worker.PollInterval; s > 0 {
		return time.Duration(s) * time.Second
	}
	return DefaultPollInterval
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
