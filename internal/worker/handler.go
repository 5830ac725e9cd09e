package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
)

// HandleJob runs one queued task and uploads its final videos.
func (w *Worker) HandleJob(ctx context.Context, job *models.TaskJob) error {
	// Shutdown waits for the job instead of cancelling it.
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	w.logger.Infof("Processing task %s (stop_at=%s)", job.TaskID, job.StopAt)

	task, err := w.runner.Start(ctx, job.TaskID, job.Params, job.StopAt)
	if err != nil {
		return fmt.Errorf("task failed after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}
	w.logger.Infof("Task %s finished in %s with %d videos", job.TaskID, time.Since(start).Round(time.Millisecond), len(task.Videos))

	keys, err := w.uploadVideos(ctx, job.TaskID, task.Videos)
	if err != nil {
		return fmt.Errorf("failed to upload videos: %w", err)
	}
	for _, key := range keys {
		w.logger.Infof("Uploaded s3://%s/%s", w.cfg.S3.OutputBucket, key)
	}
	return nil
}

// uploadVideos copies finished videos to the output bucket, a few at a time.
func (w *Worker) uploadVideos(ctx context.Context, taskID string, videos []string) ([]string, error) {
	bucket := w.cfg.S3.OutputBucket
	if w.awsRepo == nil || bucket == "" || len(videos) == 0 {
		return nil, nil
	}

	keys := make([]string, len(videos))
	semaphore := make(chan struct{}, MaxParallelUploads)
	errChan := make(chan error, len(videos))
	var wg sync.WaitGroup

	for i, video := range videos {
		keys[i] = tasks.ArtifactPrefix(taskID) + filepath.Base(video)
		wg.Add(1)
		go func(src, key string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := w.awsRepo.UploadFile(ctx, bucket, key, src); err != nil {
				errChan <- fmt.Errorf("upload %s: %w", src, err)
			}
		}(video, keys[i])
	}
	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	return keys, nil
}
