package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
	"github.com/amankumarsingh77/shorts-assembler/pkg/utils"
)

const (
	taskDataField = "task_data"
	maxTxRetries  = 10
)

type taskRedisRepo struct {
	redisClient *redis.Client
	keyPrefix   string
}

// NewTaskRedisRepo stores each task as one hash under keyPrefix+taskID and
// keeps a sorted set of task ids by creation time for listing.
func NewTaskRedisRepo(redisClient *redis.Client, keyPrefix string) tasks.Repository {
	if keyPrefix == "" {
		keyPrefix = "task:"
	}
	return &taskRedisRepo{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (r *taskRedisRepo) taskKey(taskID string) string {
	return r.keyPrefix + taskID
}

func (r *taskRedisRepo) indexKey() string {
	return r.keyPrefix + "index"
}

func (r *taskRedisRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	now := time.Now()
	t := task.Clone()
	if t.State == "" {
		t.State = models.TaskStatePending
	}
	t.CreatedAt, t.UpdatedAt = now, now

	payload, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "taskRedisRepo.Create.Marshal")
	}
	created, err := r.redisClient.HSetNX(ctx, r.taskKey(t.TaskID), taskDataField, payload).Result()
	if err != nil {
		return nil, errors.Wrap(err, "taskRedisRepo.Create.HSetNX")
	}
	if !created {
		return nil, fmt.Errorf("task %s already exists", t.TaskID)
	}

	pipe := r.redisClient.TxPipeline()
	pipe.HSet(ctx, r.taskKey(t.TaskID), "state", string(t.State), "progress", t.Progress)
	pipe.ZAdd(ctx, r.indexKey(), &redis.Z{Score: float64(now.UnixNano()), Member: t.TaskID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "taskRedisRepo.Create.Exec")
	}
	return t, nil
}

func (r *taskRedisRepo) Get(ctx context.Context, taskID string) (*models.Task, error) {
	data, err := r.redisClient.HGet(ctx, r.taskKey(taskID), taskDataField).Result()
	if err == redis.Nil {
		return nil, tasks.ErrTaskNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "taskRedisRepo.Get.HGet")
	}
	task := &models.Task{}
	if err := json.Unmarshal([]byte(data), task); err != nil {
		return nil, errors.Wrap(err, "taskRedisRepo.Get.Unmarshal")
	}
	return task, nil
}

// Update reads, merges and writes the task inside WATCH/MULTI/EXEC and retries
// when another writer touched the hash in between.
func (r *taskRedisRepo) Update(ctx context.Context, taskID string, update models.TaskUpdate) (*models.Task, error) {
	key := r.taskKey(taskID)
	var updated *models.Task

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, taskDataField).Result()
		if err == redis.Nil {
			return tasks.ErrTaskNotFound
		}
		if err != nil {
			return err
		}
		task := &models.Task{}
		if err := json.Unmarshal([]byte(data), task); err != nil {
			return err
		}
		if err := tasks.ApplyUpdate(task, update, time.Now()); err != nil {
			return err
		}
		payload, err := json.Marshal(task)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, taskDataField, payload, "state", string(task.State), "progress", task.Progress)
			return nil
		})
		if err == nil {
			updated = task
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.redisClient.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return updated, nil
		case err == redis.TxFailedErr:
			continue
		case err == tasks.ErrTaskNotFound, err == tasks.ErrTaskTerminal:
			return nil, err
		default:
			return nil, errors.Wrap(err, "taskRedisRepo.Update.Watch")
		}
	}
	return nil, errors.Errorf("taskRedisRepo.Update: too much contention on task %s", taskID)
}

func (r *taskRedisRepo) List(ctx context.Context, pq *utils.Pagination) (*models.TaskList, error) {
	totalCount, err := r.redisClient.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "taskRedisRepo.List.ZCard")
	}
	list := &models.TaskList{
		Tasks:      make([]*models.Task, 0, pq.GetSize()),
		TotalCount: int(totalCount),
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), int(totalCount), pq.GetSize()),
	}
	if totalCount == 0 {
		return list, nil
	}

	start := int64(pq.GetOffset())
	stop := start + int64(pq.GetLimit()) - 1
	var ids []string
	if pq.GetOrderBy() == "oldest" {
		ids, err = r.redisClient.ZRange(ctx, r.indexKey(), start, stop).Result()
	} else {
		ids, err = r.redisClient.ZRevRange(ctx, r.indexKey(), start, stop).Result()
	}
	if err != nil {
		return nil, errors.Wrap(err, "taskRedisRepo.List.ZRange")
	}

	pipe := r.redisClient.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, r.taskKey(id), taskDataField)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, errors.Wrap(err, "taskRedisRepo.List.Exec")
	}
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			// deleted between ZRANGE and HGET
			continue
		}
		task := &models.Task{}
		if err := json.Unmarshal([]byte(data), task); err != nil {
			return nil, errors.Wrap(err, "taskRedisRepo.List.Unmarshal")
		}
		list.Tasks = append(list.Tasks, task)
	}
	return list, nil
}

func (r *taskRedisRepo) Delete(ctx context.Context, taskID string) error {
	pipe := r.redisClient.TxPipeline()
	del := pipe.Del(ctx, r.taskKey(taskID))
	pipe.ZRem(ctx, r.indexKey(), taskID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "taskRedisRepo.Delete.Exec")
	}
	if del.Val() == 0 {
		return tasks.ErrTaskNotFound
	}
	return nil
}

type jobRedisRepo struct {
	redisClient *redis.Client
	logger      logger.Logger
}

func NewJobRedisRepo(redisClient *redis.Client, log logger.Logger) tasks.QueueRepository {
	return &jobRedisRepo{
		redisClient: redisClient,
		logger:      log,
	}
}

func (j *jobRedisRepo) EnqueueJob(ctx context.Context, key string, job *models.TaskJob) error {
	return j.redisClient.LPush(ctx, key, job).Err()
}

func (j *jobRedisRepo) DequeueJob(ctx context.Context, key string, timeout time.Duration) (*models.TaskJob, error) {
	res, err := j.redisClient.BRPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	job := &models.TaskJob{}
	if err = json.Unmarshal([]byte(res[1]), job); err != nil {
		j.logger.Warnf("DequeueJob - dropping malformed job from %s: %v", key, err)
		return nil, fmt.Errorf("error unmarshalling job: %v", err)
	}
	job.StartedAt = time.Now()
	job.Status = models.JobStatusProcessing
	return job, nil
}

func (j *jobRedisRepo) QueueLength(ctx context.Context, key string) (int64, error) {
	n, err := j.redisClient.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

