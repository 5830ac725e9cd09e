package repository

import (
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// NewTaskStore picks the task store for backend. Only the client the backend
// needs has to be non-nil.
func NewTaskStore(backend string, redisClient *redis.Client, db *sqlx.DB, keyPrefix string) (tasks.Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewTaskMemoryRepo(), nil
	case BackendRedis, "":
		if redisClient == nil {
			return nil, fmt.Errorf("redis task store needs a redis client")
		}
		return NewTaskRedisRepo(redisClient, keyPrefix), nil
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres task store needs a database")
		}
		return NewTaskRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown task store backend %q", backend)
	}
}
