package models

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// TaskJob is the queue message that carries one submitted task to a worker.
type TaskJob struct {
	TaskID      string      `json:"task_id" redis:"task_id" validate:"required"`
	Params      VideoParams `json:"params" redis:"params" validate:"required"`
	StopAt      Stage       `json:"stop_at,omitempty" redis:"stop_at" validate:"omitempty"`
	Status      JobStatus   `json:"status" redis:"status" validate:"required"`
	EnqueuedAt  time.Time   `json:"enqueued_at" redis:"enqueued_at" validate:"omitempty"`
	StartedAt   time.Time   `json:"started_at" redis:"started_at" validate:"omitempty"`
	CompletedAt time.Time   `json:"completed_at" redis:"completed_at" validate:"omitempty"`
}

func (j *TaskJob) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

func (j *TaskJob) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, j)
}
