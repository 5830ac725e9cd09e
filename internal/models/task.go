package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type TaskState string

const (
	TaskStatePending    TaskState = "pending"
	TaskStateProcessing TaskState = "processing"
	TaskStateComplete   TaskState = "complete"
	TaskStateFailed     TaskState = "failed"
)

func (s TaskState) Terminal() bool {
	return s == TaskStateComplete || s == TaskStateFailed
}

type Stage string

const (
	StageScript    Stage = "script"
	StageTerms     Stage = "terms"
	StageAudio     Stage = "audio"
	StageSubtitle  Stage = "subtitle"
	StageMaterials Stage = "materials"
	StageVideo     Stage = "video"
)

var Stages = []Stage{StageScript, StageTerms, StageAudio, StageSubtitle, StageMaterials, StageVideo}

// ParseStage accepts a stage name or the empty string, which means "run every stage".
func ParseStage(s string) (Stage, error) {
	if s == "" {
		return StageVideo, nil
	}
	for _, stage := range Stages {
		if string(stage) == s {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// StringList is stored as a JSON array in SQL columns and redis hash fields.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}
	return json.Unmarshal(data, (*[]string)(l))
}

type Task struct {
	TaskID         string     `json:"task_id" db:"task_id" redis:"task_id"`
	State          TaskState  `json:"state" db:"state" redis:"state"`
	Progress       float64    `json:"progress" db:"progress" redis:"progress"`
	Script         string     `json:"script,omitempty" db:"script" redis:"script"`
	Terms          StringList `json:"terms,omitempty" db:"terms" redis:"terms"`
	AudioFile      string     `json:"audio_file,omitempty" db:"audio_file" redis:"audio_file"`
	AudioDuration  float64    `json:"audio_duration,omitempty" db:"audio_duration" redis:"audio_duration"`
	SubtitlePath   string     `json:"subtitle_path,omitempty" db:"subtitle_path" redis:"subtitle_path"`
	Materials      StringList `json:"materials,omitempty" db:"materials" redis:"materials"`
	CombinedVideos StringList `json:"combined_videos,omitempty" db:"combined_videos" redis:"combined_videos"`
	Videos         StringList `json:"videos,omitempty" db:"videos" redis:"videos"`
	Error          string     `json:"error,omitempty" db:"error" redis:"error"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at" redis:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at" redis:"updated_at"`
}

type TaskList struct {
	Tasks      []*Task `json:"tasks"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	HasMore    bool    `json:"has_more"`
}

// TaskUpdate is the field set of one atomic task update. Nil fields are left
// untouched.
type TaskUpdate struct {
	State          *TaskState
	Progress       *float64
	Script         *string
	Terms          []string
	AudioFile      *string
	AudioDuration  *float64
	SubtitlePath   *string
	Materials      []string
	CombinedVideos []string
	Videos         []string
	Error          *string
}

// Apply merges u into t. Progress never moves backwards.
func (u TaskUpdate) Apply(t *Task) {
	if u.State != nil {
		t.State = *u.State
	}
	if u.Progress != nil && *u.Progress > t.Progress {
		t.Progress = *u.Progress
	}
	if t.Progress > 100 {
		t.Progress = 100
	}
	if u.Script != nil {
		t.Script = *u.Script
	}
	if u.Terms != nil {
		t.Terms = append(StringList(nil), u.Terms...)
	}
	if u.AudioFile != nil {
		t.AudioFile = *u.AudioFile
	}
	if u.AudioDuration != nil {
		t.AudioDuration = *u.AudioDuration
	}
	if u.SubtitlePath != nil {
		t.SubtitlePath = *u.SubtitlePath
	}
	if u.Materials != nil {
		t.Materials = append(StringList(nil), u.Materials...)
	}
	if u.CombinedVideos != nil {
		t.CombinedVideos = append(StringList(nil), u.CombinedVideos...)
	}
	if u.Videos != nil {
		t.Videos = append(StringList(nil), u.Videos...)
	}
	if u.Error != nil {
		t.Error = *u.Error
	}
}

// Clone returns a deep copy so callers never share slices with a store.
func (t *Task) Clone() *Task {
	c := *t
	c.Terms = append(StringList(nil), t.Terms...)
	c.Materials = append(StringList(nil), t.Materials...)
	c.CombinedVideos = append(StringList(nil), t.CombinedVideos...)
	c.Videos = append(StringList(nil), t.Videos...)
	return &c
}
