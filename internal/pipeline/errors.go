package pipeline

import (
	"fmt"

	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

type ErrorKind string

const (
	ScriptGenerationFailure    ErrorKind = "script_generation_failure"
	TermGenerationFailure      ErrorKind = "term_generation_failure"
	AudioSynthesisFailure      ErrorKind = "audio_synthesis_failure"
	SubtitleGenerationFailure  ErrorKind = "subtitle_generation_failure"
	MaterialAcquisitionFailure ErrorKind = "material_acquisition_failure"
	RenderFailure              ErrorKind = "render_failure"
	BackgroundMusicFailure     ErrorKind = "background_music_failure"
)

// Fatal reports whether a failure of this kind ends the task.
func (k ErrorKind) Fatal() bool {
	switch k {
	case SubtitleGenerationFailure, BackgroundMusicFailure:
		return false
	default:
		return true
	}
}

type StageError struct {
	Stage models.Stage
	Kind  ErrorKind
	Err   error
}

func newStageError(stage models.Stage, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) IsFatal() bool {
	return e.Kind.Fatal()
}
