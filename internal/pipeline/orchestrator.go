package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amankumarsingh77/shorts-assembler/internal/composer"
	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
	"github.com/amankumarsingh77/shorts-assembler/internal/subtitle"
	"github.com/amankumarsingh77/shorts-assembler/internal/tasks"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
)

const termsAmount = 5

const (
	SubtitleProviderEdge    = "edge"
	SubtitleProviderWhisper = "whisper"
)

// Deps are the collaborators of the orchestrator. Materials is keyed by
// VideoParams.Source; Transcriber may be nil when whisper is not installed.
type Deps struct {
	Store       tasks.Repository
	Scripts     ScriptGenerator
	Terms       TermExtractor
	Voice       VoiceSynthesizer
	Transcriber SubtitleSource
	Materials   map[string]MaterialProvider
	Composer    VideoComposer
}

type Orchestrator struct {
	deps             Deps
	taskDir          string
	subtitleProvider string
	logger           logger.Logger
	seed             func() int64
}

func NewOrchestrator(cfg *config.Config, deps Deps, log logger.Logger) *Orchestrator {
	taskDir := cfg.Pipeline.TaskDir
	if taskDir == "" {
		taskDir = "storage/tasks"
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Pipeline.SubtitleProvider))
	if provider == "" {
		provider = SubtitleProviderEdge
	}
	return &Orchestrator{
		deps:             deps,
		taskDir:          taskDir,
		subtitleProvider: provider,
		logger:           log,
		seed:             func() int64 { return time.Now().UnixNano() },
	}
}

// WithSeed fixes the random seed of every task, mainly for tests.
func (o *Orchestrator) WithSeed(seed int64) *Orchestrator {
	o.seed = func() int64 { return seed }
	return o
}

func (o *Orchestrator) TaskDir(taskID string) string {
	return filepath.Join(o.taskDir, taskID)
}

// Start runs the task's stages in order up to and including stopAt and
// returns the stored task. A fatal stage failure marks the task failed and is
// returned as a *StageError.
func (o *Orchestrator) Start(ctx context.Context, taskID string, params models.VideoParams, stopAt models.Stage) (*models.Task, error) {
	// A started task always runs to a terminal state; encoders are never
	// killed by the caller going away.
	ctx = context.WithoutCancel(ctx)
	if stopAt == "" {
		stopAt = models.StageVideo
	}
	o.logger.Infof("start task: %s, stop_at: %s", taskID, stopAt)

	params.Normalize()
	r := &taskRun{
		o:      o,
		taskID: taskID,
		params: params.WithCoercedConcatMode(),
		stopAt: stopAt,
		dir:    o.TaskDir(taskID),
	}
	task, err := r.run(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	o.logger.Infof("task %s finished at stage %s, generated %d videos", taskID, stopAt, len(task.Videos))
	return task, nil
}

type taskRun struct {
	o        *Orchestrator
	taskID   string
	params   models.VideoParams
	stopAt   models.Stage
	dir      string
	progress float64
	task     *models.Task
}

func (r *taskRun) run(ctx context.Context) (*models.Task, error) {
	if err := r.advance(ctx, 5, models.TaskUpdate{}); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create task dir: %w", err)
	}

	script, err := r.generateScript(ctx)
	if err != nil {
		return nil, err
	}
	if r.stopAt == models.StageScript {
		return r.complete(ctx, models.TaskUpdate{Script: &script})
	}
	if err := r.advance(ctx, 10, models.TaskUpdate{Script: &script}); err != nil {
		return nil, err
	}

	var terms []string
	if r.params.Source != models.SourceLocal {
		if terms, err = r.generateTerms(ctx, script); err != nil {
			return nil, err
		}
	}
	if err := r.saveScriptData(script, terms); err != nil {
		r.o.logger.Warnf("task %s: failed to write script.json: %v", r.taskID, err)
	}
	if r.stopAt == models.StageTerms {
		return r.complete(ctx, models.TaskUpdate{Terms: nonNil(terms)})
	}
	if err := r.advance(ctx, 20, models.TaskUpdate{Terms: terms}); err != nil {
		return nil, err
	}

	speech, err := r.generateAudio(ctx, script)
	if err != nil {
		return nil, err
	}
	audio := models.TaskUpdate{AudioFile: &speech.AudioFile, AudioDuration: &speech.Duration}
	if r.stopAt == models.StageAudio {
		return r.complete(ctx, audio)
	}
	if err := r.advance(ctx, 30, audio); err != nil {
		return nil, err
	}

	entries, subtitlePath := r.generateSubtitle(ctx, speech)
	if r.stopAt == models.StageSubtitle {
		return r.complete(ctx, models.TaskUpdate{SubtitlePath: &subtitlePath})
	}
	if err := r.advance(ctx, 40, models.TaskUpdate{SubtitlePath: &subtitlePath}); err != nil {
		return nil, err
	}

	clips, err := r.acquireMaterials(ctx, terms, speech.Duration)
	if err != nil {
		return nil, err
	}
	materials := make([]string, len(clips))
	for i, c := range clips {
		materials[i] = c.Path
	}
	if r.stopAt == models.StageMaterials {
		return r.complete(ctx, models.TaskUpdate{Materials: materials})
	}
	if err := r.advance(ctx, 50, models.TaskUpdate{Materials: materials}); err != nil {
		return nil, err
	}

	finals, combined, err := r.generateVideos(ctx, clips, speech, entries)
	if err != nil {
		return nil, err
	}
	return r.complete(ctx, models.TaskUpdate{Videos: finals, CombinedVideos: combined})
}

func (r *taskRun) generateScript(ctx context.Context) (string, error) {
	r.o.logger.Infof("task %s: generating video script", r.taskID)
	script := strings.TrimSpace(r.params.Script)
	if script == "" {
		if r.o.deps.Scripts == nil {
			return "", newStageError(models.StageScript, ScriptGenerationFailure, errors.New("no script generator configured"))
		}
		generated, err := r.o.deps.Scripts.GenerateScript(ctx, r.params.Subject, r.params.Language, r.params.ParagraphNumber)
		if err != nil {
			return "", newStageError(models.StageScript, ScriptGenerationFailure, err)
		}
		script = strings.TrimSpace(generated)
	}
	if script == "" {
		return "", newStageError(models.StageScript, ScriptGenerationFailure, errors.New("empty script"))
	}
	if strings.Contains(script, "Error: ") {
		return "", newStageError(models.StageScript, ScriptGenerationFailure, fmt.Errorf("generator returned an error: %s", script))
	}
	return script, nil
}

func (r *taskRun) generateTerms(ctx context.Context, script string) ([]string, error) {
	r.o.logger.Infof("task %s: generating video terms", r.taskID)
	terms := cleanTerms(r.params.Terms)
	if len(terms) == 0 {
		if r.o.deps.Terms == nil {
			return nil, newStageError(models.StageTerms, TermGenerationFailure, errors.New("no term extractor configured"))
		}
		generated, err := r.o.deps.Terms.GenerateTerms(ctx, r.params.Subject, script, termsAmount)
		if err != nil {
			return nil, newStageError(models.StageTerms, TermGenerationFailure, err)
		}
		terms = cleanTerms(generated)
	}
	if len(terms) == 0 {
		return nil, newStageError(models.StageTerms, TermGenerationFailure, errors.New("no search terms"))
	}
	return terms, nil
}

type scriptData struct {
	Script      string             `json:"script"`
	SearchTerms []string           `json:"search_terms"`
	Params      models.VideoParams `json:"params"`
}

func (r *taskRun) saveScriptData(script string, terms []string) error {
	data, err := json.MarshalIndent(scriptData{
		Script:      script,
		SearchTerms: nonNil(terms),
		Params:      r.params,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.dir, "script.json"), data, 0644)
}

func (r *taskRun) generateAudio(ctx context.Context, script string) (*models.SpeechResult, error) {
	r.o.logger.Infof("task %s: generating audio", r.taskID)
	if r.o.deps.Voice == nil {
		return nil, newStageError(models.StageAudio, AudioSynthesisFailure, errors.New("no voice synthesizer configured"))
	}
	speech, err := r.o.deps.Voice.Synthesize(ctx, script, r.params.VoiceName, r.params.VoiceRate, filepath.Join(r.dir, "audio.mp3"))
	if err != nil {
		return nil, newStageError(models.StageAudio, AudioSynthesisFailure, err)
	}
	if speech == nil || speech.AudioFile == "" || speech.Duration <= 0 {
		return nil, newStageError(models.StageAudio, AudioSynthesisFailure, errors.New("synthesizer returned no audio"))
	}
	return speech, nil
}

// generateSubtitle never fails the task: on any problem it logs a warning and
// the video is rendered without subtitles.
func (r *taskRun) generateSubtitle(ctx context.Context, speech *models.SpeechResult) ([]models.SubtitleEntry, string) {
	if !r.params.SubtitlesOn() {
		return nil, ""
	}
	r.o.logger.Infof("task %s: generating subtitle, provider: %s", r.taskID, r.o.subtitleProvider)

	entries, err := r.subtitleEntries(ctx, speech)
	if err != nil {
		r.o.logger.Warnf("task %s: %v", r.taskID, newStageError(models.StageSubtitle, SubtitleGenerationFailure, err))
		return nil, ""
	}
	path := filepath.Join(r.dir, "subtitle.srt")
	if err := subtitle.WriteFile(path, entries); err != nil {
		r.o.logger.Warnf("task %s: %v", r.taskID, newStageError(models.StageSubtitle, SubtitleGenerationFailure, err))
		return entries, ""
	}
	return entries, path
}

func (r *taskRun) subtitleEntries(ctx context.Context, speech *models.SpeechResult) ([]models.SubtitleEntry, error) {
	provider := r.o.subtitleProvider
	if provider == SubtitleProviderEdge {
		if entries := subtitle.Sanitize(speech.Timings); len(entries) > 0 {
			return entries, nil
		}
		r.o.logger.Warnf("task %s: voice returned no timings, fallback to whisper", r.taskID)
		provider = SubtitleProviderWhisper
	}
	if provider != SubtitleProviderWhisper {
		return nil, fmt.Errorf("unknown subtitle provider %q", provider)
	}
	if r.o.deps.Transcriber == nil {
		return nil, errors.New("no speech-to-text source configured")
	}
	entries, err := r.o.deps.Transcriber.Transcribe(ctx, speech.AudioFile)
	if err != nil {
		return nil, err
	}
	entries = subtitle.Sanitize(entries)
	if len(entries) == 0 {
		return nil, errors.New("transcription produced no subtitle entries")
	}
	return entries, nil
}

func (r *taskRun) acquireMaterials(ctx context.Context, terms []string, audioDuration float64) ([]models.RawClip, error) {
	r.o.logger.Infof("task %s: acquiring materials from %s", r.taskID, r.params.Source)
	provider, ok := r.o.deps.Materials[r.params.Source]
	if !ok || provider == nil {
		return nil, newStageError(models.StageMaterials, MaterialAcquisitionFailure, fmt.Errorf("no material provider for source %q", r.params.Source))
	}
	clips, err := provider.Materials(ctx, MaterialRequest{
		TaskID:      r.taskID,
		TaskDir:     r.dir,
		Terms:       terms,
		Params:      r.params,
		MinDuration: audioDuration * float64(r.params.Count),
	})
	if err != nil {
		return nil, newStageError(models.StageMaterials, MaterialAcquisitionFailure, err)
	}
	if len(clips) == 0 {
		return nil, newStageError(models.StageMaterials, MaterialAcquisitionFailure, errors.New("no valid materials found"))
	}
	return clips, nil
}

// generateVideos combines and renders every output. Each output index draws
// from its own random source so outputs differ from one another.
func (r *taskRun) generateVideos(ctx context.Context, clips []models.RawClip, speech *models.SpeechResult, entries []models.SubtitleEntry) ([]string, []string, error) {
	if r.o.deps.Composer == nil {
		return nil, nil, newStageError(models.StageVideo, RenderFailure, errors.New("no video composer configured"))
	}
	seed := r.o.seed()
	count := r.params.Count
	step := 50.0 / float64(count) / 2
	progress := 50.0

	finals := make([]string, 0, count)
	combined := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		rnd := rand.New(rand.NewSource(seed + int64(i)))

		combinedPath := filepath.Join(r.dir, fmt.Sprintf("combined-%d.mp4", i))
		r.o.logger.Infof("task %s: combining video %d => %s", r.taskID, i, combinedPath)
		if _, err := r.o.deps.Composer.Combine(ctx, composer.CombineInput{
			Index:      i,
			Clips:      clips,
			Target:     speech.Duration,
			Params:     r.params,
			OutputPath: combinedPath,
			Rand:       rnd,
		}); err != nil {
			return nil, nil, newStageError(models.StageVideo, RenderFailure, fmt.Errorf("combine %d: %w", i, err))
		}
		progress += step
		if err := r.advance(ctx, progress, models.TaskUpdate{}); err != nil {
			return nil, nil, err
		}

		finalPath := filepath.Join(r.dir, fmt.Sprintf("final-%d.mp4", i))
		r.o.logger.Infof("task %s: generating video %d => %s", r.taskID, i, finalPath)
		res, err := r.o.deps.Composer.Render(ctx, composer.RenderInput{
			Index:      i,
			VideoPath:  combinedPath,
			AudioFile:  speech.AudioFile,
			Duration:   speech.Duration,
			Subtitles:  entries,
			Params:     r.params,
			OutputPath: finalPath,
			Rand:       rnd,
		})
		if err != nil {
			return nil, nil, newStageError(models.StageVideo, RenderFailure, fmt.Errorf("render %d: %w", i, err))
		}
		for _, w := range res.Warnings {
			kind := SubtitleGenerationFailure
			if errors.Is(w, composer.ErrBackgroundMusic) {
				kind = BackgroundMusicFailure
			}
			r.o.logger.Warnf("task %s: %v", r.taskID, newStageError(models.StageVideo, kind, w))
		}
		progress += step
		if err := r.advance(ctx, progress, models.TaskUpdate{}); err != nil {
			return nil, nil, err
		}

		finals = append(finals, finalPath)
		combined = append(combined, combinedPath)
	}
	return finals, combined, nil
}

// advance stores u with the task still processing. Progress only moves up.
func (r *taskRun) advance(ctx context.Context, progress float64, u models.TaskUpdate) error {
	if progress > r.progress {
		r.progress = progress
	}
	p := r.progress
	state := models.TaskStateProcessing
	u.State, u.Progress = &state, &p
	return r.store(ctx, u)
}

func (r *taskRun) complete(ctx context.Context, u models.TaskUpdate) (*models.Task, error) {
	r.progress = 100
	p := r.progress
	state := models.TaskStateComplete
	u.State, u.Progress = &state, &p
	if err := r.store(ctx, u); err != nil {
		return nil, err
	}
	return r.task, nil
}

func (r *taskRun) store(ctx context.Context, u models.TaskUpdate) error {
	task, err := r.o.deps.Store.Update(ctx, r.taskID, u)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", r.taskID, err)
	}
	r.task = task
	return nil
}

// fail records err on the task. The store write ignores cancellation of ctx so
// a worker shutting down still leaves the task in a terminal state.
func (r *taskRun) fail(ctx context.Context, err error) (*models.Task, error) {
	r.o.logger.Errorf("task %s failed: %v", r.taskID, err)
	if errors.Is(err, tasks.ErrTaskNotFound) || errors.Is(err, tasks.ErrTaskTerminal) {
		return nil, err
	}
	state := models.TaskStateFailed
	msg := err.Error()
	task, uerr := r.o.deps.Store.Update(context.WithoutCancel(ctx), r.taskID, models.TaskUpdate{State: &state, Error: &msg})
	if uerr != nil {
		r.o.logger.Errorf("task %s: failed to record failure: %v", r.taskID, uerr)
		return nil, err
	}
	return task, err
}

func cleanTerms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
