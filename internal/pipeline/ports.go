package pipeline

import (
	"context"

	"github.com/amankumarsingh77/shorts-assembler/internal/composer"
	"github.com/amankumarsingh77/shorts-assembler/internal/models"
)

type ScriptGenerator interface {
	GenerateScript(ctx context.Context, subject, language string, paragraphs int) (string, error)
}

type TermExtractor interface {
	GenerateTerms(ctx context.Context, subject, script string, amount int) ([]string, error)
}

// VoiceSynthesizer writes narration for text to outFile.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string, rate float64, outFile string) (*models.SpeechResult, error)
}

// SubtitleSource produces timed entries from a narration file.
type SubtitleSource interface {
	Transcribe(ctx context.Context, audioFile string) ([]models.SubtitleEntry, error)
}

type MaterialRequest struct {
	TaskID  string
	TaskDir string
	Terms   []string
	Params  models.VideoParams
	// MinDuration is the footage needed to cover every output.
	MinDuration float64
}

type MaterialProvider interface {
	Materials(ctx context.Context, req MaterialRequest) ([]models.RawClip, error)
}

// VideoComposer is implemented by composer.Compositor.
type VideoComposer interface {
	Combine(ctx context.Context, in composer.CombineInput) (*composer.AssemblyResult, error)
	Render(ctx context.Context, in composer.RenderInput) (*composer.RenderResult, error)
}
