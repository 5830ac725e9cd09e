package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
)

type fakeModel struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.prompts = append(f.prompts, string(parts[0].(genai.Text)))
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(reply)}}}},
	}, nil
}

func TestGenerateScriptCleansOutput(t *testing.T) {
	model := &fakeModel{replies: []string{"# Title\n\n**Cats** purr (softly) when calm.\n\n\nThey also purr when hurt.\n\nExtra paragraph."}}
	s := &GeminiService{model: model, logger: logger.NewNop()}

	script, err := s.GenerateScript(context.Background(), "cats", "en-US", 2)
	if err != nil {
		t.Fatalf("GenerateScript() error = %v", err)
	}
	want := "Title\n\nCats purr  when calm."
	if script != want {
		t.Fatalf("script = %q, want %q", script, want)
	}
	if !strings.Contains(model.prompts[0], "video subject: cats") || !strings.Contains(model.prompts[0], "language: en-US") {
		t.Fatalf("prompt = %q", model.prompts[0])
	}
}

func TestGenerateTerms(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
		want    string
		wantErr bool
	}{
		{name: "plain array", replies: []string{`["cat", "kitten purring"]`}, want: "cat|kitten purring"},
		{name: "fenced", replies: []string{"```json\n[\"cat\", \" \", \"lazy cat\"]\n```"}, want: "cat|lazy cat"},
		{name: "retry", replies: []string{"no idea", `["cat"]`}, want: "cat"},
		{name: "truncated to amount", replies: []string{`["a","b","c","d","e","f"]`}, want: "a|b|c|d|e"},
		{name: "never parses", replies: []string{"sorry"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &GeminiService{model: &fakeModel{replies: tt.replies}, logger: logger.NewNop()}
			terms, err := s.GenerateTerms(context.Background(), "cats", "script", 5)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("GenerateTerms() = %v, want error", terms)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateTerms() error = %v", err)
			}
			if got := strings.Join(terms, "|"); got != tt.want {
				t.Fatalf("terms = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateScriptPropagatesModelError(t *testing.T) {
	s := &GeminiService{model: &fakeModel{err: errors.New("quota exceeded")}, logger: logger.NewNop()}
	if _, err := s.GenerateScript(context.Background(), "cats", "", 1); err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("GenerateScript() error = %v", err)
	}
}

func TestExtractTextRejectsEmptyResponse(t *testing.T) {
	if _, err := extractText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("extractText() accepted empty response")
	}
}
