package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/amankumarsingh77/shorts-assembler/internal/config"
	"github.com/amankumarsingh77/shorts-assembler/pkg/logger"
)

const maxTermAttempts = 3

type textModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiService writes narration scripts and stock footage search terms.
type GeminiService struct {
	client *genai.Client
	model  textModel
	logger logger.Logger
}

func NewGeminiService(ctx context.Context, cfg *config.Config, log logger.Logger) (*GeminiService, error) {
	if cfg.LLM.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.LLM.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("could not create new genai client: %w", err)
	}
	name := cfg.LLM.Model
	if name == "" {
		name = "gemini-2.5-flash"
	}
	return &GeminiService{
		client: client,
		model:  client.GenerativeModel(name),
		logger: log,
	}, nil
}

func (s *GeminiService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *GeminiService) GenerateScript(ctx context.Context, subject, language string, paragraphs int) (string, error) {
	s.logger.Infof("Generating script for subject: %s", subject)
	res, err := s.model.GenerateContent(ctx, genai.Text(scriptPrompt(subject, language, paragraphs)))
	if err != nil {
		return "", fmt.Errorf("gemini content generation failed: %w", err)
	}
	text, err := extractText(res)
	if err != nil {
		return "", err
	}
	script := cleanScript(text, paragraphs)
	if script == "" {
		return "", fmt.Errorf("gemini returned an empty script")
	}
	return script, nil
}

func (s *GeminiService) GenerateTerms(ctx context.Context, subject, script string, amount int) ([]string, error) {
	s.logger.Infof("Generating %d search terms for subject: %s", amount, subject)
	prompt := termsPrompt(subject, script, amount)

	var lastErr error
	for attempt := 1; attempt <= maxTermAttempts; attempt++ {
		res, err := s.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, fmt.Errorf("gemini content generation failed: %w", err)
		}
		text, err := extractText(res)
		if err != nil {
			return nil, err
		}
		terms, err := parseTerms(text)
		if err == nil && len(terms) > 0 {
			if len(terms) > amount {
				terms = terms[:amount]
			}
			return terms, nil
		}
		lastErr = err
		s.logger.Warnf("GenerateTerms - attempt %d returned unusable terms: %q", attempt, text)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no terms in response")
	}
	return nil, fmt.Errorf("failed to generate search terms: %w", lastErr)
}

func scriptPrompt(subject, language string, paragraphs int) string {
	if paragraphs < 1 {
		paragraphs = 1
	}
	var b strings.Builder
	b.WriteString("# Role: Video Script Generator\n\n")
	b.WriteString("## Goals:\nGenerate a script for a short video, depending on the subject of the video.\n\n")
	b.WriteString("## Constraints:\n")
	fmt.Fprintf(&b, "1. the script is to be returned as a string with %d paragraphs.\n", paragraphs)
	b.WriteString("2. do not under any circumstance reference this prompt in your response.\n")
	b.WriteString("3. get straight to the point, don't start with unnecessary things like, \"welcome to this video\".\n")
	b.WriteString("4. you must not include any type of markdown or formatting in the script, never use a title.\n")
	b.WriteString("5. only return the raw content of the script.\n")
	b.WriteString("6. do not include \"voiceover\", \"narrator\" or similar indicators of what should be spoken at the beginning of each paragraph or line.\n")
	b.WriteString("7. you must not mention the prompt, or anything about the script itself.\n")
	b.WriteString("8. respond in the same language as the video subject.\n\n")
	fmt.Fprintf(&b, "# Initialization:\n- video subject: %s\n- number of paragraphs: %d\n", subject, paragraphs)
	if language != "" {
		fmt.Fprintf(&b, "- language: %s\n", language)
	}
	return b.String()
}

func termsPrompt(subject, script string, amount int) string {
	return fmt.Sprintf(`# Role: Video Search Terms Generator

## Goals:
Generate %d search terms for stock videos, depending on the subject of a video.

## Constraints:
1. the search terms are to be returned as a json-array of strings.
2. each search term should consist of 1-3 words, always add the main subject of the video.
3. you must only return the json-array of strings. you must not return anything else.
4. the search terms must be related to the subject of the video.
5. reply with english search terms only.

## Output Example:
["search term 1", "search term 2", "search term 3","search term 4","search term 5"]

## Context:
### Video Subject
%s

### Video Script
%s
`, amount, subject, script)
}

var (
	markdownNoise = regexp.MustCompile(`[*#]`)
	bracketed     = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	jsonArray     = regexp.MustCompile(`(?s)\[.*\]`)
	blankLines    = regexp.MustCompile(`\n\s*\n+`)
)

// cleanScript strips markdown and stage directions and keeps at most
// paragraphs paragraphs.
func cleanScript(text string, paragraphs int) string {
	text = markdownNoise.ReplaceAllString(text, "")
	text = bracketed.ReplaceAllString(text, "")
	parts := blankLines.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if paragraphs > 0 && len(out) > paragraphs {
		out = out[:paragraphs]
	}
	return strings.Join(out, "\n\n")
}

// parseTerms reads a JSON array of strings, also when the model wrapped it in
// prose or a code fence.
func parseTerms(text string) ([]string, error) {
	var terms []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &terms); err != nil {
		match := jsonArray.FindString(text)
		if match == "" {
			return nil, fmt.Errorf("no json array in response")
		}
		if err := json.Unmarshal([]byte(match), &terms); err != nil {
			return nil, fmt.Errorf("invalid json array: %w", err)
		}
	}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func extractText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	if textPart, ok := res.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(textPart), nil
	}

	return "", fmt.Errorf("gemini response did not contain text")
}
