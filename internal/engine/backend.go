package engine

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	apperrors "github.com/tatianab/grave-master/internal/errors"
)

//go:embed prompts/system.txt
var systemPrompt string

//go:embed prompts/narrate.txt
var narratePrompt string

var narrateTemplate = template.Must(template.New("narrate").Parse(narratePrompt))

// GenerationRequest is everything the narrator sees for one turn.
type GenerationRequest struct {
	NarrativeContext string
	StateSnapshot    string
	UserInput        string
}

// Generator produces the narrative response for a turn. Failures should be
// errors.CodeBackend so the turn can be retried.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// RenderPrompt fills the narration template.
func RenderPrompt(req GenerationRequest) (string, error) {
	var buf bytes.Buffer
	if err := narrateTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GeminiBackend narrates with a Gemini model.
type GeminiBackend struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiBackend(ctx context.Context, apiKey, modelName string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	return &GeminiBackend{
		client: client,
		model:  model,
	}, nil
}

func (b *GeminiBackend) Close() {
	b.client.Close()
}

func (b *GeminiBackend) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	prompt, err := RenderPrompt(req)
	if err != nil {
		return "", err
	}

	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeBackend, "generation failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.New(apperrors.CodeBackend, "no content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", apperrors.New(apperrors.CodeBackend, fmt.Sprintf("unexpected response from Gemini: %d non-text parts", len(resp.Candidates[0].Content.Parts)))
	}
	return out, nil
}
