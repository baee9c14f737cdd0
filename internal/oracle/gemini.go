package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Compile-time interface check
var _ Oracle = (*Gemini)(nil)

// ContentGenerator is the subset of *genai.GenerativeModel used by Gemini.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini implements Oracle using Google's Gemini API.
type Gemini struct {
	client   *genai.Client
	model    string
	newModel func(system string) ContentGenerator
}

// NewGemini creates a Gemini-backed oracle. Close releases the client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  model,
		newModel: func(system string) ContentGenerator {
			m := client.GenerativeModel(model)
			m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
			return m
		},
	}, nil
}

// Complete generates a single response. A model handle is built per call so
// concurrent sessions never share mutable model settings.
func (g *Gemini) Complete(ctx context.Context, p Prompt) (string, error) {
	resp, err := g.newModel(p.System).GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini generation failed: empty response")
	}
	return text, nil
}

// ModelName returns the Gemini model name.
func (g *Gemini) ModelName() string {
	return g.model
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}
