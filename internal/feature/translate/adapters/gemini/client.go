// Package gemini provides a translation client backed by the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"microblog/internal/feature/translate/usecase"
)

const (
	// DefaultModel is the Gemini model used for translations.
	DefaultModel = "gemini-2.5-flash"
)

// GeminiTranslator sends translation prompts to Gemini.
type GeminiTranslator struct {
	client *genai.Client
	model  string
}

var _ usecase.Translator = (*GeminiTranslator)(nil)

// NewGeminiTranslator creates a GeminiTranslator using application default credentials.
// GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_LOCATION must be set,
// or GOOGLE_API_KEY for the Gemini Developer API. A nil hc uses the library's default client.
func NewGeminiTranslator(ctx context.Context, hc *http.Client) (*GeminiTranslator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{HTTPClient: hc})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiTranslator{client: client, model: DefaultModel}, nil
}

// Translate returns the model's answer to prompt.
func (g *GeminiTranslator) Translate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	return resp.Text(), nil
}
