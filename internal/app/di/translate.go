package di

import (
	"context"
	"log/slog"
	"time"

	"microblog/internal/feature/translate/adapters/gemini"
	"microblog/internal/feature/translate/usecase"
	infrahttp "microblog/internal/platform/http"
)

// geminiTimeout bounds one translation request.
const geminiTimeout = 20 * time.Second

// NewTranslator creates the Gemini translator with a dedicated HTTP client.
// It returns nil when translation is disabled or the client cannot be created,
// in which case the usecase reports the service as unavailable.
func NewTranslator(ctx context.Context, enabled bool) usecase.Translator {
	if !enabled {
		return nil
	}
	t, err := gemini.NewGeminiTranslator(ctx, infrahttp.NewHTTPClient(geminiTimeout))
	if err != nil {
		slog.Warn("Gemini unavailable; translation is disabled", "error", err)
		return nil
	}
	return t
}
