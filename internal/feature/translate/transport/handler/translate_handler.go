// Package handler provides the HTTP handler of the translate feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"microblog/internal/feature/translate/domain/entity"
	"microblog/internal/feature/translate/transport/http/dto"
	"microblog/internal/feature/translate/usecase"
	shareddto "microblog/internal/platform/http/dto"
)

// TranslateUsecase defines the translation surface used by the handler.
// Following Go convention, the interface is defined by the consumer (handler).
type TranslateUsecase interface {
	Translate(ctx context.Context, text, source, dest string) (*entity.Translation, error)
}

// TranslateHandler handles translation requests.
type TranslateHandler struct {
	uc TranslateUsecase
}

// NewTranslateHandler creates a TranslateHandler.
func NewTranslateHandler(uc TranslateUsecase) *TranslateHandler {
	return &TranslateHandler{uc: uc}
}

// Translate translates a piece of text.
//
// Endpoint: POST /translate
// Content-Type: application/json
func (h *TranslateHandler) Translate(c *gin.Context) {
	var req dto.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("translate request validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "text and dest_language are required"})
		return
	}

	t, err := h.uc.Translate(c.Request.Context(), req.Text, req.SourceLanguage, req.DestLanguage)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyText),
			errors.Is(err, usecase.ErrTextTooLong),
			errors.Is(err, usecase.ErrUnsupportedLanguage):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrTranslatorUnavailable):
			slog.Error("translation failed", "error", err, "dest", req.DestLanguage)
			c.JSON(http.StatusBadGateway, shareddto.ErrorResponse{Error: "translation failed"})
		default:
			slog.Error("translation failed", "error", err)
			c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.TranslateResponse{Text: t.Translated})
}
