// Package handler provides the HTTP handlers of the search feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"microblog/internal/feature/posts/domain/entity"
	posthandler "microblog/internal/feature/posts/transport/handler"
	"microblog/internal/feature/search/transport/http/dto"
	"microblog/internal/feature/search/usecase"
	shareddto "microblog/internal/platform/http/dto"
	jwtmw "microblog/internal/platform/jwt"
)

// SearchUsecase is the search surface used by the handler.
type SearchUsecase interface {
	Search(ctx context.Context, expr string, page, perPage int) ([]entity.Post, int64, error)
	StartReindex(ctx context.Context) error
}

// SearchHandler serves keyword search and index rebuilds.
type SearchHandler struct {
	uc SearchUsecase
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(uc SearchUsecase) *SearchHandler {
	return &SearchHandler{uc: uc}
}

// Search handles GET /search?q=...&page=...
func (h *SearchHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	page, perPage := usecase.NormalizePaging(posthandler.PageParams(c))

	posts, total, err := h.uc.Search(c.Request.Context(), q, page, perPage)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyQuery):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrIndexUnavailable):
			slog.Warn("search index unavailable", "error", err)
			c.JSON(http.StatusServiceUnavailable, shareddto.ErrorResponse{Error: "search is temporarily unavailable"})
		default:
			slog.Error("search failed", "error", err, "query", q)
			c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.NewSearchResponse(q, posts, page, perPage, total))
}

// Reindex handles POST /admin/reindex. The rebuild continues after the response is sent,
// so the route answers 202 and progress is reported in the logs.
// The router admits operators only.
func (h *SearchHandler) Reindex(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, shareddto.ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.uc.StartReindex(c.Request.Context()); err != nil {
		if errors.Is(err, usecase.ErrReindexRunning) {
			c.JSON(http.StatusConflict, shareddto.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("reindex failed to start", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		return
	}
	slog.Info("reindex started", "user_id", userID)
	c.JSON(http.StatusAccepted, shareddto.MessageResponse{Message: "reindex started"})
}
