// Package handler provides the HTTP handlers of the posts feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"microblog/internal/feature/posts/domain/entity"
	"microblog/internal/feature/posts/transport/http/dto"
	"microblog/internal/feature/posts/usecase"
	shareddto "microblog/internal/platform/http/dto"
	jwtmw "microblog/internal/platform/jwt"
)

// LedgerUsecase is the write side used by the handler.
// Following Go convention, the interface is defined by the consumer (handler).
type LedgerUsecase interface {
	CreatePost(ctx context.Context, authorID uint, body string) (*entity.Post, error)
	DeletePost(ctx context.Context, authorID, postID uint) error
}

// FeedUsecase is the read side used by the handler.
type FeedUsecase interface {
	FollowedPosts(ctx context.Context, viewerID uint, page, perPage int) (*entity.Page, error)
	Explore(ctx context.Context, page, perPage int) (*entity.Page, error)
}

// PostHandler handles post creation, removal and the timelines.
type PostHandler struct {
	ledger LedgerUsecase
	feed   FeedUsecase
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(ledger LedgerUsecase, feed FeedUsecase) *PostHandler {
	return &PostHandler{ledger: ledger, feed: feed}
}

// PageParams reads the page and per_page query parameters.
// Invalid values become 0 and are normalized by the usecase.
func PageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return page, perPage
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, shareddto.ErrorResponse{Error: "unauthorized"})
		return
	}
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "invalid request"})
		return
	}

	post, err := h.ledger.CreatePost(c.Request.Context(), userID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyBody), errors.Is(err, usecase.ErrBodyTooLong):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("failed to create post", "error", err, "user_id", userID)
			c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, dto.NewPostResponse(*post))
}

// DeletePost handles DELETE /posts/:id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, shareddto.ErrorResponse{Error: "unauthorized"})
		return
	}
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || postID == 0 {
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "invalid post id"})
		return
	}

	if err := h.ledger.DeletePost(c.Request.Context(), userID, uint(postID)); err != nil {
		switch {
		case errors.Is(err, usecase.ErrPostNotFound):
			c.JSON(http.StatusNotFound, shareddto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrNotPostOwner):
			c.JSON(http.StatusForbidden, shareddto.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("failed to delete post", "error", err, "user_id", userID, "post_id", postID)
			c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Feed handles GET /feed, the authenticated user's home timeline.
func (h *PostHandler) Feed(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, shareddto.ErrorResponse{Error: "unauthorized"})
		return
	}
	page, perPage := PageParams(c)

	p, err := h.feed.FollowedPosts(c.Request.Context(), userID, page, perPage)
	if err != nil {
		slog.Error("failed to load feed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(p))
}

// Explore handles GET /explore.
func (h *PostHandler) Explore(c *gin.Context) {
	page, perPage := PageParams(c)

	p, err := h.feed.Explore(c.Request.Context(), page, perPage)
	if err != nil {
		slog.Error("failed to load explore page", "error", err)
		c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(p))
}
