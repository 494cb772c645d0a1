// Package handler provides the HTTP handlers of the social graph.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"microblog/internal/feature/graph/usecase"
	shareddto "microblog/internal/platform/http/dto"
	jwtmw "microblog/internal/platform/jwt"
)

// GraphUsecase is the subset of the graph used over HTTP.
type GraphUsecase interface {
	FollowByUsername(ctx context.Context, followerID uint, username string) error
	UnfollowByUsername(ctx context.Context, followerID uint, username string) error
}

// GraphHandler handles follow and unfollow requests.
type GraphHandler struct {
	uc GraphUsecase
}

// NewGraphHandler creates a GraphHandler.
func NewGraphHandler(uc GraphUsecase) *GraphHandler {
	return &GraphHandler{uc: uc}
}

// Follow handles POST /follow/:username.
func (h *GraphHandler) Follow(c *gin.Context) {
	h.handle(c, h.uc.FollowByUsername, "following")
}

// Unfollow handles POST /unfollow/:username.
func (h *GraphHandler) Unfollow(c *gin.Context) {
	h.handle(c, h.uc.UnfollowByUsername, "not following")
}

func (h *GraphHandler) handle(c *gin.Context, op func(context.Context, uint, string) error, verb string) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, shareddto.ErrorResponse{Error: "unauthorized"})
		return
	}
	username := c.Param("username")

	if err := op(c.Request.Context(), userID, username); err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			c.JSON(http.StatusNotFound, shareddto.ErrorResponse{Error: "user " + username + " not found"})
		case errors.Is(err, usecase.ErrSelfFollow):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		default:
			slog.Error("graph update failed", "error", err, "user_id", userID, "target", username)
			c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, shareddto.MessageResponse{Message: "you are " + verb + " " + username})
}
