// Package handler provides the HTTP handlers of the account feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"microblog/internal/feature/account/domain/entity"
	"microblog/internal/feature/account/transport/http/dto"
	"microblog/internal/feature/account/usecase"
	graphusecase "microblog/internal/feature/graph/usecase"
	postentity "microblog/internal/feature/posts/domain/entity"
	posthandler "microblog/internal/feature/posts/transport/handler"
	postdto "microblog/internal/feature/posts/transport/http/dto"
	shareddto "microblog/internal/platform/http/dto"
	jwtmw "microblog/internal/platform/jwt"
)

// AccountUsecase defines the account operations used over HTTP.
// Following Go convention, the interface is defined by the consumer (handler).
type AccountUsecase interface {
	Register(ctx context.Context, username, email, password string) (*entity.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Profile(ctx context.Context, username string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uint, username, aboutMe string) (*entity.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// FollowCounter returns a user's follower and following counts.
type FollowCounter interface {
	Counts(ctx context.Context, userID uint) (graphusecase.Counts, error)
}

// UserPostLister pages through one author's posts.
type UserPostLister interface {
	UserPosts(ctx context.Context, authorID uint, page, perPage int) (*postentity.Page, error)
}

// AccountHandler handles registration, login, profiles and password resets.
type AccountHandler struct {
	accounts AccountUsecase
	graph    FollowCounter
	posts    UserPostLister
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts AccountUsecase, graph FollowCounter, posts UserPostLister) *AccountHandler {
	return &AccountHandler{accounts: accounts, graph: graph, posts: posts}
}

func internalError(c *gin.Context, msg string, err error, args ...any) {
	slog.Error(msg, append([]any{"error", err}, args...)...)
	c.JSON(http.StatusInternalServerError, shareddto.ErrorResponse{Error: "internal server error"})
}

// Register handles POST /register.
// - invalid body or field bounds: 400
// - duplicate username or email: 409
func (h *AccountHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUsernameTaken), errors.Is(err, usecase.ErrEmailTaken):
			c.JSON(http.StatusConflict, shareddto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, usecase.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		default:
			internalError(c, "register failed", err, "username", req.Username)
		}
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// Login handles POST /login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "invalid request"})
		return
	}

	token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("login failed", "username", req.Username, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, shareddto.ErrorResponse{Error: err.Error()})
			return
		}
		internalError(c, "login failed", err, "username", req.Username)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}

// RequestPasswordReset handles POST /password_reset_request.
// The response is the same whether or not the address is registered.
func (h *AccountHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "invalid request"})
		return
	}
	if err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		internalError(c, "password reset request failed", err)
		return
	}
	c.JSON(http.StatusAccepted, shareddto.MessageResponse{Message: "check your email for the instructions to reset your password"})
}

// ResetPassword handles POST /password_reset/:token.
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req dto.NewPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "invalid request"})
		return
	}
	err := h.accounts.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		default:
			internalError(c, "password reset failed", err)
		}
		return
	}
	c.JSON(http.StatusOK, shareddto.MessageResponse{Message: "your password has been reset"})
}

// Profile handles GET /users/:username.
func (h *AccountHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.accounts.Profile(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, shareddto.ErrorResponse{Error: err.Error()})
			return
		}
		internalError(c, "profile lookup failed", err)
		return
	}

	counts, err := h.graph.Counts(ctx, user.ID)
	if err != nil {
		internalError(c, "follow counts failed", err, "user_id", user.ID)
		return
	}
	page, perPage := posthandler.PageParams(c)
	posts, err := h.posts.UserPosts(ctx, user.ID, page, perPage)
	if err != nil {
		internalError(c, "user posts failed", err, "user_id", user.ID)
		return
	}

	resp := dto.NewUserResponse(user)
	resp.Followers = counts.Followers
	resp.Following = counts.Following
	c.JSON(http.StatusOK, dto.ProfileResponse{User: resp, Posts: postdto.NewPageResponse(posts)})
}

// UpdateProfile handles PUT /profile.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, shareddto.ErrorResponse{Error: "unauthorized"})
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: "invalid request"})
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), userID, req.Username, req.AboutMe)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUsernameTaken):
			c.JSON(http.StatusConflict, shareddto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, shareddto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, usecase.ErrUserNotFound):
			c.JSON(http.StatusNotFound, shareddto.ErrorResponse{Error: err.Error()})
		default:
			internalError(c, "profile update failed", err, "user_id", userID)
		}
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
