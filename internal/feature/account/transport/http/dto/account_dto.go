// Package dto defines the request and response bodies of the account endpoints.
package dto

import (
	"time"

	"microblog/internal/feature/account/domain/entity"
	postdto "microblog/internal/feature/posts/transport/http/dto"
)

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ResetRequest is the body of POST /password_reset_request.
type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// NewPasswordRequest is the body of POST /password_reset/:token.
type NewPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the body of PUT /profile.
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required"`
	AboutMe  string `json:"about_me"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	AboutMe   string `json:"about_me"`
	Avatar    string `json:"avatar"`
	LastSeen  string `json:"last_seen,omitempty"` // RFC 3339, UTC
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
}

// ProfileResponse is a user together with one page of their posts.
type ProfileResponse struct {
	User  UserResponse         `json:"user"`
	Posts postdto.PageResponse `json:"posts"`
}

// NewUserResponse converts a user entity. Counts are filled by the caller.
func NewUserResponse(u *entity.User) UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		Username: u.Username,
		AboutMe:  u.AboutMe,
		Avatar:   u.Avatar(128),
	}
	if !u.LastSeen.IsZero() {
		resp.LastSeen = u.LastSeen.UTC().Format(time.RFC3339)
	}
	return resp
}
