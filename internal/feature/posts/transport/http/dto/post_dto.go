package dto

import (
	"time"

	"microblog/internal/feature/posts/domain/entity"
)

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Body string `json:"body" binding:"required"`
}

// PostResponse is the wire form of a post.
type PostResponse struct {
	ID        uint   `json:"id"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	UserID    uint   `json:"user_id"`
	Language  string `json:"language"`
	CreatedAt string `json:"created_at"` // RFC 3339, UTC
}

// PageResponse is the wire form of one page of posts.
type PageResponse struct {
	Items    []PostResponse `json:"items"`
	Page     int            `json:"page"`
	PerPage  int            `json:"per_page"`
	Total    int64          `json:"total"`
	HasNext  bool           `json:"has_next"`
	HasPrev  bool           `json:"has_prev"`
	NextPage int            `json:"next_page,omitempty"`
	PrevPage int            `json:"prev_page,omitempty"`
}

// NewPostResponse converts a post entity.
func NewPostResponse(p entity.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Body:      p.Body,
		Author:    p.Author,
		UserID:    p.UserID,
		Language:  p.Language,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewPostResponses converts a slice of posts, never returning nil.
func NewPostResponses(posts []entity.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostResponse(p))
	}
	return out
}

// NewPageResponse converts a page entity.
func NewPageResponse(p *entity.Page) PageResponse {
	return PageResponse{
		Items:    NewPostResponses(p.Items),
		Page:     p.Page,
		PerPage:  p.PerPage,
		Total:    p.Total,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		NextPage: p.NextNum(),
		PrevPage: p.PrevNum(),
	}
}
