// Package dto defines the wire types of the search endpoints.
package dto

import (
	"microblog/internal/feature/posts/domain/entity"
	postdto "microblog/internal/feature/posts/transport/http/dto"
)

// SearchResponse is one page of search results.
type SearchResponse struct {
	Query string `json:"query"`
	postdto.PageResponse
}

// NewSearchResponse converts ranked posts into a page of results.
func NewSearchResponse(query string, posts []entity.Post, page, perPage int, total int64) SearchResponse {
	return SearchResponse{
		Query:        query,
		PageResponse: postdto.NewPageResponse(entity.NewPage(posts, page, perPage, total)),
	}
}
