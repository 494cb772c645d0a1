// Package entity defines the domain models for the posts feature.
package entity

import (
	"time"

	searchdomain "microblog/internal/feature/search/domain"
)

const (
	// SearchIndexName is the keyword index that mirrors post bodies.
	SearchIndexName = "posts"
	// MaxBodyLength is the longest body accepted, counted in runes.
	MaxBodyLength = 150
)

// Post is a short text entry owned by exactly one user.
type Post struct {
	ID        uint
	Body      string
	CreatedAt time.Time
	UserID    uint   // Owner, immutable after creation
	Language  string // ISO 639-1 code, empty when detection failed
	Author    string // Owner's username, filled on reads
}

var _ searchdomain.Searchable = Post{}

// SearchIndex implements searchdomain.Searchable.
func (p Post) SearchIndex() string { return SearchIndexName }

// SearchID implements searchdomain.Searchable.
func (p Post) SearchID() uint { return p.ID }

// SearchFields implements searchdomain.Searchable. Only the body is indexed.
func (p Post) SearchFields() map[string]string {
	return map[string]string{"body": p.Body}
}
