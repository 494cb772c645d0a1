package adapters

import (
	"time"

	"microblog/internal/feature/posts/domain/entity"
)

// PostModel is the GORM model for the posts table.
type PostModel struct {
	ID        uint      `gorm:"primaryKey"`
	Body      string    `gorm:"size:256;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
	UserID    uint      `gorm:"index;not null"`
	Language  string    `gorm:"size:20"`
}

// TableName returns the table name for GORM.
func (PostModel) TableName() string {
	return "posts"
}

// postRow is a post joined with its author's username.
type postRow struct {
	ID        uint
	Body      string
	CreatedAt time.Time
	UserID    uint
	Language  string
	Author    string
}

func (r postRow) toEntity() entity.Post {
	return entity.Post{
		ID:        r.ID,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
		UserID:    r.UserID,
		Language:  r.Language,
		Author:    r.Author,
	}
}

func toEntities(rows []postRow) []entity.Post {
	out := make([]entity.Post, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out
}
