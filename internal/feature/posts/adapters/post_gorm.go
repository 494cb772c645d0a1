// Package adapters provides the GORM implementation of the post ledger.
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"microblog/internal/feature/posts/domain/entity"
	"microblog/internal/feature/posts/usecase"
)

const (
	postColumns = "posts.id, posts.body, posts.created_at, posts.user_id, posts.language, users.username AS author"
	feedOrder   = "posts.created_at DESC, posts.id DESC"
	// followedCond selects the viewer's own posts and posts by everyone they follow.
	followedCond = "posts.user_id = ? OR posts.user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)"
)

// postGorm implements both sides of the ledger on top of gorm.
type postGorm struct {
	db *gorm.DB
}

var (
	_ usecase.PostStore      = (*postGorm)(nil)
	_ usecase.FeedRepository = (*postGorm)(nil)
)

// NewPostRepository creates a postGorm bound to db.
func NewPostRepository(db *gorm.DB) *postGorm {
	return &postGorm{db: db}
}

// WithinTx runs fn inside one transaction.
func (r *postGorm) WithinTx(ctx context.Context, fn func(repo usecase.PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postGorm{db: tx})
	})
}

// Create inserts the post and copies the generated ID and timestamp back.
func (r *postGorm) Create(ctx context.Context, post *entity.Post) error {
	m := PostModel{
		Body:      post.Body,
		CreatedAt: post.CreatedAt,
		UserID:    post.UserID,
		Language:  post.Language,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	post.ID = m.ID
	post.CreatedAt = m.CreatedAt
	return nil
}

// FindByID returns usecase.ErrPostNotFound when the post does not exist.
func (r *postGorm) FindByID(ctx context.Context, id uint) (*entity.Post, error) {
	var row postRow
	if err := r.base(ctx).Where("posts.id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrPostNotFound
		}
		return nil, err
	}
	p := row.toEntity()
	return &p, nil
}

// Delete removes the post with the given ID.
func (r *postGorm) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&PostModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrPostNotFound
	}
	return nil
}

// FindFollowed returns one window of the viewer's home timeline.
func (r *postGorm) FindFollowed(ctx context.Context, viewerID uint, offset, limit int) ([]entity.Post, int64, error) {
	return r.window(ctx, offset, limit, followedCond, viewerID, viewerID)
}

// FindAll returns one window of the global timeline.
func (r *postGorm) FindAll(ctx context.Context, offset, limit int) ([]entity.Post, int64, error) {
	return r.window(ctx, offset, limit, "")
}

// FindByAuthor returns one window of a single author's posts.
func (r *postGorm) FindByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]entity.Post, int64, error) {
	return r.window(ctx, offset, limit, "posts.user_id = ?", authorID)
}

// FindByIDs loads the given posts in no particular order. Missing IDs are skipped.
func (r *postGorm) FindByIDs(ctx context.Context, ids []uint) ([]entity.Post, error) {
	if len(ids) == 0 {
		return []entity.Post{}, nil
	}
	var rows []postRow
	if err := r.base(ctx).Where("posts.id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// ScanBatches walks the whole ledger in ascending ID order, batchSize rows at a time.
func (r *postGorm) ScanBatches(ctx context.Context, batchSize int, fn func(batch []entity.Post) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	var lastID uint
	for {
		var rows []postRow
		if err := r.base(ctx).
			Where("posts.id > ?", lastID).
			Order("posts.id ASC").
			Limit(batchSize).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(toEntities(rows)); err != nil {
			return err
		}
		lastID = rows[len(rows)-1].ID
		if len(rows) < batchSize {
			return nil
		}
	}
}

// base selects posts joined with their author's username.
func (r *postGorm) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&PostModel{}).
		Select(postColumns).
		Joins("LEFT JOIN users ON users.id = posts.user_id")
}

// window counts the rows matching cond and returns the requested slice of them.
func (r *postGorm) window(ctx context.Context, offset, limit int, cond string, args ...any) ([]entity.Post, int64, error) {
	count := r.db.WithContext(ctx).Model(&PostModel{})
	q := r.base(ctx)
	if cond != "" {
		count = count.Where(cond, args...)
		q = q.Where(cond, args...)
	}

	var total int64
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return []entity.Post{}, total, nil
	}

	var rows []postRow
	if err := q.Order(feedOrder).Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toEntities(rows), total, nil
}
