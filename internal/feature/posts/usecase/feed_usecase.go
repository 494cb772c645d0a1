package usecase

import (
	"context"

	"microblog/internal/feature/posts/domain/entity"
)

const (
	// DefaultPerPage is used when the caller does not configure a page size.
	DefaultPerPage = 15
	// MaxPerPage caps the page size a client may request.
	MaxPerPage = 100
)

// FeedRepository is the read side of the ledger.
// Every method orders by creation time descending, ties broken by ID descending,
// and returns the rows of one window plus the size of the whole sequence.
type FeedRepository interface {
	// FindFollowed returns posts by viewerID and by every user viewerID follows.
	FindFollowed(ctx context.Context, viewerID uint, offset, limit int) ([]entity.Post, int64, error)

	// FindAll returns every post in the ledger.
	FindAll(ctx context.Context, offset, limit int) ([]entity.Post, int64, error)

	// FindByAuthor returns the posts written by authorID.
	FindByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]entity.Post, int64, error)
}

// FeedUsecase assembles paginated timelines.
type FeedUsecase struct {
	repo           FeedRepository
	defaultPerPage int
}

// NewFeedUsecase creates a FeedUsecase. A non-positive defaultPerPage means DefaultPerPage.
func NewFeedUsecase(repo FeedRepository, defaultPerPage int) *FeedUsecase {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}
	return &FeedUsecase{repo: repo, defaultPerPage: defaultPerPage}
}

// normalize replaces an invalid perPage with the default and bounds page with entity.ClampPage.
func (u *FeedUsecase) normalize(page, perPage int) (int, int) {
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = u.defaultPerPage
	}
	return entity.ClampPage(page, perPage), perPage
}

// FollowedPosts returns the viewer's home timeline: their own posts plus those of followed users.
func (u *FeedUsecase) FollowedPosts(ctx context.Context, viewerID uint, page, perPage int) (*entity.Page, error) {
	page, perPage = u.normalize(page, perPage)
	items, total, err := u.repo.FindFollowed(ctx, viewerID, entity.Offset(page, perPage), perPage)
	if err != nil {
		return nil, err
	}
	return entity.NewPage(items, page, perPage, total), nil
}

// Explore returns the global timeline, ignoring the social graph.
func (u *FeedUsecase) Explore(ctx context.Context, page, perPage int) (*entity.Page, error) {
	page, perPage = u.normalize(page, perPage)
	items, total, err := u.repo.FindAll(ctx, entity.Offset(page, perPage), perPage)
	if err != nil {
		return nil, err
	}
	return entity.NewPage(items, page, perPage, total), nil
}

// UserPosts returns one author's posts, as shown on their profile.
func (u *FeedUsecase) UserPosts(ctx context.Context, authorID uint, page, perPage int) (*entity.Page, error) {
	page, perPage = u.normalize(page, perPage)
	items, total, err := u.repo.FindByAuthor(ctx, authorID, entity.Offset(page, perPage), perPage)
	if err != nil {
		return nil, err
	}
	return entity.NewPage(items, page, perPage, total), nil
}
