package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"microblog/internal/feature/posts/domain/entity"
	searchdomain "microblog/internal/feature/search/domain"
)

// PostRepository is the transactional write side of the ledger.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PostRepository interface {
	// Create inserts the post and fills its ID and CreatedAt.
	Create(ctx context.Context, post *entity.Post) error

	// FindByID returns ErrPostNotFound when the post does not exist.
	FindByID(ctx context.Context, id uint) (*entity.Post, error)

	// Delete returns ErrPostNotFound when nothing was deleted.
	Delete(ctx context.Context, id uint) error
}

// PostStore runs ledger writes inside a single database transaction.
type PostStore interface {
	PostRepository

	// WithinTx runs fn against a repository bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(repo PostRepository) error) error
}

// LanguageDetector guesses the natural language of a text.
type LanguageDetector interface {
	// Detect returns an ISO 639-1 code, or "" when detection fails.
	Detect(text string) string
}

// AfterCommitHook is notified with the searchable changes of every committed transaction.
// Hooks never run for rolled-back transactions.
type AfterCommitHook interface {
	AfterCommit(ctx context.Context, cs *searchdomain.Changeset)
}

// LedgerUsecase owns post creation and removal.
type LedgerUsecase struct {
	store    PostStore
	detector LanguageDetector
	hooks    []AfterCommitHook
}

// NewLedgerUsecase creates a LedgerUsecase. Hooks run in the given order after each commit.
func NewLedgerUsecase(store PostStore, detector LanguageDetector, hooks ...AfterCommitHook) *LedgerUsecase {
	return &LedgerUsecase{store: store, detector: detector, hooks: hooks}
}

// validateBody trims body and enforces the length bounds.
func validateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > entity.MaxBodyLength {
		return "", fmt.Errorf("%w: at most %d characters", ErrBodyTooLong, entity.MaxBodyLength)
	}
	return body, nil
}

// CreatePost stores a new post for authorID and mirrors it into the search index after commit.
func (u *LedgerUsecase) CreatePost(ctx context.Context, authorID uint, body string) (*entity.Post, error) {
	body, err := validateBody(body)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		Body:     body,
		UserID:   authorID,
		Language: u.detector.Detect(body),
	}

	cs := searchdomain.NewChangeset()
	err = u.store.WithinTx(ctx, func(repo PostRepository) error {
		if err := repo.Create(ctx, post); err != nil {
			return err
		}
		cs.Add(*post)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created", "post_id", post.ID, "user_id", authorID, "language", post.Language)
	u.afterCommit(ctx, cs)
	return post, nil
}

// DeletePost removes a post owned by authorID and drops it from the search index after commit.
func (u *LedgerUsecase) DeletePost(ctx context.Context, authorID, postID uint) error {
	cs := searchdomain.NewChangeset()
	err := u.store.WithinTx(ctx, func(repo PostRepository) error {
		post, err := repo.FindByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.UserID != authorID {
			return ErrNotPostOwner
		}
		if err := repo.Delete(ctx, postID); err != nil {
			return err
		}
		cs.Remove(*post)
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("post deleted", "post_id", postID, "user_id", authorID)
	u.afterCommit(ctx, cs)
	return nil
}

func (u *LedgerUsecase) afterCommit(ctx context.Context, cs *searchdomain.Changeset) {
	if cs.Len() == 0 {
		return
	}
	for _, h := range u.hooks {
		h.AfterCommit(ctx, cs)
	}
}
