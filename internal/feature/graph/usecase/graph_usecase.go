package usecase

import (
	"context"
	"fmt"
	"log/slog"
)

// FollowRepository stores the directed follow edges.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type FollowRepository interface {
	// Insert adds the edge; inserting an existing edge is a no-op.
	Insert(ctx context.Context, followerID, followedID uint) error
	// Delete removes the edge; deleting a missing edge is a no-op.
	Delete(ctx context.Context, followerID, followedID uint) error
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

// UserLookup resolves usernames to user IDs.
type UserLookup interface {
	// IDByUsername returns ErrUserNotFound when no user has the name.
	IDByUsername(ctx context.Context, username string) (uint, error)
}

// Counts is the size of a user's neighbourhood in the graph.
type Counts struct {
	Followers int64
	Following int64
}

// GraphUsecase manages who follows whom.
type GraphUsecase struct {
	follows FollowRepository
	users   UserLookup
}

// NewGraphUsecase creates a GraphUsecase.
func NewGraphUsecase(follows FollowRepository, users UserLookup) *GraphUsecase {
	return &GraphUsecase{follows: follows, users: users}
}

// Follow makes followerID follow followedID. Following twice is a no-op.
func (u *GraphUsecase) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	if err := u.follows.Insert(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	slog.Info("user followed", "follower_id", followerID, "followed_id", followedID)
	return nil
}

// Unfollow removes the edge if present.
func (u *GraphUsecase) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	if err := u.follows.Delete(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	slog.Info("user unfollowed", "follower_id", followerID, "followed_id", followedID)
	return nil
}

// IsFollowing reports whether followerID follows followedID.
func (u *GraphUsecase) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return u.follows.Exists(ctx, followerID, followedID)
}

// FollowByUsername resolves username and follows that user.
func (u *GraphUsecase) FollowByUsername(ctx context.Context, followerID uint, username string) error {
	id, err := u.users.IDByUsername(ctx, username)
	if err != nil {
		return err
	}
	return u.Follow(ctx, followerID, id)
}

// UnfollowByUsername resolves username and unfollows that user.
func (u *GraphUsecase) UnfollowByUsername(ctx context.Context, followerID uint, username string) error {
	id, err := u.users.IDByUsername(ctx, username)
	if err != nil {
		return err
	}
	return u.Unfollow(ctx, followerID, id)
}

// Counts returns how many users follow userID and how many userID follows.
func (u *GraphUsecase) Counts(ctx context.Context, userID uint) (Counts, error) {
	followers, err := u.follows.CountFollowers(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	following, err := u.follows.CountFollowing(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Followers: followers, Following: following}, nil
}
