// Package adapters provides the GORM implementation of the follow edge table.
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"microblog/internal/feature/graph/usecase"
)

// FollowModel is one directed edge: FollowerID follows FollowedID.
type FollowModel struct {
	FollowerID uint `gorm:"primaryKey;autoIncrement:false"`
	FollowedID uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt  time.Time
}

// TableName returns the table name for GORM.
func (FollowModel) TableName() string {
	return "follows"
}

type followGorm struct {
	db *gorm.DB
}

var _ usecase.FollowRepository = (*followGorm)(nil)

// NewFollowRepository creates a follow repository bound to db.
func NewFollowRepository(db *gorm.DB) *followGorm {
	return &followGorm{db: db}
}

// Insert adds the edge, ignoring the conflict when it already exists.
func (r *followGorm) Insert(ctx context.Context, followerID, followedID uint) error {
	edge := FollowModel{FollowerID: followerID, FollowedID: followedID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
}

func (r *followGorm) Delete(ctx context.Context, followerID, followedID uint) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&FollowModel{}).Error
}

func (r *followGorm) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&FollowModel{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

func (r *followGorm) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FollowModel{}).Where("followed_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *followGorm) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FollowModel{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

// userLookupGorm reads the users table owned by the account feature.
type userLookupGorm struct {
	db *gorm.DB
}

var _ usecase.UserLookup = (*userLookupGorm)(nil)

// NewUserLookup creates a username resolver bound to db.
func NewUserLookup(db *gorm.DB) *userLookupGorm {
	return &userLookupGorm{db: db}
}

func (r *userLookupGorm) IDByUsername(ctx context.Context, username string) (uint, error) {
	var row struct{ ID uint }
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id").
		Where("username = ?", username).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, usecase.ErrUserNotFound
		}
		return 0, err
	}
	return row.ID, nil
}
