// Package adapters provides the repository implementations of the account feature.
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"microblog/internal/feature/account/domain/entity"
	"microblog/internal/feature/account/usecase"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// userGorm implements usecase.UserRepository with GORM.
type userGorm struct {
	db *gorm.DB
}

var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserRepository creates a userGorm bound to db.
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// isDuplicate reports whether err is a unique-key violation, whether or not gorm translated it.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// duplicateCause works out which unique column u collided on.
func (r *userGorm) duplicateCause(ctx context.Context, u *entity.User) error {
	var count int64
	r.db.WithContext(ctx).Model(&entity.User{}).
		Where("email = ? AND id <> ?", u.Email, u.ID).
		Count(&count)
	if count > 0 {
		return usecase.ErrEmailTaken
	}
	return usecase.ErrUsernameTaken
}

// Create inserts the user.
// A unique violation is returned as usecase.ErrUsernameTaken or usecase.ErrEmailTaken.
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return r.duplicateCause(ctx, u)
		}
		return err
	}
	return nil
}

func (r *userGorm) findBy(ctx context.Context, column string, value any) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID returns usecase.ErrUserNotFound when the user does not exist.
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.findBy(ctx, "id", id)
}

// FindByUsername matches case-sensitively.
func (r *userGorm) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findBy(ctx, "username", username)
}

// FindByEmail matches case-sensitively.
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findBy(ctx, "email", email)
}

// UpdateProfile writes Username and AboutMe only.
func (r *userGorm) UpdateProfile(ctx context.Context, u *entity.User) error {
	result := r.db.WithContext(ctx).Model(&entity.User{ID: u.ID}).
		Select("username", "about_me").
		Updates(map[string]any{"username": u.Username, "about_me": u.AboutMe})
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return usecase.ErrUsernameTaken
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *userGorm) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *userGorm) UpdateLastSeen(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumn(ctx, id, "last_seen", at)
}

func (r *userGorm) updateColumn(ctx context.Context, id uint, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
