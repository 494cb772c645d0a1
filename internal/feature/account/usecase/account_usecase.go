package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"microblog/internal/feature/account/domain/entity"
)

const (
	// minPasswordLength is the shortest password accepted.
	minPasswordLength = 8
	// mailTimeout bounds a single background email delivery.
	mailTimeout = 30 * time.Second
	// dummyHash is compared against when the user does not exist, so a login takes the same time either way.
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// Create persists a new user. It returns ErrUsernameTaken or ErrEmailTaken on a unique violation.
	Create(ctx context.Context, user *entity.User) error

	// FindByID, FindByUsername and FindByEmail return ErrUserNotFound when nothing matches.
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// UpdateProfile stores Username and AboutMe. It returns ErrUsernameTaken on a unique violation.
	UpdateProfile(ctx context.Context, user *entity.User) error

	UpdatePassword(ctx context.Context, id uint, hash string) error
	UpdateLastSeen(ctx context.Context, id uint, at time.Time) error
}

// TokenGenerator issues access tokens.
type TokenGenerator interface {
	GenerateToken(userID uint, username string) (string, error)
}

// ResetTokens issues and verifies password reset tokens.
type ResetTokens interface {
	Issue(userID uint) (string, error)
	// Verify returns false for any token that is malformed, expired or mis-signed.
	Verify(token string) (uint, bool)
}

// Mailer delivers plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AccountUsecase implements registration, login, profiles and password resets.
type AccountUsecase struct {
	users   UserRepository
	tokens  TokenGenerator
	resets  ResetTokens
	mailer  Mailer
	baseURL string
	now     func() time.Time

	// mails tracks background deliveries so shutdown can wait for them.
	mails sync.WaitGroup
}

// NewAccountUsecase creates an AccountUsecase. baseURL prefixes the link in reset emails.
func NewAccountUsecase(users UserRepository, tokens TokenGenerator, resets ResetTokens, mailer Mailer, baseURL string) *AccountUsecase {
	return &AccountUsecase{
		users:   users,
		tokens:  tokens,
		resets:  resets,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// validatePassword checks the password meets the minimum length.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrPasswordTooShort, minPasswordLength)
	}
	return nil
}

// validateField rejects empty values and values longer than max runes.
func validateField(name, value string, max int) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, name, max)
	}
	return nil
}

// Register creates a user with a bcrypt-hashed password.
func (u *AccountUsecase) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateField("username", username, entity.MaxUsernameLength); err != nil {
		return nil, err
	}
	if err := validateField("email", email, entity.MaxEmailLength); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if err := u.ensureUsernameFree(ctx, username); err != nil {
		return nil, err
	}
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{Username: username, Email: email, PasswordHash: string(hashed)}
	// The unique indexes still guard against a concurrent registration.
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (u *AccountUsecase) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := u.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case errors.Is(err, ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// Login authenticates the user and returns a signed access token.
// bcrypt runs even for unknown users so both failure paths take the same time.
func (u *AccountUsecase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := u.users.FindByUsername(ctx, username)

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.PasswordHash
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", err
	}

	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil || compareErr != nil {
		return "", ErrInvalidCredentials
	}

	token, err := u.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := u.Touch(ctx, user.ID); err != nil {
		slog.Warn("failed to update last seen", "error", err, "user_id", user.ID)
	}
	return token, nil
}

// Touch records that the user was just active.
func (u *AccountUsecase) Touch(ctx context.Context, userID uint) error {
	return u.users.UpdateLastSeen(ctx, userID, u.now().UTC())
}

// Profile returns the user with the given username.
func (u *AccountUsecase) Profile(ctx context.Context, username string) (*entity.User, error) {
	return u.users.FindByUsername(ctx, username)
}

// UpdateProfile changes the username and about-me text of userID.
// Username uniqueness is only checked when the name actually changes.
func (u *AccountUsecase) UpdateProfile(ctx context.Context, userID uint, username, aboutMe string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if err := validateField("username", username, entity.MaxUsernameLength); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(aboutMe) > entity.MaxAboutMeLength {
		return nil, fmt.Errorf("%w: about_me must be at most %d characters", ErrInvalidInput, entity.MaxAboutMeLength)
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if username != user.Username {
		if err := u.ensureUsernameFree(ctx, username); err != nil {
			return nil, err
		}
	}

	user.Username = username
	user.AboutMe = aboutMe
	if err := u.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("profile updated", "user_id", userID)
	return user, nil
}

// RequestPasswordReset mails a reset link when email belongs to a user.
// Unknown addresses are accepted silently so callers cannot probe for accounts.
func (u *AccountUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := u.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := u.resets.Issue(user.ID)
	if err != nil {
		return err
	}

	to := user.Email
	body := fmt.Sprintf("Dear %s,\n\nTo reset your password click on the following link:\n\n%s/password_reset/%s\n\n"+
		"If you have not requested a password reset simply ignore this message.\n", user.Username, u.baseURL, token)

	u.mails.Add(1)
	go func() {
		defer u.mails.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := u.mailer.Send(ctx, to, "[Microblog] Reset Your Password", body); err != nil {
			slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
			return
		}
		slog.Info("password reset email sent", "user_id", user.ID)
	}()
	return nil
}

// VerifyResetToken returns the user a reset token was issued for, or nil when it does not verify.
func (u *AccountUsecase) VerifyResetToken(ctx context.Context, token string) *entity.User {
	id, ok := u.resets.Verify(token)
	if !ok {
		return nil
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	return user
}

// ResetPassword sets a new password for the user named by token.
func (u *AccountUsecase) ResetPassword(ctx context.Context, token, password string) error {
	user := u.VerifyResetToken(ctx, token)
	if user == nil {
		return ErrInvalidToken
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := u.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return err
	}
	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// Wait blocks until every background email has been handed to the mailer.
func (u *AccountUsecase) Wait() {
	u.mails.Wait()
}
