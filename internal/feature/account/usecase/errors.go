// Package usecase implements the account directory.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by username, email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when another user already has the username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken is returned when another user already has the email address.
	ErrEmailTaken = errors.New("email address already registered")

	// ErrInvalidCredentials is returned for every failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken is returned when a password reset token does not verify.
	ErrInvalidToken = errors.New("invalid or expired reset token")

	// ErrInvalidInput is returned when a field is empty or exceeds its bound.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPasswordTooShort is returned when a password has fewer than minPasswordLength characters.
	ErrPasswordTooShort = errors.New("password is too short")
)
