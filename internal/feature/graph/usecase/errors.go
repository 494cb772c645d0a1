// Package usecase implements the social graph.
package usecase

import "errors"

var (
	// ErrSelfFollow is returned when a user tries to follow or unfollow themselves.
	ErrSelfFollow = errors.New("cannot follow or unfollow yourself")

	// ErrUserNotFound is returned when a username does not resolve to a user.
	ErrUserNotFound = errors.New("user not found")
)
