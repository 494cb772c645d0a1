// Package usecase implements the post ledger and the feed assembler.
package usecase

import "errors"

var (
	// ErrEmptyBody is returned when a post body is blank.
	ErrEmptyBody = errors.New("post body is empty")

	// ErrBodyTooLong is returned when a post body exceeds entity.MaxBodyLength runes.
	ErrBodyTooLong = errors.New("post body is too long")

	// ErrPostNotFound is returned when no post has the requested ID.
	ErrPostNotFound = errors.New("post not found")

	// ErrNotPostOwner is returned when a user tries to remove someone else's post.
	ErrNotPostOwner = errors.New("post belongs to another user")
)
