// Package entity defines the domain entities for the account feature.
package entity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	// MaxUsernameLength bounds Username, counted in runes.
	MaxUsernameLength = 64
	// MaxEmailLength bounds Email, counted in runes.
	MaxEmailLength = 120
	// MaxAboutMeLength bounds AboutMe, counted in runes.
	MaxAboutMeLength = 150
)

// User represents a registered user in the system.
// Users are never hard-deleted.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Username is unique and case-sensitive.
	Username string `gorm:"uniqueIndex;size:64;not null"`

	// Email is unique and case-sensitive.
	Email string `gorm:"uniqueIndex;size:120;not null"`

	// PasswordHash is the bcrypt hash of the password.
	// This should never store plaintext passwords.
	PasswordHash string `gorm:"size:256;not null"`

	AboutMe  string `gorm:"size:150"`
	LastSeen time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Avatar returns the Gravatar URL for the user's email at the given pixel size.
func (u *User) Avatar(size int) string {
	sum := md5.Sum([]byte(strings.ToLower(u.Email)))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon&s=%d", hex.EncodeToString(sum[:]), size)
}
