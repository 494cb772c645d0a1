package jwtmw

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ResetClaim carries the user ID inside a password reset token.
	ResetClaim = "reset_password"
	// DefaultResetExpiration is how long a reset link stays valid.
	DefaultResetExpiration = 10 * time.Minute
)

// ResetTokens issues and verifies password reset tokens.
type ResetTokens struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewResetTokens creates a ResetTokens signer. A non-positive expiration means DefaultResetExpiration.
func NewResetTokens(secret string, expiration time.Duration) *ResetTokens {
	if expiration <= 0 {
		expiration = DefaultResetExpiration
	}
	return &ResetTokens{secret: []byte(secret), expiration: expiration, now: time.Now}
}

// Issue signs a reset token for userID.
func (r *ResetTokens) Issue(userID uint) (string, error) {
	now := r.now()
	claims := jwt.MapClaims{
		ResetClaim: userID,
		"exp":      now.Add(r.expiration).Unix(),
		"iat":      now.Unix(),
		"jti":      uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// Verify returns the user ID carried by token. Any malformed, expired or mis-signed token yields false.
func (r *ResetTokens) Verify(token string) (uint, bool) {
	if token == "" || len(r.secret) == 0 {
		return 0, false
	}
	parsed, err := jwt.Parse(token, keyFunc(r.secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !parsed.Valid {
		return 0, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	return claimID(claims[ResetClaim])
}
