// Package jwtmw issues and verifies the HS256 tokens used for sessions and password resets.
package jwtmw

import (
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(userID uint, username string) (string, error)
}

// generator implements the Generator interface.
type generator struct {
	secret     []byte
	expiration time.Duration
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
	}
}

// GenerateToken creates a signed JWT token with standard claims.
func (g *generator) GenerateToken(userID uint, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"exp":      now.Add(g.expiration).Unix(),
		"iat":      now.Unix(),
		"username": username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// keyFunc only accepts HMAC-signed tokens.
func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}
}

// maxClaimID is the largest integer a JSON number decodes to exactly.
const maxClaimID = 1 << 53

// claimID reads a user ID claim. JSON numbers decode as float64, so anything
// that is not a positive whole number in the exact range is rejected.
func claimID(v any) (uint, bool) {
	f, ok := v.(float64)
	if !ok || f <= 0 || f > maxClaimID || f != math.Trunc(f) {
		return 0, false
	}
	return uint(f), true
}
