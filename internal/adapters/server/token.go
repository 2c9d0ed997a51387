package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret reports token minting without a configured signing secret.
var ErrEmptySecret = errors.New("jwt secret is not configured")

// MintToken signs one HS256 bearer token whose subject becomes the change-event actor.
func MintToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", ErrEmptySecret
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// SubjectFromToken verifies one HS256 token and returns its subject.
func SubjectFromToken(secret, raw string) (string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(subject), nil
}

// bearerActor resolves the MCP caller from the Authorization header. The
// auth middleware has already rejected bad tokens when a secret is set.
func bearerActor(secret string) func(*http.Request) string {
	if secret == "" {
		return nil
	}
	return func(r *http.Request) string {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			return ""
		}
		subject, err := SubjectFromToken(secret, strings.TrimSpace(raw))
		if err != nil {
			return ""
		}
		return subject
	}
}
