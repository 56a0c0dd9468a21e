// Package auth issues and verifies the editor tokens that grant write
// capability at handshake time, and rate-limits connection attempts.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL bounds how long an issued editor token stays valid
const DefaultTokenTTL = 12 * time.Hour

var errInvalidToken = errors.New("invalid editor token")

// IssueEditorToken signs an HS256 token whose subject is the participant id
func IssueEditorToken(secret, subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyEditorToken parses an HS256 token and returns its subject. Any
// parse or signature failure degrades to not-verified; the caller decides
// what role that implies.
func VerifyEditorToken(raw, secret string) (string, bool) {
	if raw == "" {
		return "", false
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", false
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", false
	}
	return subject, true
}
