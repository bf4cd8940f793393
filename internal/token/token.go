// Package token issues and verifies the HMAC-signed JWTs used as session
// credentials. The token carries only the user id; role and the rest of the
// identity are always re-read from storage on each request.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the token lifetime used when the config does not override it.
const DefaultTTL = 24 * time.Hour

// ErrInvalid is returned by Verify for any token that does not check out:
// bad signature, expired, malformed, or carrying an unparsable subject.
var ErrInvalid = errors.New("invalid token")

// Service signs and verifies tokens with a shared HMAC secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService constructs a Service. A non-positive ttl falls back to DefaultTTL.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a signed token whose subject is the given user id.
func (s *Service) Generate(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token.Generate: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded user id.
func (s *Service) Verify(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, ErrInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	return userID, nil
}
