package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail verification
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer mints session tokens and screens presented ones before the
// session store is consulted.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) error
}

// NewTokenIssuer returns a JWT issuer when secret is set and an opaque UUID
// issuer otherwise.
func NewTokenIssuer(secret string, ttl time.Duration) TokenIssuer {
	if secret == "" {
		return opaqueIssuer{}
	}
	return &jwtIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type opaqueIssuer struct{}

func (opaqueIssuer) Issue(string) (string, error) {
	return uuid.NewString(), nil
}

func (opaqueIssuer) Verify(token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

type jwtIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Issue signs a token carrying a fresh id and the user as subject
func (i *jwtIssuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		ID:       uuid.NewString(),
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and, when present, the expiry
func (i *jwtIssuer) Verify(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
