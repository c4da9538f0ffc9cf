package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/jobly/internal/domain"
)

// Claims is the identity carried by a bearer token. ID is a users row id
// and is always positive; tokens without one are rejected.
type Claims struct {
	ID   int64
	Role domain.Role
	Name string
}

type tokenClaims struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens with a process-wide
// secret. Rotating the secret invalidates every outstanding token.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl issues tokens without an
// exp claim; they stay valid until the secret changes.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for c. c.ID must be positive.
func (t *TokenIssuer) Issue(c Claims) (string, error) {
	if c.ID <= 0 {
		return "", fmt.Errorf("%w: token subject id %d", domain.ErrInvalidInput, c.ID)
	}
	now := t.now()
	claims := tokenClaims{
		ID:   c.ID,
		Role: string(c.Role),
		Name: c.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns its claims. Any signature, shape,
// algorithm or expiry problem yields domain.ErrTokenInvalid, as does a
// missing or non-positive id.
func (t *TokenIssuer) Verify(tokenString string) (Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, domain.ErrTokenInvalid
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.ID <= 0 {
		return Claims{}, domain.ErrTokenInvalid
	}

	return Claims{ID: claims.ID, Role: role, Name: claims.Name}, nil
}
