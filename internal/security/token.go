package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for a session cookie that fails verification
var ErrInvalidToken = errors.New("invalid session token")

const tokenIssuer = "storyquiz"

// SessionClaims is the payload of the signed session cookie
type SessionClaims struct {
	StoryIndex int `json:"story"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session cookies with HS256
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates an issuer whose tokens live for duration
func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}
}

// Issue signs a token naming the session and its story
func (i *TokenIssuer) Issue(sessionID string, storyIndex int) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.duration)

	claims := SessionClaims{
		StoryIndex: storyIndex,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns its claims
func (i *TokenIssuer) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(i.now),
	)

	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
