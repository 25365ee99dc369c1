package sessions

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "lumacms"

// Remember-me sessions persist for 30 days; plain sessions for 12 hours.
const (
	persistentTokenTTL = 30 * 24 * time.Hour
	sessionTokenTTL    = 12 * time.Hour
)

// ErrInvalidToken indicates a session token failed validation.
var ErrInvalidToken = errors.New("sessions: invalid token")

// TokenCodec issues and parses signed session tokens. Each user area has its
// own session scheme, carried as the token audience so a token issued for
// one area can never authenticate another.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithCodecClock overrides the codec clock.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec builds a codec signing with HS256.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("sessions: signing secret is required")
	}
	c := &TokenCodec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a session token for the user under the given area scheme.
func (c *TokenCodec) Issue(userID, scheme string, persistent bool) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("sessions: userID is required")
	}
	if strings.TrimSpace(scheme) == "" {
		return "", errors.New("sessions: scheme is required")
	}

	ttl := sessionTokenTTL
	if persistent {
		ttl = persistentTokenTTL
	}
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{scheme},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse verifies the token signature and scheme and returns the user id.
func (c *TokenCodec) Parse(token, scheme string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(scheme), jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
