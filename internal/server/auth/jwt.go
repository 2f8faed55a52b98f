// Package auth holds the credential primitives of gophauth: password hashing
// and signed access/refresh token handling.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims are the registered JWT claims plus the token type and, for access
// tokens only, the role.
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType   `json:"type"`
	Role models.Role `json:"role,omitempty"`
}

// TokenCodec issues and decodes HMAC-signed tokens with a single shared secret.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock replaces the wall clock used for issuing and validating tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// WithTTLs overrides the default access and refresh lifetimes.
func WithTTLs(access, refresh time.Duration) CodecOption {
	return func(c *TokenCodec) {
		c.accessTTL = access
		c.refreshTTL = refresh
	}
}

// NewTokenCodec builds a codec for one of HS256, HS384 or HS512.
func NewTokenCodec(secret []byte, algorithm string, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	c := &TokenCodec{
		secret:     secret,
		method:     method,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue signs a token for subject. The role is embedded only when typ is
// TokenAccess.
func (c *TokenCodec) Issue(subject string, role models.Role, typ TokenType, ttl time.Duration) (string, error) {
	now := c.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Type: typ,
	}
	if typ == TokenAccess {
		claims.Role = role
	}

	s, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (c *TokenCodec) IssueAccess(subject string, role models.Role) (string, error) {
	return c.Issue(subject, role, TokenAccess, c.accessTTL)
}

func (c *TokenCodec) IssueRefresh(subject string) (string, error) {
	return c.Issue(subject, "", TokenRefresh, c.refreshTTL)
}

// Decode verifies the signature (declared algorithm only) and expiry of
// tokenString. Expired tokens yield common.ErrTokenExpired; everything else
// that fails yields common.ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	if claims.Type != TokenAccess && claims.Type != TokenRefresh {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// CheckType reports whether claims carry the expected type discriminator.
func CheckType(claims *Claims, expected TokenType) bool {
	return claims != nil && claims.Type == expected
}
