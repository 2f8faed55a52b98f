package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newCodec(t *testing.T, alg string, clock *fakeClock) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec([]byte("super-secret"), alg, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}
	return c
}

func TestIssueAndDecode_Access(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, "HS256", clock)

	tok, err := c.IssueAccess("user-123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	claims, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.Subject != "user-123" || claims.Role != models.RoleAdmin || claims.Type != TokenAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(clock.t.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt.Time)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}

func TestIssueRefresh_CarriesNoRole(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, "HS512", clock)

	tok, err := c.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	claims, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.Role != "" || claims.Type != TokenRefresh {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(clock.t.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt.Time)
	}

	// role passed to Issue for a refresh token is dropped
	tok, _ = c.Issue("u1", models.RoleAdmin, TokenRefresh, time.Hour)
	claims, _ = c.Decode(tok)
	if claims.Role != "" {
		t.Fatalf("refresh token must not carry a role, got %q", claims.Role)
	}
}

func TestDecode_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, "HS256", clock)

	tok, err := c.IssueAccess("u1", models.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	clock.t = clock.t.Add(15*time.Minute - time.Second)
	if _, err := c.Decode(tok); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	clock.t = clock.t.Add(time.Second)
	if _, err := c.Decode(tok); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	c := newCodec(t, "HS256", clock)
	other, _ := NewTokenCodec([]byte("wrong-secret"), "HS256", WithClock(clock.Now))

	tok, _ := c.IssueAccess("u2", models.RoleUser)
	if _, err := other.Decode(tok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestDecode_RejectsOtherAlgorithm(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	c256 := newCodec(t, "HS256", clock)
	c384 := newCodec(t, "HS384", clock)

	tok, _ := c384.IssueAccess("u3", models.RoleUser)
	if _, err := c256.Decode(tok); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestDecode_MissingExpiryOrSubject(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	c, _ := NewTokenCodec(secret, "HS256")

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u4"},
		Type:             TokenAccess,
	}).SignedString(secret)
	if _, err := c.Decode(noExp); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken for missing exp, got %v", err)
	}

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             TokenAccess,
	}).SignedString(secret)
	if _, err := c.Decode(noSub); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken for missing sub, got %v", err)
	}

	badType, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u4", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             "session",
	}).SignedString(secret)
	if _, err := c.Decode(badType); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken for unknown type, got %v", err)
	}
}

func TestDecode_MalformedString(t *testing.T) {
	t.Parallel()

	c, _ := NewTokenCodec([]byte("k"), "HS256")
	for _, s := range []string{"", "not.a.jwt", "abc"} {
		if _, err := c.Decode(s); !errors.Is(err, common.ErrInvalidToken) {
			t.Fatalf("expected common.ErrInvalidToken for %q, got %v", s, err)
		}
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, "HS256", clock)

	a, _ := c.IssueAccess("u5", models.RoleUser)
	b, _ := c.IssueAccess("u5", models.RoleUser)
	if a == b {
		t.Fatal("tokens issued in the same second must differ")
	}
}

func TestCheckType(t *testing.T) {
	t.Parallel()

	if !CheckType(&Claims{Type: TokenAccess}, TokenAccess) {
		t.Fatal("access should match access")
	}
	if CheckType(&Claims{Type: TokenRefresh}, TokenAccess) {
		t.Fatal("refresh must not match access")
	}
	if CheckType(nil, TokenRefresh) {
		t.Fatal("nil claims must not match")
	}
}

func TestNewTokenCodec_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenCodec(nil, "HS256"); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenCodec([]byte("k"), "RS256"); err == nil {
		t.Fatal("expected error for non-HMAC algorithm")
	}

	c, err := NewTokenCodec([]byte("k"), "", WithTTLs(time.Minute, time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AccessTTL() != time.Minute || c.RefreshTTL() != time.Hour {
		t.Fatalf("unexpected ttls: %v %v", c.AccessTTL(), c.RefreshTTL())
	}
}
