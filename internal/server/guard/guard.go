// Package guard enforces per-operation access requirements on top of access
// token verification.
package guard

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Level is a composable access requirement. Each level includes the ones
// before it.
type Level int

const (
	// Public operations need no token at all.
	Public Level = iota
	Authenticated
	Active
	Admin
)

func (l Level) String() string {
	switch l {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Active:
		return "active"
	case Admin:
		return "admin"
	}
	return "unknown"
}

// AccessVerifier resolves an access token to its user.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*models.User, error)
}

type Guard struct {
	verifier AccessVerifier
}

func New(v AccessVerifier) *Guard {
	return &Guard{verifier: v}
}

// Authorize verifies token and checks the principal against level. For
// Public it returns (nil, nil) without looking at the token.
func (g *Guard) Authorize(ctx context.Context, token string, level Level) (*models.User, error) {
	if level == Public {
		return nil, nil
	}
	if token == "" {
		return nil, common.NewError(common.ErrUnauthorized, "not authenticated")
	}

	u, err := g.verifier.VerifyAccess(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := Check(u, level); err != nil {
		return nil, err
	}
	return u, nil
}

// Check applies the active and admin gates to an already authenticated user.
func Check(u *models.User, level Level) error {
	if u == nil {
		return common.NewError(common.ErrUnauthorized, "not authenticated")
	}
	if level >= Active && !u.IsActive {
		return common.NewError(common.ErrForbidden, "inactive user")
	}
	if level >= Admin && u.Role != models.RoleAdmin {
		return common.NewError(common.ErrForbidden, "not enough permissions")
	}
	return nil
}

type principalKey struct{}

// WithPrincipal stores the authenticated user on ctx.
func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFromContext returns the user stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(principalKey{}).(*models.User)
	return u, ok && u != nil
}
