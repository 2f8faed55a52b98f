// Package users provides storage for user accounts: a PostgreSQL
// implementation, an in-memory implementation and a Redis-backed read-through
// cache that wraps either of them.
package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Duplicate-key errors. Both match common.ErrConflict with errors.Is.
var (
	ErrDuplicateEmail    = fmt.Errorf("%w: email", common.ErrConflict)
	ErrDuplicateUsername = fmt.Errorf("%w: username", common.ErrConflict)
)

// Repository is the durable store of user records. Finders return
// common.ErrNotFound when nothing matches. Insert and Update report
// uniqueness violations as ErrDuplicateEmail or ErrDuplicateUsername; the
// store, not the caller's pre-check, is the final arbiter.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// Insert assigns the identifier and stores user. The stored record is
	// returned.
	Insert(ctx context.Context, user *models.User) (*models.User, error)

	// Update applies the non-nil fields of patch and bumps updated_at.
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)

	// TouchLastLogin sets last_login to now. It reports whether the user exists.
	TouchLastLogin(ctx context.Context, id string) (bool, error)

	// Deactivate clears the active flag. It reports whether the user exists;
	// deactivating an inactive user succeeds without changing it.
	Deactivate(ctx context.Context, id string) (bool, error)

	// List returns users ordered by creation time.
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
}
