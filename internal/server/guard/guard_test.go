package guard

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	users map[string]*models.User
}

func (f fakeVerifier) VerifyAccess(_ context.Context, token string) (*models.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, common.NewError(common.ErrUnauthorized, "could not validate credentials")
}

func newGuard() *Guard {
	return New(fakeVerifier{users: map[string]*models.User{
		"user":     {ID: "1", Role: models.RoleUser, IsActive: true},
		"admin":    {ID: "2", Role: models.RoleAdmin, IsActive: true},
		"inactive": {ID: "3", Role: models.RoleAdmin, IsActive: false},
	}})
}

func TestAuthorize(t *testing.T) {
	g := newGuard()

	tests := []struct {
		token string
		level Level
		kind  error
	}{
		{"", Public, nil},
		{"", Authenticated, common.ErrUnauthorized},
		{"bogus", Authenticated, common.ErrUnauthorized},
		{"user", Authenticated, nil},
		{"user", Active, nil},
		{"user", Admin, common.ErrForbidden},
		{"admin", Admin, nil},
		{"inactive", Authenticated, nil},
		{"inactive", Active, common.ErrForbidden},
		{"inactive", Admin, common.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.token+"/"+tt.level.String(), func(t *testing.T) {
			u, err := g.Authorize(context.Background(), tt.token, tt.level)
			if tt.kind == nil {
				require.NoError(t, err)
				if tt.level != Public {
					assert.NotNil(t, u)
				}
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, common.KindOf(err))
		})
	}
}

func TestCheck_Messages(t *testing.T) {
	err := Check(&models.User{Role: models.RoleUser, IsActive: true}, Admin)
	assert.Equal(t, "not enough permissions", common.PublicMessage(err))

	err = Check(&models.User{Role: models.RoleUser}, Active)
	assert.Equal(t, "inactive user", common.PublicMessage(err))

	err = Check(nil, Authenticated)
	assert.Equal(t, common.ErrUnauthorized, common.KindOf(err))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	u := &models.User{ID: "42"}
	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), u))
	require.True(t, ok)
	assert.Same(t, u, got)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "admin", Admin.String())
	assert.Equal(t, "unknown", Level(42).String())
}
