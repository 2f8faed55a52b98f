package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbedsUsersSchema(t *testing.T) {
	files, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	b, err := fs.ReadFile(Migrations, "00001_create_users.sql")
	require.NoError(t, err)

	sql := string(b)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "-- +goose Down")
	assert.Contains(t, sql, "CONSTRAINT users_email_key UNIQUE (email)")
	assert.Contains(t, sql, "CONSTRAINT users_username_key UNIQUE (username)")
	assert.Contains(t, sql, "is_active     BOOLEAN NOT NULL,")
}
