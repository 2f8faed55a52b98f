package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"

	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"

	userColumns = `id, email, username, password_hash, full_name, role, is_active, is_verified, created_at, updated_at, last_login`
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &role,
		&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return u, nil
}

// mapWriteError converts unique violations into the duplicate sentinels.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return ErrDuplicateEmail
		case usernameConstraint:
			return ErrDuplicateUsername
		}
		return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

// FindByID treats identifiers that are not UUIDs as unknown rather than
// sending them to the server.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	return r.findOne(ctx, "id", id)
}

func (r *PostgresRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (` + userColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), user.Email, user.Username, user.PasswordHash, user.FullName, string(user.Role),
		user.IsActive, user.IsVerified, user.CreatedAt, user.UpdatedAt, user.LastLogin))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}

	query :=
		`UPDATE users SET
		   email = COALESCE($2, email),
		   username = COALESCE($3, username),
		   full_name = COALESCE($4, full_name),
		   password_hash = COALESCE($5, password_hash),
		   updated_at = $6
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		id, patch.Email, patch.Username, patch.FullName, patch.PasswordHash, r.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return u, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	return r.exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, r.now())
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	query :=
		`UPDATE users SET
		   updated_at = CASE WHEN is_active THEN $2 ELSE updated_at END,
		   is_active = FALSE
		 WHERE id = $1`
	return r.exec(ctx, query, id, r.now())
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
