package users

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	userCachePrefix   = "gophauth:user:"
	maxReloadAttempts = 3
)

// CachedRepository is a read-through Redis cache in front of another
// Repository. Only FindByID is cached, since every authorization check
// resolves the token subject by id. Misses are filled with SET NX, and each
// successful mutation overwrites the entry with the post-mutation record, so
// neither a fill nor another mutation that read the store earlier can
// replace it. Instances sharing one Redis see deactivation immediately.
// Redis failures are logged and the inner repository is used instead.
type CachedRepository struct {
	inner  Repository
	client redis.UniversalClient
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedRepository(inner Repository, client redis.UniversalClient, ttl time.Duration, logger logging.Logger) *CachedRepository {
	return &CachedRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

// cachedUser is the JSON form stored in Redis.
type cachedUser struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"password_hash"`
	FullName     *string     `json:"full_name,omitempty"`
	Role         models.Role `json:"role"`
	IsActive     bool        `json:"is_active"`
	IsVerified   bool        `json:"is_verified"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	LastLogin    *time.Time  `json:"last_login,omitempty"`
}

func toCached(u *models.User) cachedUser {
	return cachedUser{
		ID: u.ID, Email: u.Email, Username: u.Username, PasswordHash: u.PasswordHash,
		FullName: u.FullName, Role: u.Role, IsActive: u.IsActive, IsVerified: u.IsVerified,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt, LastLogin: u.LastLogin,
	}
}

func (c cachedUser) toModel() *models.User {
	return &models.User{
		ID: c.ID, Email: c.Email, Username: c.Username, PasswordHash: c.PasswordHash,
		FullName: c.FullName, Role: c.Role, IsActive: c.IsActive, IsVerified: c.IsVerified,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, LastLogin: c.LastLogin,
	}
}

func cacheKey(id string) string {
	return userCachePrefix + id
}

func (r *CachedRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	raw, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jerr := json.Unmarshal(raw, &cu); jerr == nil {
			return cu.toModel(), nil
		}
		r.logger.Warn(ctx, "discarding corrupt user cache entry", "user_id", id)
		r.invalidate(ctx, id)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn(ctx, "user cache read failed", "user_id", id, "error", err)
	}

	u, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// NX: a mutation may have stored a newer record since the read above.
	if b, err := json.Marshal(toCached(u)); err == nil {
		if err := r.client.SetNX(ctx, cacheKey(id), b, r.ttl).Err(); err != nil {
			r.logger.Warn(ctx, "user cache write failed", "user_id", id, "error", err)
		}
	}
	return u, nil
}

// reload stores the current record of id after a mutation. The read and the
// write run under WATCH, so when another writer touches the entry in between
// the write is dropped and the record is read again. If no fresh record can
// be stored the entry is deleted.
func (r *CachedRepository) reload(ctx context.Context, id string) {
	key := cacheKey(id)

	var err error
	for attempt := 0; attempt < maxReloadAttempts; attempt++ {
		err = r.client.Watch(ctx, func(tx *redis.Tx) error {
			u, err := r.inner.FindByID(ctx, id)
			if err != nil {
				return err
			}
			b, err := json.Marshal(toCached(u))
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, b, r.ttl)
				return nil
			})
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	if err != nil {
		r.logger.Warn(ctx, "user cache reload failed", "user_id", id, "error", err)
		r.invalidate(ctx, id)
	}
}

func (r *CachedRepository) invalidate(ctx context.Context, id string) {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		r.logger.Warn(ctx, "user cache invalidation failed", "user_id", id, "error", err)
	}
}

func (r *CachedRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.inner.FindByEmail(ctx, email)
}

func (r *CachedRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.inner.FindByUsername(ctx, username)
}

func (r *CachedRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	return r.inner.Insert(ctx, user)
}

func (r *CachedRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	u, err := r.inner.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.reload(ctx, id)
	return u, nil
}

func (r *CachedRepository) TouchLastLogin(ctx context.Context, id string) (bool, error) {
	ok, err := r.inner.TouchLastLogin(ctx, id)
	if err == nil && ok {
		r.reload(ctx, id)
	}
	return ok, err
}

func (r *CachedRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	ok, err := r.inner.Deactivate(ctx, id)
	if err == nil && ok {
		r.reload(ctx, id)
	}
	return ok, err
}

func (r *CachedRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	return r.inner.List(ctx, offset, limit)
}
