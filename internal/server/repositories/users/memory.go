package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It enforces the same
// uniqueness rules as the database schema and is safe for concurrent use.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.User
	byEmail    map[string]string
	byUsername map[string]string
	order      []string
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*models.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) lookup(index map[string]string, key string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.lookup(r.byEmail, email)
}

func (r *MemoryRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.lookup(r.byUsername, username)
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) Insert(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, ErrDuplicateEmail
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return nil, ErrDuplicateUsername
	}

	u := user.Clone()
	u.ID = uuid.NewString()

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.byUsername[u.Username] = u.ID
	r.order = append(r.order, u.ID)

	return u.Clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, patch models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}

	if patch.Email != nil && *patch.Email != u.Email {
		if _, taken := r.byEmail[*patch.Email]; taken {
			return nil, ErrDuplicateEmail
		}
	}
	if patch.Username != nil && *patch.Username != u.Username {
		if _, taken := r.byUsername[*patch.Username]; taken {
			return nil, ErrDuplicateUsername
		}
	}

	if patch.Email != nil {
		delete(r.byEmail, u.Email)
		u.Email = *patch.Email
		r.byEmail[u.Email] = id
	}
	if patch.Username != nil {
		delete(r.byUsername, u.Username)
		u.Username = *patch.Username
		r.byUsername[u.Username] = id
	}
	if patch.FullName != nil {
		v := *patch.FullName
		u.FullName = &v
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	u.UpdatedAt = r.now()

	return u.Clone(), nil
}

func (r *MemoryRepository) TouchLastLogin(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	now := r.now()
	u.LastLogin = &now
	return true, nil
}

func (r *MemoryRepository) Deactivate(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if u.IsActive {
		u.IsActive = false
		u.UpdatedAt = r.now()
	}
	return true, nil
}

// List returns users in insertion order, which matches creation order.
func (r *MemoryRepository) List(_ context.Context, offset, limit int) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.order) {
		return []*models.User{}, nil
	}
	end := min(offset+limit, len(r.order))

	result := make([]*models.User, 0, end-offset)
	for _, id := range r.order[offset:end] {
		result = append(result, r.byID[id].Clone())
	}
	return result, nil
}
