// Package services contains server-side business logic. IdentityService owns
// the credential lifecycle: registration, login, token refresh, password
// change, access verification, profile management and deactivation.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

const (
	TokenTypeBearer = "bearer"

	msgInvalidCredentials   = "invalid email or password"
	msgAccountDeactivated   = "account is deactivated"
	msgInvalidRefreshToken  = "invalid or expired refresh token"
	msgInvalidAccessToken   = "could not validate credentials"
	msgEmailRegistered      = "email already registered"
	msgUsernameTaken        = "username already taken"
	msgEmailInUse           = "email already in use"
	msgUsernameInUse        = "username already in use"
	msgWrongCurrentPassword = "current password is incorrect"
	msgUserNotFound         = "user not found"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	Password string  `json:"password"`
}

// ProfileUpdate lists the profile fields a user may change. Nil means unchanged.
type ProfileUpdate struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
}

// AccessToken is the result of a refresh.
type AccessToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// IdentityService is stateless between calls apart from the repository it
// wraps, so it is safe for concurrent use.
type IdentityService struct {
	users  users.Repository
	tokens *auth.TokenCodec
	hasher auth.PasswordHasher
	logger logging.Logger
	now    func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

func NewIdentityService(repo users.Repository, tokens *auth.TokenCodec, hasher auth.PasswordHasher, logger logging.Logger) *IdentityService {
	return &IdentityService{
		users:  repo,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdentityService) internalError(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return common.WrapError(common.ErrorInternal, common.ErrorInternal.Error(), err)
}

// dummyVerify spends the same hashing work as a real verification so that
// unknown emails cannot be told apart from wrong passwords by latency.
// The reference hash is created on first use; a failed attempt is logged
// and retried on the next call.
func (s *IdentityService) dummyVerify(ctx context.Context, password string) {
	s.dummyMu.Lock()
	if s.dummyHash == "" {
		h, err := s.hasher.Hash("dummy-Passw0rd")
		if err != nil {
			s.logger.Error(ctx, "dummy password hash failed, unknown email logins skip verification", "error", err)
		} else {
			s.dummyHash = h
		}
	}
	hash := s.dummyHash
	s.dummyMu.Unlock()

	_ = s.hasher.Verify(password, hash)
}

func (s *IdentityService) issuePair(ctx context.Context, u *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(u.ID, u.Role)
	if err != nil {
		return nil, s.internalError(ctx, "issue access token", err)
	}
	refresh, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, s.internalError(ctx, "issue refresh token", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    s.tokens.AccessTTL(),
	}, nil
}

// createUser runs the shared part of Register and BootstrapAdmin. Email is
// checked before username; the repository insert is the final arbiter.
func (s *IdentityService) createUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, common.NewError(common.ErrConflict, msgEmailRegistered)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, s.internalError(ctx, "find user by email", err)
	}

	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, common.NewError(common.ErrConflict, msgUsernameTaken)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, s.internalError(ctx, "find user by username", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internalError(ctx, "hash password", err)
	}

	now := s.now()
	u, err := s.users.Insert(ctx, &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
		IsActive:     true,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, s.mapConflict(ctx, "insert user", err, msgEmailRegistered, msgUsernameTaken)
	}
	return u, nil
}

func (s *IdentityService) mapConflict(ctx context.Context, op string, err error, emailMsg, usernameMsg string) error {
	switch {
	case errors.Is(err, users.ErrDuplicateEmail):
		return common.WrapError(common.ErrConflict, emailMsg, err)
	case errors.Is(err, users.ErrDuplicateUsername):
		return common.WrapError(common.ErrConflict, usernameMsg, err)
	case errors.Is(err, common.ErrConflict):
		return common.WrapError(common.ErrConflict, "email or username already in use", err)
	case errors.Is(err, common.ErrNotFound):
		return common.NewError(common.ErrNotFound, msgUserNotFound)
	}
	return s.internalError(ctx, op, err)
}

// Register creates a user with role "user" and returns its first token pair.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*TokenPair, error) {
	u, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return s.issuePair(ctx, u)
}

// Login authenticates by email and password. Unknown email and wrong password
// are reported with the same message.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.dummyVerify(ctx, password)
			return nil, common.NewError(common.ErrUnauthorized, msgInvalidCredentials)
		}
		return nil, s.internalError(ctx, "find user by email", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, common.NewError(common.ErrUnauthorized, msgInvalidCredentials)
	}

	if !u.IsActive {
		return nil, common.NewError(common.ErrUnauthorized, msgAccountDeactivated)
	}

	if _, err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, s.internalError(ctx, "touch last login", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", u.ID)
	return s.issuePair(ctx, u)
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself stays valid until it expires.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	fail := common.NewError(common.ErrUnauthorized, msgInvalidRefreshToken)

	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		s.logger.Debug(ctx, "refresh token rejected", "reason", err)
		return nil, fail
	}
	if !auth.CheckType(claims, auth.TokenRefresh) {
		s.logger.Debug(ctx, "refresh token rejected", "reason", "wrong token type")
		return nil, fail
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug(ctx, "refresh token rejected", "reason", "unknown subject", "user_id", claims.Subject)
			return nil, fail
		}
		return nil, s.internalError(ctx, "find user by id", err)
	}
	if !u.IsActive {
		s.logger.Debug(ctx, "refresh token rejected", "reason", "account deactivated", "user_id", u.ID)
		return nil, fail
	}

	access, err := s.tokens.IssueAccess(u.ID, u.Role)
	if err != nil {
		return nil, s.internalError(ctx, "issue access token", err)
	}
	return &AccessToken{AccessToken: access, TokenType: TokenTypeBearer, ExpiresIn: s.tokens.AccessTTL()}, nil
}

// ChangePassword replaces the password hash after checking the current
// password. Outstanding tokens are not affected.
func (s *IdentityService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return validationError(err)
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewError(common.ErrNotFound, msgUserNotFound)
		}
		return s.internalError(ctx, "find user by id", err)
	}

	if !s.hasher.Verify(oldPassword, u.PasswordHash) {
		return common.NewError(common.ErrUnauthorized, msgWrongCurrentPassword)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internalError(ctx, "hash password", err)
	}

	if _, err := s.users.Update(ctx, userID, models.UserPatch{PasswordHash: &hash}); err != nil {
		return s.mapConflict(ctx, "update password", err, msgEmailInUse, msgUsernameInUse)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// VerifyAccess resolves an access token to an active user. Every failure is
// reported with one generic message; the reason is only logged.
func (s *IdentityService) VerifyAccess(ctx context.Context, token string) (*models.User, error) {
	fail := common.NewError(common.ErrUnauthorized, msgInvalidAccessToken)

	claims, err := s.tokens.Decode(token)
	if err != nil {
		s.logger.Debug(ctx, "access token rejected", "reason", err)
		return nil, fail
	}
	if !auth.CheckType(claims, auth.TokenAccess) {
		s.logger.Debug(ctx, "access token rejected", "reason", "wrong token type")
		return nil, fail
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug(ctx, "access token rejected", "reason", "unknown subject", "user_id", claims.Subject)
			return nil, fail
		}
		return nil, s.internalError(ctx, "find user by id", err)
	}
	if !u.IsActive {
		s.logger.Debug(ctx, "access token rejected", "reason", "account deactivated", "user_id", u.ID)
		return nil, fail
	}
	return u, nil
}

// Deactivate switches the account off for good. Deactivating an already
// inactive account succeeds.
func (s *IdentityService) Deactivate(ctx context.Context, userID string) error {
	ok, err := s.users.Deactivate(ctx, userID)
	if err != nil {
		return s.internalError(ctx, "deactivate user", err)
	}
	if !ok {
		return common.NewError(common.ErrNotFound, msgUserNotFound)
	}
	s.logger.Info(ctx, "user deactivated", "user_id", userID)
	return nil
}

// Logout is advisory: tokens are stateless, so nothing changes server-side.
func (s *IdentityService) Logout(ctx context.Context, u *models.User) error {
	s.logger.Info(ctx, "user logged out", "user_id", u.ID)
	return nil
}

func (s *IdentityService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, msgUserNotFound)
		}
		return nil, s.internalError(ctx, "find user by id", err)
	}
	return u, nil
}

// UpdateProfile changes email, username and/or full name. Conflicts are only
// raised against other users, email first.
func (s *IdentityService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	current, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		other, err := s.users.FindByEmail(ctx, *in.Email)
		switch {
		case err == nil && other.ID != id:
			return nil, common.NewError(common.ErrConflict, msgEmailInUse)
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return nil, s.internalError(ctx, "find user by email", err)
		}
	}
	if in.Username != nil {
		other, err := s.users.FindByUsername(ctx, *in.Username)
		switch {
		case err == nil && other.ID != id:
			return nil, common.NewError(common.ErrConflict, msgUsernameInUse)
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return nil, s.internalError(ctx, "find user by username", err)
		}
	}

	patch := models.UserPatch{Email: in.Email, Username: in.Username, FullName: in.FullName}
	if patch.Empty() {
		return current, nil
	}

	u, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, s.mapConflict(ctx, "update user", err, msgEmailInUse, msgUsernameInUse)
	}
	s.logger.Info(ctx, "profile updated", "user_id", id)
	return u, nil
}

// ListUsers pages through all users. Transports pass DefaultListLimit when
// the caller gives no limit.
func (s *IdentityService) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	if offset < 0 {
		return nil, common.NewError(common.ErrValidation, "skip: must be no less than 0.")
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, common.NewError(common.ErrValidation, "limit: must be between 1 and 100.")
	}

	list, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, s.internalError(ctx, "list users", err)
	}
	return list, nil
}

// BootstrapAdmin creates an admin account unless one with the same email
// exists already. It is the only way an admin role is ever assigned.
func (s *IdentityService) BootstrapAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		s.logger.Info(ctx, "bootstrap admin already present", "user_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, s.internalError(ctx, "find user by email", err)
	}

	u, err := s.createUser(ctx, in, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "bootstrap admin created", "user_id", u.ID)
	return u, nil
}
