package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type apiFixture struct {
	router http.Handler
	svc    *services.IdentityService
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	codec, err := auth.NewTokenCodec([]byte("test-secret"), "HS256")
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(auth.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	svc := services.NewIdentityService(users.NewMemoryRepository(), codec, hasher, logging.Nop{})

	return &apiFixture{router: NewRouter(svc, logging.Nop{}), svc: svc}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func (f *apiFixture) register(t *testing.T, email, username string) pb.TokenResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", pb.RegisterRequest{
		Email: email, Username: username, Password: "Passw0rd",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tok pb.TokenResponse
	decodeBody(t, rec, &tok)
	return tok
}

func (f *apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	_, err := f.svc.BootstrapAdmin(context.Background(), services.RegisterInput{
		Email: "root@example.com", Username: "root", Password: "Adm1nPass",
	})
	require.NoError(t, err)
	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", pb.LoginRequest{Email: "root@example.com", Password: "Adm1nPass"})
	require.Equal(t, http.StatusOK, rec.Code)
	var tok pb.TokenResponse
	decodeBody(t, rec, &tok)
	return tok.AccessToken
}

func TestHealth(t *testing.T) {
	f := newAPI(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRegisterLoginRefreshMe(t *testing.T) {
	f := newAPI(t)
	reg := f.register(t, "alice@example.com", "alice")
	assert.Equal(t, "bearer", reg.TokenType)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", pb.LoginRequest{Email: "alice@example.com", Password: "Passw0rd"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login pb.TokenResponse
	decodeBody(t, rec, &login)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", pb.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed pb.RefreshResponse
	decodeBody(t, rec, &refreshed)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me pb.UserResponse
	decodeBody(t, rec, &me)
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(t, http.MethodPost, "/api/v1/auth/logout", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorStatuses(t *testing.T) {
	f := newAPI(t)
	f.register(t, "alice@example.com", "alice")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"duplicate email", http.MethodPost, "/api/v1/auth/register", "", pb.RegisterRequest{Email: "alice@example.com", Username: "al2", Password: "Passw0rd"}, http.StatusConflict},
		{"weak password", http.MethodPost, "/api/v1/auth/register", "", pb.RegisterRequest{Email: "b@example.com", Username: "bob", Password: "password"}, http.StatusUnprocessableEntity},
		{"wrong password", http.MethodPost, "/api/v1/auth/login", "", pb.LoginRequest{Email: "alice@example.com", Password: "Wrong1234"}, http.StatusUnauthorized},
		{"refresh with garbage", http.MethodPost, "/api/v1/auth/refresh", "", pb.RefreshRequest{RefreshToken: "x.y.z"}, http.StatusUnauthorized},
		{"me without token", http.MethodGet, "/api/v1/users/me", "", nil, http.StatusUnauthorized},
		{"me with bad token", http.MethodGet, "/api/v1/users/me", "not-a-jwt", nil, http.StatusUnauthorized},
		{"list without token", http.MethodGet, "/api/v1/users", "", nil, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())

			var body ErrorResponse
			decodeBody(t, rec, &body)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)

			if tc.want == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	f := newAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "malformed request body", body.Message)
}

func TestUpdateMeAndChangePassword(t *testing.T) {
	f := newAPI(t)
	tok := f.register(t, "alice@example.com", "alice")
	f.register(t, "bob@example.com", "bob")

	taken := "bob"
	rec := f.do(t, http.MethodPut, "/api/v1/users/me", tok.AccessToken, pb.UpdateMeRequest{Username: &taken})
	assert.Equal(t, http.StatusConflict, rec.Code)

	name := "Alice"
	rec = f.do(t, http.MethodPut, "/api/v1/users/me", tok.AccessToken, pb.UpdateMeRequest{FullName: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	var me pb.UserResponse
	decodeBody(t, rec, &me)
	require.NotNil(t, me.FullName)
	assert.Equal(t, "Alice", *me.FullName)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/change-password", tok.AccessToken, pb.ChangePasswordRequest{OldPassword: "Passw0rd", NewPassword: "weak"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/change-password", tok.AccessToken, pb.ChangePasswordRequest{OldPassword: "Passw0rd", NewPassword: "N3wPassword"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", pb.LoginRequest{Email: "alice@example.com", Password: "N3wPassword"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	f := newAPI(t)
	admin := f.adminToken(t)
	user := f.register(t, "bob@example.com", "bob")

	rec := f.do(t, http.MethodGet, "/api/v1/users", user.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/users?skip=0&limit=1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page []pb.UserResponse
	decodeBody(t, rec, &page)
	assert.Len(t, page, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &page)
	assert.Len(t, page, 2)

	rec = f.do(t, http.MethodGet, "/api/v1/users?limit=500", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/users?limit=0", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/users?limit=", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/users?skip=abc", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me", user.AccessToken, nil)
	var bob pb.UserResponse
	decodeBody(t, rec, &bob)

	rec = f.do(t, http.MethodGet, "/api/v1/users/"+bob.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/users/unknown", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/users/"+bob.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/v1/users/"+bob.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/v1/users/unknown", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me", user.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
