package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"authkit"
	"authkit/jobs"
	"authkit/password"
)

type fakeProvider struct {
	mu    sync.Mutex
	users map[string]*authkit.UserRecord
}

func (p *fakeProvider) GetUserByIdentifier(_ context.Context, identifier string) (*authkit.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.Identifier == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (p *fakeProvider) GetUserByID(_ context.Context, userID string) (*authkit.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (p *fakeProvider) CreateUser(_ context.Context, input authkit.CreateUserInput) (*authkit.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.Identifier == input.Identifier {
			return nil, authkit.ErrDuplicateIdentifier
		}
	}
	u := &authkit.UserRecord{
		UserID:       "u" + input.Identifier,
		Identifier:   input.Identifier,
		PasswordHash: input.PasswordHash,
		Role:         "user",
	}
	p.users[u.UserID] = u
	cp := *u
	return &cp, nil
}

func (p *fakeProvider) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok {
		return authkit.ErrUserNotFound
	}
	u.PasswordHash = newHash
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := authkit.DefaultConfig()
	cfg.JWT.Secret = []byte("httpapi-test-secret")
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}

	engine, err := authkit.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(&fakeProvider{users: make(map[string]*authkit.UserRecord)}).
		Build()
	require.NoError(t, err)

	dispatcher := jobs.NewDispatcher(rdb, zerolog.Nop())
	return NewServer(engine, dispatcher, zerolog.Nop()).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthFlowStatusCodes(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "POST", "/auth/register",
		`{"identifier":"a@x.com","secret":"Secret123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created authkit.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Tokens.RefreshToken)

	// Duplicate register conflicts.
	rec = doJSON(t, h, "POST", "/auth/register",
		`{"identifier":"a@x.com","secret":"other"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Wrong secret and unknown identifier map to the same 401.
	rec = doJSON(t, h, "POST", "/auth/login",
		`{"identifier":"a@x.com","secret":"wrong"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, h, "POST", "/auth/login",
		`{"identifier":"nobody","secret":"Secret123"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, "POST", "/auth/login",
		`{"identifier":"a@x.com","secret":"Secret123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var login authkit.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEqual(t, created.Tokens.RefreshToken, login.Tokens.RefreshToken)

	// Refresh rotates once; replay is 401.
	body := `{"refreshToken":"` + login.Tokens.RefreshToken + `"}`
	rec = doJSON(t, h, "POST", "/auth/refresh", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, "POST", "/auth/refresh", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// /auth/me with and without a valid bearer token.
	auth := http.Header{"Authorization": {"Bearer " + created.Tokens.AccessToken}}
	rec = doJSON(t, h, "GET", "/auth/me", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, "GET", "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout is 204 even for garbage.
	rec = doJSON(t, h, "POST", "/auth/logout", `{"refreshToken":"junk"}`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRegisterShortSecretIsBadRequest(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "POST", "/auth/register",
		`{"identifier":"b@x.com","secret":"pw"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, "POST", "/jobs/email",
		`{"name":"send-email","payload":{"to":"a@x.com","subject":"s","body":"b"}}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var enq struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enq))
	require.NotEmpty(t, enq.JobID)

	rec = doJSON(t, h, "GET", "/jobs/email/"+enq.JobID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, "GET", "/jobs/email/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown queue name is a 404 everywhere.
	rec = doJSON(t, h, "POST", "/jobs/payments", `{"name":"charge","payload":{}}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, h, "GET", "/jobs/payments/1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, h, "GET", "/jobs/payments/stats", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Known queue, unknown job id.
	rec = doJSON(t, h, "GET", "/jobs/email/99999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
