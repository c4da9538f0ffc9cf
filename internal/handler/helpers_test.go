package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msomdec/jobly/internal/handler"
	"github.com/msomdec/jobly/internal/metrics"
	"github.com/msomdec/jobly/internal/repository/sqlite"
	"github.com/msomdec/jobly/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testAPI struct {
	srv    *httptest.Server
	db     *sqlite.DB
	auth   *service.AuthService
	tokens *service.TokenIssuer
}

func newTestServices(t *testing.T) (*service.AuthService, *service.JobService, *service.ApplicationService, *sqlite.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fresh, err := db.EnsureSchema(ctx)
	require.NoError(t, err)
	require.True(t, fresh)

	// Use cost 4 for fast tests.
	hasher := service.NewBcryptHasher(4)
	require.NoError(t, sqlite.Seed(ctx, db, hasher))

	tokens := service.NewTokenIssuer(testJWTSecret, 0)
	return service.NewAuthService(db.Users(), hasher, tokens),
		service.NewJobService(db.Jobs()),
		service.NewApplicationService(db.Applications()),
		db
}

func newTestAPI(t *testing.T, opts handler.Options) *testAPI {
	t.Helper()
	auth, jobs, apps, db := newTestServices(t)
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 64 * 1024
	}

	srv := httptest.NewServer(handler.Routes(auth, jobs, apps, opts))
	t.Cleanup(srv.Close)

	return &testAPI{
		srv:    srv,
		db:     db,
		auth:   auth,
		tokens: service.NewTokenIssuer(testJWTSecret, 0),
	}
}

// do sends a request with an optional JSON body and bearer token and decodes
// the JSON response into out when out is non-nil.
func (a *testAPI) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"user"`
	Error string `json:"error"`
}

func (a *testAPI) login(t *testing.T, email, password string) loginResponse {
	t.Helper()
	var resp loginResponse
	status := a.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	require.Equal(t, http.StatusOK, status, "login %s", email)
	require.NotEmpty(t, resp.Token)
	return resp
}
