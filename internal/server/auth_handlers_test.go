package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, app *fiber.App, path string, body any, header string) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	t.Parallel()
	_, app, _ := newTestApp(t)

	t.Run("creates account and returns token", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/register", map[string]string{
			"username": "inkreader",
			"password": "turning-pages",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			Token string `json:"token"`
			User  struct {
				Username string `json:"username"`
				Password string `json:"password"`
			} `json:"user"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, "inkreader", body.User.Username)
		// Password hash must never serialize
		assert.Empty(t, body.User.Password)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/register", map[string]string{
			"username": "inkreader",
			"password": "another-pass",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("rejects short password", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/register", map[string]string{
			"username": "another",
			"password": "abc",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects malformed username", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/register", map[string]string{
			"username": "bad name!",
			"password": "turning-pages",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	_, app, db := newTestApp(t)
	createTestUser(t, db, "nightowl", "moonlit-pages", false)

	t.Run("valid credentials", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/login", map[string]string{
			"username": "nightowl",
			"password": "moonlit-pages",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/login", map[string]string{
			"username": "nightowl",
			"password": "wrong",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/login", map[string]string{
			"username": "ghost",
			"password": "whatever",
		}, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestApp(t)
	user := createTestUser(t, db, "nightowl", "moonlit-pages", false)

	t.Run("valid token gets a fresh one", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/refresh", nil, bearerToken(t, srv, user))
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Token)
	})

	t.Run("missing token", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/refresh", nil, "")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := postJSON(t, app, "/api/auth/refresh", nil, "Bearer not-a-jwt")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	srv, _ := newTestServer(t)
	mr := miniredis.RunT(t)
	srv.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := newTestAppFor(srv)

	user := createTestUser(t, srv.db, "nightowl", "moonlit-pages", false)
	header := bearerToken(t, srv, user)

	// Token works before logout.
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", header)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/api/auth/logout", nil, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Same token is now blacklisted.
	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", header)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRevokedTokenLosesReadVisibility(t *testing.T) {
	srv, _ := newTestServer(t)
	mr := miniredis.RunT(t)
	srv.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := newTestAppFor(srv)

	admin := createTestUser(t, srv.db, "siteowner", "press-start", true)
	hidden := models.Work{Title: "Tucked Away", Content: "text", Author: admin.Username, SubmittedBy: admin.ID, Category: models.CategoryProse, Status: models.StatusPublished, IsHidden: true}
	require.NoError(t, srv.db.Create(&hidden).Error)

	header := bearerToken(t, srv, admin)
	path := "/api/works/" + itoa(hidden.ID)

	// The admin token resolves the hidden work on the public read route.
	require.Equal(t, http.StatusOK, getJSON(t, app, path, header, nil))

	resp := postJSON(t, app, "/api/auth/logout", nil, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// After logout the same token identifies nobody, even on routes that
	// only treat it as optional.
	assert.Equal(t, http.StatusNotFound, getJSON(t, app, path, header, nil))
}
