package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcourier/internal/auth"
	"bookcourier/internal/model"
)

const testSecret = "middleware-test-secret"

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token stores identity", func(t *testing.T) {
		tok, err := auth.NewAccessToken(testSecret, "alice@example.com", model.RoleUser, 60)
		require.NoError(t, err)

		rec, c := invoke(t, JWTAuth(testSecret), "Bearer "+tok.Token)
		assert.Equal(t, http.StatusOK, rec.Code)

		id, err := Identity(c)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", id.Email)
		assert.Equal(t, model.RoleUser, id.Role)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		rec, _ := invoke(t, JWTAuth(testSecret), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer scheme is 401", func(t *testing.T) {
		rec, _ := invoke(t, JWTAuth(testSecret), "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret is 401", func(t *testing.T) {
		tok, err := auth.NewAccessToken("other-secret", "alice@example.com", model.RoleUser, 60)
		require.NoError(t, err)
		rec, _ := invoke(t, JWTAuth(testSecret), "Bearer "+tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is 401", func(t *testing.T) {
		tok, err := auth.NewAccessToken(testSecret, "alice@example.com", model.RoleUser, -1)
		require.NoError(t, err)
		rec, _ := invoke(t, JWTAuth(testSecret), "Bearer "+tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	t.Run("empty context", func(t *testing.T) {
		_, err := Identity(c)
		assert.ErrorIs(t, err, ErrNoIdentity)
	})

	t.Run("unknown role", func(t *testing.T) {
		c.Set("email", "alice@example.com")
		c.Set("role", "superuser")
		_, err := Identity(c)
		assert.ErrorIs(t, err, ErrNoIdentity)
	})
}

func TestRequireRole(t *testing.T) {
	run := func(role string, mw echo.MiddlewareFunc) int {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if role != "" {
			c.Set("role", role)
		}
		rec := c.Response().Writer.(*httptest.ResponseRecorder)
		h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		if err := h(c); err != nil {
			t.Fatal(err)
		}
		return rec.Code
	}

	mw := RequireRole(model.RoleAdmin)
	assert.Equal(t, http.StatusOK, run("admin", mw))
	assert.Equal(t, http.StatusForbidden, run("user", mw))
	assert.Equal(t, http.StatusForbidden, run("librarian", mw))
	assert.Equal(t, http.StatusForbidden, run("", mw))

	both := RequireRole(model.RoleUser, model.RoleLibrarian)
	assert.Equal(t, http.StatusOK, run("user", both))
	assert.Equal(t, http.StatusOK, run("librarian", both))
	assert.Equal(t, http.StatusForbidden, run("admin", both))
}
