package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"threadspire/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	current := &models.User{ID: "user-1"}
	auth := NewJWTAuth(testSecret, time.Hour, func() *models.User { return current })

	app := fiber.New()
	app.Get("/test", auth.Required(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": UserID(c)})
	})

	valid, err := auth.Issue("user-1")
	require.NoError(t, err)
	other, err := auth.Issue("user-2")
	require.NoError(t, err)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	expired := sign(jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}, jwt.SigningMethodHS256, []byte(testSecret))
	noExpiry := sign(jwt.RegisteredClaims{Subject: "user-1"}, jwt.SigningMethodHS256, []byte(testSecret))
	wrongKey := sign(jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}, jwt.SigningMethodHS256, []byte("another-secret"))

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized},
		{"Missing Expiry", "Bearer " + noExpiry, http.StatusUnauthorized},
		{"Wrong Key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"Other User", "Bearer " + other, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "user-1", body["userID"])
			} else {
				assert.Equal(t, models.CodeNotAuthenticated, body["code"])
			}
		})
	}
}

func TestAuthRequired_AfterLogout(t *testing.T) {
	t.Parallel()
	var current *models.User
	auth := NewJWTAuth(testSecret, 0, func() *models.User { return current })
	token, err := auth.Issue("user-1")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", auth.Required(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthOptional(t *testing.T) {
	t.Parallel()
	current := &models.User{ID: "user-1"}
	auth := NewJWTAuth(testSecret, time.Hour, func() *models.User { return current })

	app := fiber.New()
	app.Get("/test", auth.Optional(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": UserID(c)})
	})

	valid, err := auth.Issue("user-1")
	require.NoError(t, err)
	other, err := auth.Issue("user-2")
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		expected   string
	}{
		{"Session User", "Bearer " + valid, "user-1"},
		{"Anonymous", "", ""},
		{"Malformed Token", "Bearer malformed.token.here", ""},
		{"Other User", "Bearer " + other, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expected, body["userID"])
		})
	}
}

func TestJWTAuth_Subject(t *testing.T) {
	t.Parallel()
	auth := NewJWTAuth(testSecret, time.Minute, nil)
	token, err := auth.Issue("abc")
	require.NoError(t, err)

	sub, err := auth.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", sub)

	_, err = NewJWTAuth("different-secret", time.Minute, nil).Subject(token)
	assert.Error(t, err)
}
