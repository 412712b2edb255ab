package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelchat/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var gotUser string
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/me", func(c *gin.Context) {
		userID, _ := services.UserIDFromContext(c.Request.Context())
		gotUser = userID
		c.Status(http.StatusOK)
	})
	return r, &gotUser
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("bearer token puts subject on context", func(t *testing.T) {
		r, gotUser := authTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "alice", testSecret))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", *gotUser)
	})

	t.Run("query token accepted for websocket dials", func(t *testing.T) {
		r, gotUser := authTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/me?token="+signToken(t, "bob", testSecret), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bob", *gotUser)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		r, _ := authTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret rejected", func(t *testing.T) {
		r, _ := authTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "alice", "wrong"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		r, _ := authTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
