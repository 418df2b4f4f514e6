package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/generalexpress/booking-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *jwt.Service {
	return jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func authTestRouter(jwtService *jwt.Service) *gin.Engine {
	router := gin.New()
	router.GET("/protected", AuthMiddleware(jwtService), func(c *gin.Context) {
		userCtx, _ := GetUserContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userCtx.UserID, "role": userCtx.Role})
	})
	router.GET("/optional", OptionalAuthMiddleware(jwtService), func(c *gin.Context) {
		if userCtx, exists := GetUserContext(c); exists {
			c.JSON(http.StatusOK, gin.H{"user_id": userCtx.UserID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})
	router.GET("/staff-only", AuthMiddleware(jwtService), RequireRole("staff", "admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	router := authTestRouter(jwtService)

	t.Run("Missing Header", func(t *testing.T) {
		w := doRequest(router, "/protected", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_AUTH_HEADER")
	})

	t.Run("Wrong Scheme", func(t *testing.T) {
		w := doRequest(router, "/protected", "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
	})

	t.Run("Empty Token", func(t *testing.T) {
		w := doRequest(router, "/protected", "Bearer ")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
	})

	t.Run("Invalid Token", func(t *testing.T) {
		w := doRequest(router, "/protected", "Bearer not-a-real-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("Refresh Token Rejected", func(t *testing.T) {
		refresh, err := jwtService.GenerateRefreshToken(uuid.New(), "marie@example.com")
		require.NoError(t, err)

		w := doRequest(router, "/protected", "Bearer "+refresh)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid Token Sets Context", func(t *testing.T) {
		userID := uuid.New()
		token, err := jwtService.GenerateAccessToken(userID, "marie@example.com", "customer")
		require.NoError(t, err)

		w := doRequest(router, "/protected", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), "customer")
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	router := authTestRouter(jwtService)

	t.Run("Anonymous Passes Through", func(t *testing.T) {
		w := doRequest(router, "/optional", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "null")
	})

	t.Run("Bad Token Passes Through Anonymously", func(t *testing.T) {
		w := doRequest(router, "/optional", "Bearer garbage")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "null")
	})

	t.Run("Valid Token Resolves User", func(t *testing.T) {
		userID := uuid.New()
		token, err := jwtService.GenerateAccessToken(userID, "marie@example.com", "customer")
		require.NoError(t, err)

		w := doRequest(router, "/optional", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})
}

func TestRequireRole(t *testing.T) {
	jwtService := newTestJWTService()
	router := authTestRouter(jwtService)

	t.Run("Allowed Role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(uuid.New(), "staff@example.com", "staff")
		require.NoError(t, err)

		w := doRequest(router, "/staff-only", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Forbidden Role", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(uuid.New(), "marie@example.com", "customer")
		require.NoError(t, err)

		w := doRequest(router, "/staff-only", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
	})
}
