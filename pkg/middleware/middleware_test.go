package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/service"
	"fuel-pricing/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRevocation struct{ revoked map[string]bool }

func (f fakeRevocation) EnsureNotRevoked(_ context.Context, c *service.JwtCustomClaim) error {
	if f.revoked[c.ID] {
		return apperrors.ErrTokenRevoked
	}
	return nil
}

type fakePermissions map[uint64]map[string]bool

func (f fakePermissions) GetRolePermissionsMap(_ context.Context, roleID uint64) (map[string]bool, error) {
	return f[roleID], nil
}

func newAuthEcho(t *testing.T, revoked map[string]bool) (*echo.Echo, service.JWTService) {
	t.Helper()
	jwtSvc := service.NewJWTService("test-secret", time.Minute, time.Hour)
	mw := NewAuthMiddleware(jwtSvc, fakeRevocation{revoked: revoked},
		fakePermissions{3: {"suggestions:view": true}}, zap.NewNop())

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := utils.GetUserIDFromCtx(ctx)
		require.NoError(t, err)
		perms, err := utils.GetPermissionsMapFromCtx(ctx)
		require.NoError(t, err)
		return c.JSON(http.StatusOK, map[string]interface{}{"user": userID, "perms": perms, "jti": utils.GetTokenIDFromCtx(ctx)})
	}, mw.Auth)
	return e, jwtSvc
}

func doGet(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthAcceptsAccessToken(t *testing.T) {
	e, jwtSvc := newAuthEcho(t, nil)
	pair, err := jwtSvc.GenerateTokens(11, 3, "")
	require.NoError(t, err)

	rec := doGet(e, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":11`)
	assert.Contains(t, rec.Body.String(), `"suggestions:view":true`)
	assert.Contains(t, rec.Body.String(), pair.AccessJTI)
}

func TestAuthRejections(t *testing.T) {
	jwtSvc := service.NewJWTService("test-secret", time.Minute, time.Hour)
	pair, err := jwtSvc.GenerateTokens(11, 3, "")
	require.NoError(t, err)

	e, _ := newAuthEcho(t, map[string]bool{})
	assert.Equal(t, http.StatusUnauthorized, doGet(e, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(e, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(e, "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(e, "Bearer "+pair.RefreshToken).Code)

	revokedEcho, _ := newAuthEcho(t, map[string]bool{pair.AccessJTI: true})
	rec := doGet(revokedEcho, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token revoked")
}

func TestRateLimitByIP(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimitByIP(2, time.Minute))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecureHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecureHeaders(false))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
