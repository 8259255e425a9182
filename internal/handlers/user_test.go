package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/middlewares"
	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/utils"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserService struct {
	removed []uint64
}

func (s *fakeUserService) FindByID(ctx context.Context, userID uint64) (*models.User, error) {
	return &models.User{ID: userID, Username: "alice"}, nil
}

func (s *fakeUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return []models.User{{ID: 1, Username: "alice"}}, nil
}

func (s *fakeUserService) RemoveUser(ctx context.Context, userID uint64) error {
	s.removed = append(s.removed, userID)
	return nil
}

const jwtTestSecret = "jwt-test-secret"

func newUserTestRouter(t *testing.T) (*gin.Engine, *fakeUserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: jwtTestSecret, Issuer: "cloudshare", ExpiresIn: time.Hour},
	}
	svc := &fakeUserService{}
	h := NewUserHandler(svc)

	router := gin.New()
	authenticated := router.Group("/api/v1")
	authenticated.Use(middlewares.AuthMiddleware(cfg))
	authenticated.GET("/user", h.ListUsers)
	authenticated.DELETE("/user/:id", h.DeleteUser)
	return router, svc
}

func bearerToken(t *testing.T, userID uint64, username string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, username, jwtTestSecret, "cloudshare", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router, _ := newUserTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	router, _ := newUserTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router, _ := newUserTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", bearerToken(t, 1, "alice"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUserOwnershipGuard(t *testing.T) {
	router, svc := newUserTestRouter(t)

	// 用户5不能注销用户6的账号
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/user/6", nil)
	req.Header.Set("Authorization", bearerToken(t, 5, "mallory"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, xerr.PermissionDeniedCode, decodeEnvelope(t, w).Code)
	assert.Empty(t, svc.removed)

	// 本人注销放行
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/user/5", nil)
	req.Header.Set("Authorization", bearerToken(t, 5, "mallory"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint64{5}, svc.removed)
}
