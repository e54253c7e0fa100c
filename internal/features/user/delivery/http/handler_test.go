package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-rewards-backend/internal/common/middleware"
	"survey-rewards-backend/internal/features/user/models"
	"survey-rewards-backend/internal/features/user/service"
)

type stubUserService struct {
	result *service.ActivationResult
	err    error
	user   *models.UserResponse
}

func (s *stubUserService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	if s.user == nil {
		return nil, service.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubUserService) TryActivate(ctx context.Context, userID string) (*service.ActivationResult, error) {
	return s.result, s.err
}

func (s *stubUserService) SyncStanding(ctx context.Context, userID string) (*models.UserResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func setupRouter(svc service.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	fakeAuth := func(c *gin.Context) { c.Set(middleware.ContextUserID, "u1") }
	passthrough := func(c *gin.Context) {}
	NewUserHandler(svc).RegisterRoutes(router.Group("/api/v1"), fakeAuth, passthrough)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestActivate_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		result     *service.ActivationResult
		err        error
		wantCode   int
		wantOK     bool
		wantMsgKey string
	}{
		{
			name:     "activated",
			result:   &service.ActivationResult{Status: service.ActivationActive, Message: "account activated"},
			wantCode: http.StatusOK,
			wantOK:   true,
		},
		{
			name:     "already active",
			result:   &service.ActivationResult{Status: service.ActivationActive, Message: "account already active"},
			wantCode: http.StatusOK,
			wantOK:   true,
		},
		{
			name:     "banned",
			result:   &service.ActivationResult{Status: service.ActivationBanned, Message: "exceeded attempts, banned"},
			wantCode: http.StatusCreated,
		},
		{
			name:     "attempt consumed",
			result:   &service.ActivationResult{Status: service.ActivationRejected, Message: "not enough on-chain activity"},
			wantCode: http.StatusAccepted,
		},
		{
			name:     "unknown user",
			err:      service.ErrUserNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "no wallet address",
			err:      service.ErrNoPublicAddress,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "oracle down",
			err:      service.ErrOracleUnavailable,
			wantCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&stubUserService{result: tt.result, err: tt.err})
			w, body := doRequest(t, router, http.MethodPost, "/api/v1/users/u1/activate")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantOK, body["success"])
			if tt.result != nil {
				assert.Equal(t, tt.result.Message, body["message"])
			}
		})
	}
}

func TestSync(t *testing.T) {
	router := setupRouter(&stubUserService{user: &models.UserResponse{ID: "u1", Balance: "42"}})
	w, body := doRequest(t, router, http.MethodPost, "/api/v1/users/u1/sync")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	// Only the token's own account may be synced.
	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/users/other/sync")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSync_LedgerDown(t *testing.T) {
	router := setupRouter(&stubUserService{err: service.ErrLedgerUnavailable})
	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/users/u1/sync")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMe(t *testing.T) {
	router := setupRouter(&stubUserService{user: &models.UserResponse{ID: "u1", Active: true}})
	w, body := doRequest(t, router, http.MethodGet, "/api/v1/users/me")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, true, body["active"])
}
