package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"survey-rewards-backend/internal/common/middleware"
	"survey-rewards-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes wires the user endpoints. The activation endpoint is
// reachable without a session (it runs before the user can do anything
// else) but sits behind the rate limiter; sync and me require auth.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, auth, rateLimit gin.HandlerFunc) {
	users := router.Group("/users")
	{
		users.POST("/:id/activate", rateLimit, h.activate)
		users.POST("/:id/sync", auth, h.sync)
		users.GET("/me", auth, h.me)
	}
}

// @Summary Try to activate a user account
// @Description Runs the activation check against the chain activity oracle
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} service.ActivationResult "Account is active"
// @Success 201 {object} service.ActivationResult "Account is banned"
// @Success 202 {object} service.ActivationResult "Attempt consumed, not activated"
// @Router /users/{id}/activate [post]
func (h *UserHandler) activate(c *gin.Context) {
	result, err := h.service.TryActivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		case errors.Is(err, service.ErrNoPublicAddress):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "account has no wallet address"})
		case errors.Is(err, service.ErrOracleUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "activity check unavailable, try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		}
		return
	}

	// Status codes are part of the external contract: 200 active,
	// 201 banned, 202 attempt consumed.
	switch result.Status {
	case service.ActivationActive:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": result.Message})
	case service.ActivationBanned:
		c.JSON(http.StatusCreated, gin.H{"success": false, "message": result.Message})
	default:
		c.JSON(http.StatusAccepted, gin.H{"success": false, "message": result.Message})
	}
}

// @Summary Refresh the user's on-chain standing
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse
// @Router /users/{id}/sync [post]
func (h *UserHandler) sync(c *gin.Context) {
	if middleware.UserID(c) != c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "cannot sync another user"})
		return
	}

	user, err := h.service.SyncStanding(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		case errors.Is(err, service.ErrNoPublicAddress):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "account has no wallet address"})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "account not found on chain"})
		case errors.Is(err, service.ErrLedgerUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "ledger unavailable, try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "standing updated", "user": user})
}

// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Router /users/me [get]
func (h *UserHandler) me(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}
