package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"survey-rewards-backend/internal/features/auth/models"
	"survey-rewards-backend/internal/features/auth/service"
)

type AuthHandler struct {
	service *service.Service
}

func NewAuthHandler(service *service.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", h.challenge)
		auth.POST("/login", h.walletLogin)
		auth.POST("/register", h.register)
		auth.POST("/password-login", h.passwordLogin)
	}
}

// @Summary Request a wallet login challenge
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ChallengeRequest true "Public key"
// @Success 200 {object} models.ChallengeResponse
// @Router /auth/challenge [post]
func (h *AuthHandler) challenge(c *gin.Context) {
	var req models.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Challenge(c.Request.Context(), req.PublicKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPublicKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue challenge"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Log in with a signed challenge
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.WalletLoginRequest true "Public key and signature"
// @Success 200 {object} models.TokenResponse
// @Router /auth/login [post]
func (h *AuthHandler) walletLogin(c *gin.Context) {
	var req models.WalletLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.WalletLogin(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPublicKey):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrChallengeNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "challenge not found or expired"})
		case errors.Is(err, service.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Register with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Credentials"
// @Success 201 {object} models.TokenResponse
// @Router /auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordLoginRequest true "Credentials"
// @Success 200 {object} models.TokenResponse
// @Router /auth/password-login [post]
func (h *AuthHandler) passwordLogin(c *gin.Context) {
	var req models.PasswordLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.PasswordLogin(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
