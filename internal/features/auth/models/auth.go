package models

import (
	"time"

	usermodels "survey-rewards-backend/internal/features/user/models"
)

// ChallengeRequest asks for a login nonce for a wallet public key.
type ChallengeRequest struct {
	PublicKey string `json:"public_key" binding:"required"`
}

// ChallengeResponse carries the nonce the wallet must sign.
type ChallengeResponse struct {
	Challenge string    `json:"challenge"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WalletLoginRequest presents the signed nonce.
type WalletLoginRequest struct {
	PublicKey string `json:"public_key" binding:"required"`
	Signature string `json:"signature" binding:"required"` // base64 over the challenge
}

// RegisterRequest is the email/password credential path.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// PasswordLoginRequest authenticates an email/password account.
type PasswordLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned on successful authentication.
type TokenResponse struct {
	Token string                   `json:"token"`
	User  *usermodels.UserResponse `json:"user"`
}
