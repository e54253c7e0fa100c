package service

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"survey-rewards-backend/internal/common/logger"
	"survey-rewards-backend/internal/features/auth/models"
	"survey-rewards-backend/internal/features/auth/repository"
	usermodels "survey-rewards-backend/internal/features/user/models"
	userrepo "survey-rewards-backend/internal/features/user/repository"
)

var (
	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrChallengeNotFound  = errors.New("challenge not found or expired")
	ErrInvalidSignature   = errors.New("signature verification failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service issues login challenges, verifies wallet signatures and mints
// session tokens. Email/password is the alternate credential path; the two
// are mutually exclusive per account.
type Service struct {
	challenges   repository.ChallengeRepository
	users        userrepo.UserRepository
	jwtSecret    []byte
	tokenTTL     time.Duration
	challengeTTL time.Duration
}

func NewService(challenges repository.ChallengeRepository, users userrepo.UserRepository, jwtSecret string, tokenTTL, challengeTTL time.Duration) *Service {
	return &Service{
		challenges:   challenges,
		users:        users,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		challengeTTL: challengeTTL,
	}
}

// Challenge issues a fresh single-use nonce for the public key.
func (s *Service) Challenge(ctx context.Context, publicKey string) (*models.ChallengeResponse, error) {
	if _, err := ed25519KeyBytes(publicKey); err != nil {
		return nil, err
	}

	challenge := uuid.New().String()
	if err := s.challenges.Save(ctx, publicKey, challenge, s.challengeTTL); err != nil {
		return nil, fmt.Errorf("failed to save challenge: %w", err)
	}

	return &models.ChallengeResponse{
		Challenge: challenge,
		ExpiresAt: time.Now().Add(s.challengeTTL),
	}, nil
}

// WalletLogin verifies the signed nonce, creates the account on first
// login and returns a session token. The nonce is consumed regardless of
// the verification outcome so a captured signature cannot be replayed.
func (s *Service) WalletLogin(ctx context.Context, req *models.WalletLoginRequest) (*models.TokenResponse, error) {
	keyBytes, err := ed25519KeyBytes(req.PublicKey)
	if err != nil {
		return nil, err
	}

	challenge, err := s.challenges.Get(ctx, req.PublicKey)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if err := s.challenges.Delete(ctx, req.PublicKey); err != nil {
		logger.Warn().Err(err).Msg("failed to delete spent challenge")
	}

	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not base64", ErrInvalidSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(keyBytes), []byte(challenge), signature) {
		return nil, ErrInvalidSignature
	}

	user, err := s.getOrCreateWalletUser(ctx, req.PublicKey)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{Token: token, User: usermodels.ToUserResponse(user)}, nil
}

// Register creates an email/password account. New accounts start inactive
// with zero activation attempts.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &usermodels.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrUserExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{Token: token, User: usermodels.ToUserResponse(user)}, nil
}

// PasswordLogin authenticates an email/password account.
func (s *Service) PasswordLogin(ctx context.Context, req *models.PasswordLoginRequest) (*models.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{Token: token, User: usermodels.ToUserResponse(user)}, nil
}

func (s *Service) getOrCreateWalletUser(ctx context.Context, publicKey string) (*usermodels.User, error) {
	user, err := s.users.GetByPublicAddress(ctx, publicKey)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, userrepo.ErrUserNotFound) {
		return nil, err
	}

	user = &usermodels.User{
		ID:            uuid.New().String(),
		PublicAddress: strings.ToLower(publicKey),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrUserExists) {
			// Lost a create race against a concurrent first login.
			return s.users.GetByPublicAddress(ctx, publicKey)
		}
		return nil, err
	}
	logger.Info().Str("user_id", user.ID).Msg("wallet user created on first login")
	return user, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ed25519KeyBytes decodes a hex public key and strips the algorithm tag.
// Only ed25519 (tag 01) keys can sign login challenges here.
func ed25519KeyBytes(publicKey string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(publicKey)))
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", ErrInvalidPublicKey)
	}
	if len(raw) != ed25519.PublicKeySize+1 || raw[0] != 0x01 {
		return nil, fmt.Errorf("%w: expected a tagged ed25519 key", ErrInvalidPublicKey)
	}
	return raw[1:], nil
}
