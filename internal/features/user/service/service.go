package service

import (
	"context"
	"errors"
	"time"

	"survey-rewards-backend/internal/common/logger"
	"survey-rewards-backend/internal/features/user/models"
	"survey-rewards-backend/internal/features/user/repository"
	"survey-rewards-backend/internal/platform/casper"
	"survey-rewards-backend/internal/platform/deploys"
)

// ActivationStatus is the outcome of a tryActivate call.
type ActivationStatus string

const (
	// ActivationActive: the account is active (already was, or became so now).
	ActivationActive ActivationStatus = "active"
	// ActivationRejected: a conclusive negative oracle result consumed an
	// attempt.
	ActivationRejected ActivationStatus = "rejected"
	// ActivationBanned: attempts exhausted, terminal.
	ActivationBanned ActivationStatus = "banned"
)

// ActivationResult is the structured business outcome of an activation call.
type ActivationResult struct {
	Status   ActivationStatus `json:"status"`
	Message  string           `json:"message"`
	Attempts int              `json:"attempts"`
}

// ActivityOracle answers "has this account ever deployed anything".
type ActivityOracle interface {
	GetDeployCount(ctx context.Context, publicKey string) (int, error)
}

// Ledger produces a consistent standing snapshot for an account.
type Ledger interface {
	FetchStanding(ctx context.Context, publicKey string) (*casper.Standing, error)
}

type UserService interface {
	GetUser(ctx context.Context, id string) (*models.UserResponse, error)
	TryActivate(ctx context.Context, userID string) (*ActivationResult, error)
	SyncStanding(ctx context.Context, userID string) (*models.UserResponse, error)
}

type userService struct {
	repo   repository.UserRepository
	oracle ActivityOracle
	ledger Ledger
}

func NewUserService(repo repository.UserRepository, oracle ActivityOracle, ledger Ledger) UserService {
	return &userService{
		repo:   repo,
		oracle: oracle,
		ledger: ledger,
	}
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return models.ToUserResponse(user), nil
}

// errBannedInTx signals that the transactional re-check found the account
// banned; translated to an ActivationResult, never surfaced to callers.
var errBannedInTx = errors.New("banned")

// TryActivate runs the activation state machine. The oracle is consulted
// only when the account is neither active nor banned; a transport failure
// talking to it is surfaced as ErrOracleUnavailable and does not consume an
// attempt. The attempts counter moves only inside a transactional update,
// so concurrent calls cannot push it past the cap.
func (s *userService) TryActivate(ctx context.Context, userID string) (*ActivationResult, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if user.Active {
		return &ActivationResult{
			Status:   ActivationActive,
			Message:  "account already active",
			Attempts: user.Attempts,
		}, nil
	}

	// Fast-fail for banned accounts: no oracle call.
	if user.Banned() {
		return &ActivationResult{
			Status:   ActivationBanned,
			Message:  "exceeded attempts, banned",
			Attempts: user.Attempts,
		}, nil
	}

	if user.PublicAddress == "" {
		return nil, ErrNoPublicAddress
	}

	count, err := s.oracle.GetDeployCount(ctx, user.PublicAddress)
	if err != nil {
		if errors.Is(err, deploys.ErrUnavailable) {
			logger.Warn().Err(err).Str("user_id", userID).Msg("activity oracle call failed")
			return nil, ErrOracleUnavailable
		}
		return nil, err
	}

	// At least one page of deploys is sufficient proof of real usage.
	sufficient := count >= 1

	updated, err := s.repo.UpdateActivation(ctx, userID, func(u *models.User) error {
		if u.Active {
			return nil
		}
		if u.Banned() {
			return errBannedInTx
		}
		if sufficient {
			u.Active = true
		} else {
			u.Attempts++
		}
		u.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		if errors.Is(err, errBannedInTx) {
			return &ActivationResult{
				Status:   ActivationBanned,
				Message:  "exceeded attempts, banned",
				Attempts: models.MaxActivationAttempts,
			}, nil
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if updated.Active {
		return &ActivationResult{
			Status:   ActivationActive,
			Message:  "account activated",
			Attempts: updated.Attempts,
		}, nil
	}
	return &ActivationResult{
		Status:   ActivationRejected,
		Message:  "not enough on-chain activity",
		Attempts: updated.Attempts,
	}, nil
}

// SyncStanding refreshes the cached standing from the ledger. On any fetch
// failure the existing cache is left untouched and the error is surfaced;
// a sync must never zero out a user's standing.
func (s *userService) SyncStanding(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.PublicAddress == "" {
		return nil, ErrNoPublicAddress
	}

	standing, err := s.ledger.FetchStanding(ctx, user.PublicAddress)
	if err != nil {
		switch {
		case errors.Is(err, casper.ErrAccountNotFound):
			return nil, ErrAccountNotFound
		case errors.Is(err, casper.ErrUnavailable):
			logger.Warn().Err(err).Str("user_id", userID).Msg("standing fetch failed")
			return nil, ErrLedgerUnavailable
		default:
			return nil, err
		}
	}

	updated, err := s.repo.UpdateStanding(ctx, userID, func(u *models.User) error {
		u.Balance = standing.Balance
		u.AccountAgeInHours = standing.AgeHours
		u.IsValidator = standing.IsValidator
		u.StakedAmount = standing.StakedAmount
		u.SyncedAt = time.Now()
		u.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return models.ToUserResponse(updated), nil
}
