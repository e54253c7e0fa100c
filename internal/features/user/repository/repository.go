package repository

import (
	"context"
	"errors"

	"survey-rewards-backend/internal/features/user/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserRepository persists users. Update overwrites the whole record;
// UpdateActivation and UpdateStanding run the mutation under an optimistic
// transaction so concurrent writers cannot interleave on the activation
// counters or clobber each other's standing cache.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPublicAddress(ctx context.Context, address string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// UpdateActivation reloads the user inside the transaction and applies
	// mutate to the fresh copy. mutate may return an error to abort without
	// writing; that error is surfaced unchanged.
	UpdateActivation(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error)
	// UpdateStanding behaves like UpdateActivation but is named separately
	// because standing sync and activation own disjoint field sets.
	UpdateStanding(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error)
}
