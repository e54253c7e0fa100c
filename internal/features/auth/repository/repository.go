package repository

import (
	"context"
	"errors"
	"time"
)

// ErrChallengeNotFound: no live nonce for the key; it was never issued,
// expired, or was already spent.
var ErrChallengeNotFound = errors.New("challenge not found")

// ChallengeRepository stores single-use login nonces with a TTL.
type ChallengeRepository interface {
	Save(ctx context.Context, publicKey, challenge string, ttl time.Duration) error
	Get(ctx context.Context, publicKey string) (string, error)
	Delete(ctx context.Context, publicKey string) error
}
