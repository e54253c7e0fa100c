package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"survey-rewards-backend/internal/features/user/models"
	"survey-rewards-backend/internal/features/user/repository"
)

const (
	keyPrefixUser  = "user:"
	keyPrefixAddr  = "user:addr:"
	keyPrefixEmail = "user:email:"

	// txRetries bounds optimistic-transaction retries under contention.
	txRetries = 16
)

type redisRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) repository.UserRepository {
	return &redisRepository{client: client}
}

func makeUserKey(id string) string {
	return keyPrefixUser + id
}

func makeAddrKey(address string) string {
	return keyPrefixAddr + strings.ToLower(address)
}

func makeEmailKey(email string) string {
	return keyPrefixEmail + strings.ToLower(email)
}

func (r *redisRepository) Create(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if user.PublicAddress != "" {
		ok, err := r.client.SetNX(ctx, makeAddrKey(user.PublicAddress), user.ID, 0).Result()
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrUserExists
		}
	}
	if user.Email != "" {
		ok, err := r.client.SetNX(ctx, makeEmailKey(user.Email), user.ID, 0).Result()
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrUserExists
		}
	}

	return r.client.Set(ctx, makeUserKey(user.ID), data, 0).Err()
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	data, err := r.client.Get(ctx, makeUserKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *redisRepository) GetByPublicAddress(ctx context.Context, address string) (*models.User, error) {
	id, err := r.client.Get(ctx, makeAddrKey(address)).Result()
	if err == redis.Nil {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *redisRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := r.client.Get(ctx, makeEmailKey(email)).Result()
	if err == redis.Nil {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *redisRepository) Update(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, makeUserKey(user.ID), data, 0).Err()
}

func (r *redisRepository) UpdateActivation(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	return r.updateTx(ctx, id, mutate)
}

func (r *redisRepository) UpdateStanding(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	return r.updateTx(ctx, id, mutate)
}

// updateTx applies mutate to a fresh copy of the user under WATCH so two
// concurrent writers cannot both act on the same stale read. The loser of a
// race retries against the new state; mutate errors abort without writing.
func (r *redisRepository) updateTx(ctx context.Context, id string, mutate func(*models.User) error) (*models.User, error) {
	key := makeUserKey(id)
	var updated *models.User

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return repository.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		var user models.User
		if err := json.Unmarshal(data, &user); err != nil {
			return err
		}
		if err := mutate(&user); err != nil {
			return err
		}

		out, err := json.Marshal(&user)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = &user
		}
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("user update contention on %s", id)
}
