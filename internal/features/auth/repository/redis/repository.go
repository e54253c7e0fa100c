package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"survey-rewards-backend/internal/features/auth/repository"
)

const keyPrefixChallenge = "auth:challenge:"

type redisRepository struct {
	client *redis.Client
}

func NewChallengeRepository(client *redis.Client) repository.ChallengeRepository {
	return &redisRepository{client: client}
}

func makeChallengeKey(publicKey string) string {
	return keyPrefixChallenge + strings.ToLower(publicKey)
}

func (r *redisRepository) Save(ctx context.Context, publicKey, challenge string, ttl time.Duration) error {
	return r.client.Set(ctx, makeChallengeKey(publicKey), challenge, ttl).Err()
}

func (r *redisRepository) Get(ctx context.Context, publicKey string) (string, error) {
	challenge, err := r.client.Get(ctx, makeChallengeKey(publicKey)).Result()
	if err == redis.Nil {
		return "", repository.ErrChallengeNotFound
	}
	if err != nil {
		return "", err
	}
	return challenge, nil
}

func (r *redisRepository) Delete(ctx context.Context, publicKey string) error {
	return r.client.Del(ctx, makeChallengeKey(publicKey)).Err()
}
