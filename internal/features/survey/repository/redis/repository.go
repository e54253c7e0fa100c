package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"survey-rewards-backend/internal/features/survey/models"
	"survey-rewards-backend/internal/features/survey/repository"
)

const (
	keyPrefixSurvey = "survey:"
	keyAllSurveys   = "surveys:all"

	txRetries = 16
)

type redisRepository struct {
	client *redis.Client
}

func NewSurveyRepository(client *redis.Client) repository.SurveyRepository {
	return &redisRepository{client: client}
}

func makeSurveyKey(id string) string {
	return keyPrefixSurvey + id
}

func (r *redisRepository) Create(ctx context.Context, survey *models.Survey) error {
	data, err := json.Marshal(survey)
	if err != nil {
		return fmt.Errorf("failed to marshal survey: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeSurveyKey(survey.ID), data, 0)
	pipe.SAdd(ctx, keyAllSurveys, survey.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Survey, error) {
	data, err := r.client.Get(ctx, makeSurveyKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}

	var survey models.Survey
	if err := json.Unmarshal(data, &survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *redisRepository) GetAll(ctx context.Context) ([]*models.Survey, error) {
	ids, err := r.client.SMembers(ctx, keyAllSurveys).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get survey ids: %w", err)
	}

	surveys := make([]*models.Survey, 0, len(ids))
	for _, id := range ids {
		survey, err := r.GetByID(ctx, id)
		if err != nil {
			if err == repository.ErrSurveyNotFound {
				continue
			}
			return nil, fmt.Errorf("failed to get survey %s: %w", id, err)
		}
		surveys = append(surveys, survey)
	}
	return surveys, nil
}

func (r *redisRepository) GetByCreator(ctx context.Context, userID string) ([]*models.Survey, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var result []*models.Survey
	for _, s := range all {
		if s.CreatedBy == userID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *redisRepository) Update(ctx context.Context, survey *models.Survey) error {
	data, err := json.Marshal(survey)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, makeSurveyKey(survey.ID), data, 0).Err()
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, makeSurveyKey(id))
	pipe.SRem(ctx, keyAllSurveys, id)
	_, err := pipe.Exec(ctx)
	return err
}

// AddResponse appends a response under WATCH: the duplicate and
// participants-limit checks run against the value the write is based on, so
// of two concurrent submissions from the same user exactly one commits and
// the other sees ErrDuplicateResponse, and the cap cannot be oversubscribed.
func (r *redisRepository) AddResponse(ctx context.Context, surveyID string, response models.Response) error {
	return r.updateTx(ctx, surveyID, func(s *models.Survey) error {
		if s.HasResponseFrom(response.UserID) {
			return repository.ErrDuplicateResponse
		}
		if s.Full() {
			return repository.ErrSurveyFull
		}
		s.Responses = append(s.Responses, response)
		return nil
	})
}

func (r *redisRepository) Close(ctx context.Context, id string) error {
	return r.updateTx(ctx, id, func(s *models.Survey) error {
		s.Status = models.SurveyStatusClosed
		return nil
	})
}

func (r *redisRepository) updateTx(ctx context.Context, id string, mutate func(*models.Survey) error) error {
	key := makeSurveyKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return repository.ErrSurveyNotFound
		}
		if err != nil {
			return err
		}

		var survey models.Survey
		if err := json.Unmarshal(data, &survey); err != nil {
			return err
		}
		if err := mutate(&survey); err != nil {
			return err
		}

		out, err := json.Marshal(&survey)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return fmt.Errorf("survey update contention on %s", id)
}
