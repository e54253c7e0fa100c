package repository

import (
	"context"
	"errors"

	"survey-rewards-backend/internal/features/survey/models"
)

var (
	ErrSurveyNotFound = errors.New("survey not found")
	// ErrDuplicateResponse: the user already has a response on this survey.
	// Raised by the conditional append, re-validated at commit time.
	ErrDuplicateResponse = errors.New("duplicate response")
	// ErrSurveyFull: the participants cap was reached before the append
	// committed.
	ErrSurveyFull = errors.New("survey is full")
)

// SurveyRepository persists surveys. AddResponse is the only mutation path
// for responses and must re-validate uniqueness and the participants cap
// atomically with the write.
type SurveyRepository interface {
	Create(ctx context.Context, survey *models.Survey) error
	GetByID(ctx context.Context, id string) (*models.Survey, error)
	GetAll(ctx context.Context) ([]*models.Survey, error)
	GetByCreator(ctx context.Context, userID string) ([]*models.Survey, error)
	Update(ctx context.Context, survey *models.Survey) error
	Delete(ctx context.Context, id string) error
	AddResponse(ctx context.Context, surveyID string, response models.Response) error
	// Close flips an ended survey to closed without clobbering responses
	// appended concurrently.
	Close(ctx context.Context, id string) error
}
