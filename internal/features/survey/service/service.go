package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"survey-rewards-backend/internal/common/logger"
	"survey-rewards-backend/internal/features/survey/models"
	"survey-rewards-backend/internal/features/survey/repository"
	usermodels "survey-rewards-backend/internal/features/user/models"
)

type SurveyService interface {
	Create(ctx context.Context, userID string, input *models.SurveyCreate) (*models.SurveyResponse, error)
	Update(ctx context.Context, userID, surveyID string, input *models.SurveyUpdate) (*models.SurveyResponse, error)
	Delete(ctx context.Context, userID, surveyID string) error
	GetByID(ctx context.Context, surveyID string, viewer *usermodels.User) (*models.SurveyResponse, error)
	// List returns all open surveys when viewer is nil, and exactly the
	// eligible subset when the viewer's identity is known.
	List(ctx context.Context, viewer *usermodels.User) ([]*models.SurveyResponse, error)
	GetByCreator(ctx context.Context, userID string) ([]*models.SurveyResponse, error)
	SubmitResponse(ctx context.Context, surveyID, userID string, answerTexts []string) (*models.Response, error)
}

type surveyService struct {
	repo repository.SurveyRepository
	now  func() time.Time
}

func NewSurveyService(repo repository.SurveyRepository) SurveyService {
	return &surveyService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *surveyService) Create(ctx context.Context, userID string, input *models.SurveyCreate) (*models.SurveyResponse, error) {
	if err := validateCreate(input, s.now()); err != nil {
		return nil, err
	}

	questions := make([]models.Question, len(input.Questions))
	for i, q := range input.Questions {
		answers := make([]models.Answer, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = models.Answer{ID: uuid.New().String(), Text: a.Text}
		}
		questions[i] = models.Question{Text: q.Text, Answers: answers}
	}

	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = s.now()
	}

	survey := &models.Survey{
		ID:                     uuid.New().String(),
		Title:                  input.Title,
		Questions:              questions,
		StartDate:              startDate,
		EndDate:                input.EndDate,
		CreatedBy:              userID,
		RewardPerResponse:      input.RewardPerResponse,
		ParticipantsLimit:      input.ParticipantsLimit,
		MinimumRequiredBalance: input.MinimumRequiredBalance,
		MinimumRequiredStake:   input.MinimumRequiredStake,
		MinimumAgeInDays:       input.MinimumAgeInDays,
		ValidatorStatus:        input.ValidatorStatus,
		Responses:              []models.Response{},
		Status:                 models.SurveyStatusActive,
		CreatedAt:              s.now(),
		UpdatedAt:              s.now(),
	}

	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, err
	}

	logger.Info().Str("survey_id", survey.ID).Str("created_by", userID).Msg("survey created")
	return models.ToSurveyResponse(survey, nil), nil
}

func (s *surveyService) Update(ctx context.Context, userID, surveyID string, input *models.SurveyUpdate) (*models.SurveyResponse, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, ErrNotFound
	}

	if survey.CreatedBy != userID {
		return nil, ErrNotOwner
	}
	if !survey.IsEditable(s.now()) {
		return nil, ErrSurveyLocked
	}

	if input.Title != nil {
		survey.Title = *input.Title
	}
	if len(input.Questions) > 0 {
		if err := validateQuestions(input.Questions); err != nil {
			return nil, err
		}
		questions := make([]models.Question, len(input.Questions))
		for i, q := range input.Questions {
			answers := make([]models.Answer, len(q.Answers))
			for j, a := range q.Answers {
				answers[j] = models.Answer{ID: uuid.New().String(), Text: a.Text}
			}
			questions[i] = models.Question{Text: q.Text, Answers: answers}
		}
		survey.Questions = questions
	}
	if input.EndDate != nil {
		if !input.EndDate.After(s.now()) {
			return nil, fmt.Errorf("%w: end date must be in the future", ErrValidation)
		}
		survey.EndDate = *input.EndDate
	}
	if input.RewardPerResponse != nil {
		if err := validateAmount("reward_per_response", *input.RewardPerResponse); err != nil {
			return nil, err
		}
		survey.RewardPerResponse = *input.RewardPerResponse
	}
	if input.ParticipantsLimit != nil {
		if *input.ParticipantsLimit < 1 {
			return nil, fmt.Errorf("%w: participants limit must be positive", ErrValidation)
		}
		survey.ParticipantsLimit = *input.ParticipantsLimit
	}
	if input.MinimumRequiredBalance != nil {
		if err := validateAmount("minimum_required_balance", *input.MinimumRequiredBalance); err != nil {
			return nil, err
		}
		survey.MinimumRequiredBalance = *input.MinimumRequiredBalance
	}
	if input.MinimumRequiredStake != nil {
		if err := validateAmount("minimum_required_stake", *input.MinimumRequiredStake); err != nil {
			return nil, err
		}
		survey.MinimumRequiredStake = *input.MinimumRequiredStake
	}
	if input.MinimumAgeInDays != nil {
		if *input.MinimumAgeInDays < 0 {
			return nil, fmt.Errorf("%w: minimum age cannot be negative", ErrValidation)
		}
		survey.MinimumAgeInDays = *input.MinimumAgeInDays
	}
	if input.ValidatorStatus != nil {
		survey.ValidatorStatus = *input.ValidatorStatus
	}

	survey.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, survey); err != nil {
		return nil, err
	}
	return models.ToSurveyResponse(survey, nil), nil
}

func (s *surveyService) Delete(ctx context.Context, userID, surveyID string) error {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return ErrNotFound
	}
	if survey.CreatedBy != userID {
		return ErrNotOwner
	}
	if len(survey.Responses) > 0 {
		return ErrSurveyLocked
	}
	return s.repo.Delete(ctx, surveyID)
}

func (s *surveyService) GetByID(ctx context.Context, surveyID string, viewer *usermodels.User) (*models.SurveyResponse, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, ErrNotFound
	}

	var eligible *bool
	if viewer != nil {
		e := IsEligible(viewer, survey, s.now())
		eligible = &e
	}
	return models.ToSurveyResponse(survey, eligible), nil
}

func (s *surveyService) List(ctx context.Context, viewer *usermodels.User) ([]*models.SurveyResponse, error) {
	surveys, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get surveys: %w", err)
	}

	now := s.now()
	result := make([]*models.SurveyResponse, 0, len(surveys))
	for _, survey := range surveys {
		if survey.Status == models.SurveyStatusClosed || survey.HasEnded(now) {
			continue
		}
		if viewer == nil {
			result = append(result, models.ToSurveyResponse(survey, nil))
			continue
		}
		if IsEligible(viewer, survey, now) {
			e := true
			result = append(result, models.ToSurveyResponse(survey, &e))
		}
	}
	return result, nil
}

func (s *surveyService) GetByCreator(ctx context.Context, userID string) ([]*models.SurveyResponse, error) {
	surveys, err := s.repo.GetByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get surveys: %w", err)
	}
	result := make([]*models.SurveyResponse, len(surveys))
	for i, survey := range surveys {
		result[i] = models.ToSurveyResponse(survey, nil)
	}
	return result, nil
}

// SubmitResponse validates the answer set, maps answer texts to their
// stable ids and appends the response. Duplicate and capacity checks are
// re-run by the repository at commit time; the checks here only produce
// friendlier errors on the common path.
func (s *surveyService) SubmitResponse(ctx context.Context, surveyID, userID string, answerTexts []string) (*models.Response, error) {
	survey, err := s.repo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, ErrNotFound
	}

	if survey.HasEnded(s.now()) || survey.Status == models.SurveyStatusClosed {
		return nil, ErrSurveyEnded
	}
	if survey.CreatedBy == userID {
		return nil, ErrOwnSurvey
	}

	if len(answerTexts) != len(survey.Questions) {
		return nil, fmt.Errorf("%w: got %d answers for %d questions",
			ErrAnswerCountMismatch, len(answerTexts), len(survey.Questions))
	}

	answerIDs := make([]string, len(answerTexts))
	for i, text := range answerTexts {
		id, err := matchAnswer(&survey.Questions[i], text)
		if err != nil {
			return nil, err
		}
		answerIDs[i] = id
	}

	response := models.Response{
		UserID:    userID,
		AnswerIDs: answerIDs,
		CreatedAt: s.now(),
	}

	if err := s.repo.AddResponse(ctx, surveyID, response); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateResponse):
			return nil, ErrDuplicateResponse
		case errors.Is(err, repository.ErrSurveyFull):
			return nil, ErrSurveyFull
		case errors.Is(err, repository.ErrSurveyNotFound):
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("failed to add response: %w", err)
		}
	}

	logger.Info().Str("survey_id", surveyID).Str("user_id", userID).Msg("response recorded")
	return &response, nil
}

// matchAnswer maps an answer text to the id of the single answer carrying
// it. Creation enforces per-question text uniqueness, so one hit is the
// only possible success.
func matchAnswer(q *models.Question, text string) (string, error) {
	for _, a := range q.Answers {
		if a.Text == text {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not an answer of %q", ErrAnswerNotFound, text, q.Text)
}

func validateCreate(input *models.SurveyCreate, now time.Time) error {
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !input.EndDate.After(now) {
		return fmt.Errorf("%w: end date must be in the future", ErrValidation)
	}
	if !input.StartDate.IsZero() && !input.EndDate.After(input.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	if input.ParticipantsLimit < 1 {
		return fmt.Errorf("%w: participants limit must be positive", ErrValidation)
	}
	if input.MinimumAgeInDays < 0 {
		return fmt.Errorf("%w: minimum age cannot be negative", ErrValidation)
	}
	for _, pair := range [][2]string{
		{"reward_per_response", input.RewardPerResponse},
		{"minimum_required_balance", input.MinimumRequiredBalance},
		{"minimum_required_stake", input.MinimumRequiredStake},
	} {
		if err := validateAmount(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return validateQuestions(input.Questions)
}

// validateQuestions rejects questions with fewer than two answers and
// duplicated answer texts within one question. Texts are the submission
// wire contract, so a collision would make a response ambiguous.
func validateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrValidation)
	}
	for i, q := range questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrValidation, i+1)
		}
		if len(q.Answers) < 2 {
			return fmt.Errorf("%w: question %q needs at least two answers", ErrValidation, q.Text)
		}
		seen := make(map[string]struct{}, len(q.Answers))
		for _, a := range q.Answers {
			if a.Text == "" {
				return fmt.Errorf("%w: question %q has an empty answer", ErrValidation, q.Text)
			}
			if _, ok := seen[a.Text]; ok {
				return fmt.Errorf("%w: question %q has duplicate answer %q", ErrValidation, q.Text, a.Text)
			}
			seen[a.Text] = struct{}{}
		}
	}
	return nil
}

func validateAmount(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%w: %s is not a valid amount", ErrValidation, field)
	}
	if d.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidation, field)
	}
	return nil
}
