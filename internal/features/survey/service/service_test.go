package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-rewards-backend/internal/features/survey/models"
	"survey-rewards-backend/internal/features/survey/repository"
	usermodels "survey-rewards-backend/internal/features/user/models"
)

// memorySurveyRepo implements repository.SurveyRepository in memory with the
// same commit-time duplicate and capacity checks as the Redis implementation.
type memorySurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]*models.Survey
}

func newMemorySurveyRepo() *memorySurveyRepo {
	return &memorySurveyRepo{surveys: make(map[string]*models.Survey)}
}

func (r *memorySurveyRepo) Create(ctx context.Context, survey *models.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *survey
	r.surveys[survey.ID] = &copied
	return nil
}

func (r *memorySurveyRepo) GetByID(ctx context.Context, id string) (*models.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return nil, repository.ErrSurveyNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memorySurveyRepo) GetAll(ctx context.Context) ([]*models.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Survey, 0, len(r.surveys))
	for _, s := range r.surveys {
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memorySurveyRepo) GetByCreator(ctx context.Context, userID string) ([]*models.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Survey, 0)
	for _, s := range r.surveys {
		if s.CreatedBy == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memorySurveyRepo) Update(ctx context.Context, survey *models.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[survey.ID]; !ok {
		return repository.ErrSurveyNotFound
	}
	copied := *survey
	r.surveys[survey.ID] = &copied
	return nil
}

func (r *memorySurveyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[id]; !ok {
		return repository.ErrSurveyNotFound
	}
	delete(r.surveys, id)
	return nil
}

func (r *memorySurveyRepo) AddResponse(ctx context.Context, id string, response models.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return repository.ErrSurveyNotFound
	}
	if s.HasResponseFrom(response.UserID) {
		return repository.ErrDuplicateResponse
	}
	if s.Full() {
		return repository.ErrSurveyFull
	}
	s.Responses = append(s.Responses, response)
	return nil
}

func (r *memorySurveyRepo) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return repository.ErrSurveyNotFound
	}
	s.Status = models.SurveyStatusClosed
	return nil
}

func colorQuestions() []models.Question {
	return []models.Question{
		{Text: "Favorite color?", Answers: []models.Answer{{Text: "Red"}, {Text: "Green"}}},
	}
}

func validCreate() *models.SurveyCreate {
	return &models.SurveyCreate{
		Title:             "Color census",
		Questions:         colorQuestions(),
		EndDate:           time.Now().Add(72 * time.Hour),
		ParticipantsLimit: 100,
	}
}

func newTestService(t *testing.T) (SurveyService, *memorySurveyRepo) {
	t.Helper()
	repo := newMemorySurveyRepo()
	return NewSurveyService(repo), repo
}

func createSurvey(t *testing.T, svc SurveyService, creator string) *models.SurveyResponse {
	t.Helper()
	survey, err := svc.Create(context.Background(), creator, validCreate())
	require.NoError(t, err)
	return survey
}

func TestCreate_AssignsAnswerIDs(t *testing.T) {
	svc, _ := newTestService(t)
	survey := createSurvey(t, svc, "creator")

	require.Len(t, survey.Questions, 1)
	require.Len(t, survey.Questions[0].Answers, 2)
	assert.NotEmpty(t, survey.Questions[0].Answers[0].ID)
	assert.NotEqual(t, survey.Questions[0].Answers[0].ID, survey.Questions[0].Answers[1].ID)
	assert.Equal(t, models.SurveyStatusActive, survey.Status)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*models.SurveyCreate)
	}{
		{"empty title", func(c *models.SurveyCreate) { c.Title = "" }},
		{"end date in the past", func(c *models.SurveyCreate) { c.EndDate = time.Now().Add(-time.Hour) }},
		{"end before start", func(c *models.SurveyCreate) {
			c.StartDate = time.Now().Add(96 * time.Hour)
		}},
		{"zero participants limit", func(c *models.SurveyCreate) { c.ParticipantsLimit = 0 }},
		{"negative minimum age", func(c *models.SurveyCreate) { c.MinimumAgeInDays = -1 }},
		{"malformed balance threshold", func(c *models.SurveyCreate) { c.MinimumRequiredBalance = "abc" }},
		{"negative reward", func(c *models.SurveyCreate) { c.RewardPerResponse = "-5" }},
		{"no questions", func(c *models.SurveyCreate) { c.Questions = nil }},
		{"single answer", func(c *models.SurveyCreate) {
			c.Questions = []models.Question{{Text: "Q", Answers: []models.Answer{{Text: "only"}}}}
		}},
		{"duplicate answer texts", func(c *models.SurveyCreate) {
			c.Questions = []models.Question{{Text: "Q", Answers: []models.Answer{{Text: "same"}, {Text: "same"}}}}
		}},
		{"empty answer text", func(c *models.SurveyCreate) {
			c.Questions = []models.Question{{Text: "Q", Answers: []models.Answer{{Text: ""}, {Text: "b"}}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreate()
			tt.mutate(input)
			_, err := svc.Create(context.Background(), "creator", input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdate_OnlyCreatorWhileUntouched(t *testing.T) {
	svc, repo := newTestService(t)
	survey := createSurvey(t, svc, "creator")

	title := "Renamed"
	_, err := svc.Update(context.Background(), "stranger", survey.ID, &models.SurveyUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := svc.Update(context.Background(), "creator", survey.ID, &models.SurveyUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	// First response locks the survey.
	require.NoError(t, repo.AddResponse(context.Background(), survey.ID, models.Response{UserID: "r1"}))
	_, err = svc.Update(context.Background(), "creator", survey.ID, &models.SurveyUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrSurveyLocked)
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService(t)
	survey := createSurvey(t, svc, "creator")

	assert.ErrorIs(t, svc.Delete(context.Background(), "stranger", survey.ID), ErrNotOwner)

	require.NoError(t, repo.AddResponse(context.Background(), survey.ID, models.Response{UserID: "r1"}))
	assert.ErrorIs(t, svc.Delete(context.Background(), "creator", survey.ID), ErrSurveyLocked)
}

func TestSubmitResponse(t *testing.T) {
	svc, repo := newTestService(t)
	survey := createSurvey(t, svc, "creator")
	redID := survey.Questions[0].Answers[0].ID

	response, err := svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Red"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", response.UserID)
	assert.Equal(t, []string{redID}, response.AnswerIDs, "answers are stored by id, not text")

	stored, err := repo.GetByID(context.Background(), survey.ID)
	require.NoError(t, err)
	require.Len(t, stored.Responses, 1)
}

func TestSubmitResponse_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	survey := createSurvey(t, svc, "creator")

	_, err := svc.SubmitResponse(context.Background(), "missing", "user-1", []string{"Red"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SubmitResponse(context.Background(), survey.ID, "creator", []string{"Red"})
	assert.ErrorIs(t, err, ErrOwnSurvey)

	_, err = svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Red", "Green"})
	assert.ErrorIs(t, err, ErrAnswerCountMismatch)

	_, err = svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Blue"})
	assert.ErrorIs(t, err, ErrAnswerNotFound)

	_, err = svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Red"})
	require.NoError(t, err)
	_, err = svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Green"})
	assert.ErrorIs(t, err, ErrDuplicateResponse)
}

func TestSubmitResponse_EndedSurvey(t *testing.T) {
	repo := newMemorySurveyRepo()
	svc := NewSurveyService(repo)
	survey := createSurvey(t, svc, "creator")

	// Move the service clock past the end date.
	svc.(*surveyService).now = func() time.Time { return time.Now().Add(96 * time.Hour) }

	_, err := svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Red"})
	assert.ErrorIs(t, err, ErrSurveyEnded)
}

func TestSubmitResponse_FullSurvey(t *testing.T) {
	svc, _ := newTestService(t)
	input := validCreate()
	input.ParticipantsLimit = 1
	survey, err := svc.Create(context.Background(), "creator", input)
	require.NoError(t, err)

	_, err = svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Red"})
	require.NoError(t, err)
	_, err = svc.SubmitResponse(context.Background(), survey.ID, "user-2", []string{"Green"})
	assert.ErrorIs(t, err, ErrSurveyFull)
}

func TestList_FiltersForViewer(t *testing.T) {
	svc, repo := newTestService(t)
	open := createSurvey(t, svc, "creator")

	gated := validCreate()
	gated.Title = "Whales only"
	gated.MinimumRequiredBalance = "1000000"
	_, err := svc.Create(context.Background(), "creator", gated)
	require.NoError(t, err)

	closedOut := validCreate()
	closedOut.Title = "Closed"
	closedSurvey, err := svc.Create(context.Background(), "creator", closedOut)
	require.NoError(t, err)
	require.NoError(t, repo.Close(context.Background(), closedSurvey.ID))

	// Anonymous listing: all open surveys, no eligibility flags.
	all, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Nil(t, all[0].Eligible)

	// A known viewer sees only the surveys they can answer.
	viewer := &usermodels.User{ID: "viewer", Balance: "500", Active: true}
	visible, err := svc.List(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, open.ID, visible[0].ID)
	require.NotNil(t, visible[0].Eligible)
	assert.True(t, *visible[0].Eligible)

	// The creator sees nothing they could answer.
	creator := &usermodels.User{ID: "creator", Balance: "500"}
	visible, err = svc.List(context.Background(), creator)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestGetByID_EligibilityFlag(t *testing.T) {
	svc, _ := newTestService(t)
	survey := createSurvey(t, svc, "creator")

	anon, err := svc.GetByID(context.Background(), survey.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, anon.Eligible)

	viewed, err := svc.GetByID(context.Background(), survey.ID, &usermodels.User{ID: "creator"})
	require.NoError(t, err)
	require.NotNil(t, viewed.Eligible)
	assert.False(t, *viewed.Eligible, "creators are never eligible for their own survey")
}

func TestSubmitResponse_ConcurrentDuplicates(t *testing.T) {
	svc, repo := newTestService(t)
	survey := createSurvey(t, svc, "creator")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitResponse(context.Background(), survey.ID, "user-1", []string{"Red"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrDuplicateResponse)
		}
	}
	assert.Equal(t, 1, successes)

	stored, err := repo.GetByID(context.Background(), survey.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Responses, 1)
}
