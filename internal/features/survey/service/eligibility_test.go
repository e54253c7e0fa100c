package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"survey-rewards-backend/internal/features/survey/models"
	usermodels "survey-rewards-backend/internal/features/user/models"
)

func eligibleUser() *usermodels.User {
	return &usermodels.User{
		ID:                "user-1",
		PublicAddress:     "01aa",
		Balance:           "1000000000",
		AccountAgeInHours: 24 * 40,
		IsValidator:       false,
		StakedAmount:      "500",
		Active:            true,
	}
}

func openSurvey(now time.Time) *models.Survey {
	return &models.Survey{
		ID:                     "survey-1",
		CreatedBy:              "creator-1",
		EndDate:                now.Add(48 * time.Hour),
		ParticipantsLimit:      10,
		MinimumRequiredBalance: "1000",
		MinimumRequiredStake:   "100",
		MinimumAgeInDays:       30,
		ValidatorStatus:        false,
		Status:                 models.SurveyStatusActive,
	}
}

func TestIsEligible(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		user   func(*usermodels.User)
		survey func(*models.Survey)
		want   bool
	}{
		{
			name: "all rules pass",
			want: true,
		},
		{
			name: "account not activated",
			user: func(u *usermodels.User) { u.Active = false },
			want: false,
		},
		{
			name: "account banned after exhausted attempts",
			user: func(u *usermodels.User) { u.Active = false; u.Attempts = usermodels.MaxActivationAttempts },
			want: false,
		},
		{
			name:   "survey full",
			survey: func(s *models.Survey) { s.ParticipantsLimit = 1; s.Responses = []models.Response{{UserID: "other"}} },
			want:   false,
		},
		{
			name:   "no creator",
			survey: func(s *models.Survey) { s.CreatedBy = "" },
			want:   false,
		},
		{
			name:   "already responded",
			survey: func(s *models.Survey) { s.Responses = []models.Response{{UserID: "user-1"}} },
			want:   false,
		},
		{
			name:   "ended",
			survey: func(s *models.Survey) { s.EndDate = now.Add(-time.Minute) },
			want:   false,
		},
		{
			name:   "ends exactly now",
			survey: func(s *models.Survey) { s.EndDate = now },
			want:   false,
		},
		{
			name:   "own survey",
			survey: func(s *models.Survey) { s.CreatedBy = "user-1" },
			want:   false,
		},
		{
			name: "balance below threshold",
			user: func(u *usermodels.User) { u.Balance = "999" },
			want: false,
		},
		{
			name: "balance exactly at threshold",
			user: func(u *usermodels.User) { u.Balance = "1000" },
			want: true,
		},
		{
			name: "stake below threshold",
			user: func(u *usermodels.User) { u.StakedAmount = "99" },
			want: false,
		},
		{
			name:   "empty stake against zero threshold",
			user:   func(u *usermodels.User) { u.StakedAmount = "" },
			survey: func(s *models.Survey) { s.MinimumRequiredStake = "" },
			want:   true,
		},
		{
			name: "malformed balance",
			user: func(u *usermodels.User) { u.Balance = "12,5" },
			want: false,
		},
		{
			name: "account 29 days old against 30 day minimum",
			user: func(u *usermodels.User) { u.AccountAgeInHours = 24 * 29 },
			want: false,
		},
		{
			name: "account 31 days old against 30 day minimum",
			user: func(u *usermodels.User) { u.AccountAgeInHours = 24 * 31 },
			want: true,
		},
		{
			name:   "validator required, user is not",
			survey: func(s *models.Survey) { s.ValidatorStatus = true },
			want:   false,
		},
		{
			name:   "validator required, user is one",
			user:   func(u *usermodels.User) { u.IsValidator = true },
			survey: func(s *models.Survey) { s.ValidatorStatus = true },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := eligibleUser()
			survey := openSurvey(now)
			if tt.user != nil {
				tt.user(user)
			}
			if tt.survey != nil {
				tt.survey(survey)
			}
			assert.Equal(t, tt.want, IsEligible(user, survey, now))
		})
	}
}

func TestIsEligible_Deterministic(t *testing.T) {
	now := time.Now()
	user := eligibleUser()
	survey := openSurvey(now)

	first := IsEligible(user, survey, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, IsEligible(user, survey, now))
	}
}
