package service

import (
	"time"

	"github.com/shopspring/decimal"

	surveymodels "survey-rewards-backend/internal/features/survey/models"
	usermodels "survey-rewards-backend/internal/features/user/models"
)

// IsEligible decides whether user may respond to survey at the given time.
// Pure: it reads only the cached standing and the loaded survey, makes no
// calls, and mutates nothing. Eligibility is the conjunction of all rules;
// the order just puts the cheap checks first.
func IsEligible(user *usermodels.User, survey *surveymodels.Survey, now time.Time) bool {
	// Only activated accounts may participate at all.
	if !user.Active {
		return false
	}
	if survey.Full() {
		return false
	}
	// A survey without a creator is a corrupt record, never eligible.
	if survey.CreatedBy == "" {
		return false
	}
	if survey.HasResponseFrom(user.ID) {
		return false
	}
	if !survey.EndDate.After(now) {
		return false
	}
	if survey.CreatedBy == user.ID {
		return false
	}
	if !meetsThreshold(user.Balance, survey.MinimumRequiredBalance) {
		return false
	}
	if !meetsThreshold(user.StakedAmount, survey.MinimumRequiredStake) {
		return false
	}
	if user.AccountAgeInHours/24 < float64(survey.MinimumAgeInDays) {
		return false
	}
	if survey.ValidatorStatus && !user.IsValidator {
		return false
	}
	return true
}

// meetsThreshold compares two decimal strings; an empty value counts as
// zero, a malformed one fails the check.
func meetsThreshold(have, want string) bool {
	h, err := parseAmount(have)
	if err != nil {
		return false
	}
	w, err := parseAmount(want)
	if err != nil {
		return false
	}
	return h.GreaterThanOrEqual(w)
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
