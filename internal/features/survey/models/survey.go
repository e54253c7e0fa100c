package models

import "time"

// SurveyStatus represents the lifecycle state of a survey.
type SurveyStatus string

const (
	SurveyStatusActive SurveyStatus = "active"
	SurveyStatusClosed SurveyStatus = "closed"
)

// Answer is one selectable option of a question. ID is the stable identity;
// the submission wire contract carries Text and is mapped back to ID on the
// server.
type Answer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question holds its answers in presentation order.
type Question struct {
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// Response is one user's submission: one answer id per question, in
// question order. Immutable once created.
type Response struct {
	UserID    string    `json:"user"`
	AnswerIDs []string  `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
}

// Survey is the aggregate created by a user. Threshold fields are decimal
// strings in motes; MinimumAgeInDays constrains the respondent's account
// age.
type Survey struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedBy string    `json:"created_by"`

	RewardPerResponse string `json:"reward_per_response"`
	ParticipantsLimit int    `json:"participants_limit"`

	MinimumRequiredBalance string `json:"minimum_required_balance"`
	MinimumRequiredStake   string `json:"minimum_required_stake"`
	MinimumAgeInDays       int    `json:"minimum_age_in_days"`
	ValidatorStatus        bool   `json:"validator_status"`

	Responses []Response `json:"responses"`

	Status    SurveyStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// HasEnded reports whether the survey's end date has passed.
func (s *Survey) HasEnded(now time.Time) bool {
	return !s.EndDate.After(now)
}

// IsEditable: a survey may be mutated by its creator only while nobody has
// responded and it has not ended.
func (s *Survey) IsEditable(now time.Time) bool {
	return len(s.Responses) == 0 && !s.HasEnded(now)
}

// IsActive reports whether the survey has not been closed.
func (s *Survey) IsActive() bool {
	return s.Status == SurveyStatusActive
}

// HasResponseFrom reports whether the user already submitted a response.
func (s *Survey) HasResponseFrom(userID string) bool {
	for _, r := range s.Responses {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Full reports whether the participants cap is reached. The cap is a soft
// limit: existing responses are never rolled back, the survey just stops
// accepting new ones.
func (s *Survey) Full() bool {
	return s.ParticipantsLimit > 0 && len(s.Responses) >= s.ParticipantsLimit
}

// SurveyCreate is the creation payload.
type SurveyCreate struct {
	Title                  string     `json:"title" binding:"required"`
	Questions              []Question `json:"questions" binding:"required"`
	StartDate              time.Time  `json:"start_date"`
	EndDate                time.Time  `json:"end_date" binding:"required"`
	RewardPerResponse      string     `json:"reward_per_response"`
	ParticipantsLimit      int        `json:"participants_limit" binding:"required"`
	MinimumRequiredBalance string     `json:"minimum_required_balance"`
	MinimumRequiredStake   string     `json:"minimum_required_stake"`
	MinimumAgeInDays       int        `json:"minimum_age_in_days"`
	ValidatorStatus        bool       `json:"validator_status"`
}

// SurveyUpdate carries optional fields; nil means "leave unchanged".
type SurveyUpdate struct {
	Title                  *string    `json:"title,omitempty"`
	Questions              []Question `json:"questions,omitempty"`
	EndDate                *time.Time `json:"end_date,omitempty"`
	RewardPerResponse      *string    `json:"reward_per_response,omitempty"`
	ParticipantsLimit      *int       `json:"participants_limit,omitempty"`
	MinimumRequiredBalance *string    `json:"minimum_required_balance,omitempty"`
	MinimumRequiredStake   *string    `json:"minimum_required_stake,omitempty"`
	MinimumAgeInDays       *int       `json:"minimum_age_in_days,omitempty"`
	ValidatorStatus        *bool      `json:"validator_status,omitempty"`
}

// ResponseSubmit is the answer payload: one answer text per question, in
// question order.
type ResponseSubmit struct {
	Answers []string `json:"answers" binding:"required"`
}

// SurveyResponse is the read view; Eligible is filled when the requester's
// identity is known.
type SurveyResponse struct {
	*Survey
	ResponsesCount int   `json:"responses_count"`
	Eligible       *bool `json:"eligible,omitempty"`
}

func ToSurveyResponse(s *Survey, eligible *bool) *SurveyResponse {
	return &SurveyResponse{
		Survey:         s,
		ResponsesCount: len(s.Responses),
		Eligible:       eligible,
	}
}
