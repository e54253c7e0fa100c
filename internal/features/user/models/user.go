package models

import "time"

// MaxActivationAttempts caps failed activation checks; at the cap the
// account is permanently banned.
const MaxActivationAttempts = 3

// User is a platform account. Either PublicAddress (wallet credential) or
// Email+PasswordHash is set, never both.
type User struct {
	ID            string `json:"id"`
	PublicAddress string `json:"public_address,omitempty"`
	Email         string `json:"email,omitempty"`
	// PasswordHash travels in the stored record only; API payloads are
	// built from UserResponse, which does not carry it.
	PasswordHash string `json:"password_hash,omitempty"`

	// Standing cache, populated only by the standing sync. Balance and
	// StakedAmount are decimal strings in motes.
	Balance           string    `json:"balance,omitempty"`
	AccountAgeInHours float64   `json:"account_age_in_hours,omitempty"`
	IsValidator       bool      `json:"is_validator"`
	StakedAmount      string    `json:"staked_amount,omitempty"`
	SyncedAt          time.Time `json:"synced_at,omitempty"`

	// Activation state, mutated only by the activation state machine.
	Active   bool `json:"active"`
	Attempts int  `json:"attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Banned reports whether the account has exhausted its activation attempts.
func (u *User) Banned() bool {
	return u.Attempts >= MaxActivationAttempts
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID                string    `json:"id"`
	PublicAddress     string    `json:"public_address,omitempty"`
	Email             string    `json:"email,omitempty"`
	Balance           string    `json:"balance,omitempty"`
	AccountAgeInHours float64   `json:"account_age_in_hours,omitempty"`
	IsValidator       bool      `json:"is_validator"`
	StakedAmount      string    `json:"staked_amount,omitempty"`
	Active            bool      `json:"active"`
	Attempts          int       `json:"attempts"`
	SyncedAt          time.Time `json:"synced_at,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func ToUserResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:                u.ID,
		PublicAddress:     u.PublicAddress,
		Email:             u.Email,
		Balance:           u.Balance,
		AccountAgeInHours: u.AccountAgeInHours,
		IsValidator:       u.IsValidator,
		StakedAmount:      u.StakedAmount,
		Active:            u.Active,
		Attempts:          u.Attempts,
		SyncedAt:          u.SyncedAt,
		CreatedAt:         u.CreatedAt,
	}
}
