package service

import "errors"

// Custom errors for survey service
var (
	ErrNotFound = errors.New("survey not found")
	ErrNotOwner = errors.New("you are not the owner of this survey")
	// ErrSurveyLocked: mutation attempted after a response was recorded or
	// the survey ended.
	ErrSurveyLocked = errors.New("survey can no longer be edited")
	ErrSurveyEnded  = errors.New("survey has ended")
	ErrOwnSurvey    = errors.New("creators cannot respond to their own survey")
	ErrSurveyFull   = errors.New("survey is full")

	ErrDuplicateResponse   = errors.New("user already responded to this survey")
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	ErrAnswerNotFound      = errors.New("answer not found")

	// ErrValidation wraps creation/update payload problems.
	ErrValidation = errors.New("invalid survey")
)
