package service

import "errors"

// Custom errors for user service
var (
	ErrUserNotFound = errors.New("user not found")
	// ErrNoPublicAddress: activation and standing sync only apply to
	// wallet-credentialed accounts.
	ErrNoPublicAddress = errors.New("user has no public address")
	// ErrOracleUnavailable is transient; it never consumes an activation
	// attempt.
	ErrOracleUnavailable = errors.New("activity oracle unavailable")
	// ErrLedgerUnavailable is transient; the standing cache is left as is.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrAccountNotFound   = errors.New("account not found on chain")
)
