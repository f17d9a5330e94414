// Package common contains shared constants and sentinel errors used across
// scanbot components.
package common

import "errors"

var (

	// repository specific errors
	ErrNotFound = errors.New("not found")

	// validation and gating errors, resolved locally without provider calls
	ErrValidation         = errors.New("validation error")
	ErrNotOnboarded       = errors.New("user not onboarded")
	ErrBanned             = errors.New("user banned")
	ErrScanInProgress     = errors.New("scan already in progress")
	ErrEventNotApplicable = errors.New("event not applicable in current state")

	// provider errors
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrAnalysisPending     = errors.New("analysis still processing")
	ErrAlreadyKnown        = errors.New("target already known to provider")

	// terminal scan outcomes
	ErrScanFailed   = errors.New("scan failed")
	ErrScanTimedOut = errors.New("scan timed out")

	// storage layer failures surfaced as generic persistence errors
	ErrPersistence = errors.New("persistence error")
)
