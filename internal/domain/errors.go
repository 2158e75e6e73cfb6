package domain

import "errors"

var (
	ErrProfileNotFound         = errors.New("profile not found")
	ErrContestNotFound         = errors.New("contest not found")
	ErrCandidateNotEligible    = errors.New("candidate is not eligible for matching")
	ErrMatchingConsentRequired = errors.New("matching consent required")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidToken            = errors.New("invalid token")
)
