package models

import "errors"

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrRaceTooSmall       = errors.New("race must have at least 2 horses")
	ErrNoRankerScores     = errors.New("no base ranker scores available")
	ErrInvalidWeights     = errors.New("ensemble weights must sum to a positive number")
	ErrResultValidated    = errors.New("race result already validated")
	ErrInvalidTransition  = errors.New("invalid retraining job state transition")
	ErrInvalidRaceResult  = errors.New("invalid race result data")
)
