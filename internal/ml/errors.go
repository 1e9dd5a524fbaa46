package ml

import "errors"

// Sentinel errors for the scoring and training clients.
var (
	// ErrServiceUnavailable indicates the model service could not be reached.
	ErrServiceUnavailable = errors.New("model service unavailable")
	// ErrScoringFailed indicates the service rejected or failed a scoring request.
	ErrScoringFailed = errors.New("scoring request failed")
	// ErrTrainingFailed indicates a training job was rejected or ended in failure.
	ErrTrainingFailed = errors.New("training job failed")
	// ErrEmptyField indicates a scoring request was made with no horses.
	ErrEmptyField = errors.New("cannot score an empty field")
)
