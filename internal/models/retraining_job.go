package models

import (
	"time"

	"github.com/google/uuid"
)

// RetrainTrigger is the reason a retraining job was created.
type RetrainTrigger string

const (
	TriggerSchedule        RetrainTrigger = "schedule"
	TriggerPerformanceDrop RetrainTrigger = "performance_drop"
	TriggerManual          RetrainTrigger = "manual"
)

// JobStatus is the lifecycle state of a retraining job.
// pending -> running -> {completed, failed}; terminal states are final.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// RetrainingJob tracks one orchestrated retrain of a base ranker. Job
// history is append-only; only Status and the completion fields change,
// and only through the transition methods.
type RetrainingJob struct {
	ID                 uuid.UUID      `db:"id" json:"id"`
	ModelName          string         `db:"model_name" json:"model_name" validate:"required"`
	Trigger            RetrainTrigger `db:"trigger" json:"trigger"`
	Status             JobStatus      `db:"status" json:"status"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	StartedAt          *time.Time     `db:"started_at" json:"started_at,omitempty"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	ImprovementPercent *float64       `db:"improvement_percent" json:"improvement_percent,omitempty"`
	Error              string         `db:"error" json:"error,omitempty"`
}

// NewRetrainingJob creates a pending job for the given model.
func NewRetrainingJob(modelName string, trigger RetrainTrigger) *RetrainingJob {
	return &RetrainingJob{
		ID:        uuid.New(),
		ModelName: modelName,
		Trigger:   trigger,
		Status:    JobPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Start transitions the job from pending to running.
func (j *RetrainingJob) Start() error {
	if j.Status != JobPending {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	j.Status = JobRunning
	j.StartedAt = &now
	return nil
}

// Complete transitions a running job to completed with the measured
// improvement over the previous model.
func (j *RetrainingJob) Complete(improvementPercent float64) error {
	if j.Status != JobRunning {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	j.Status = JobCompleted
	j.CompletedAt = &now
	j.ImprovementPercent = &improvementPercent
	return nil
}

// Fail transitions a pending or running job to failed, capturing the error.
func (j *RetrainingJob) Fail(errMsg string) error {
	if j.Status == JobCompleted || j.Status == JobFailed {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	j.Status = JobFailed
	j.CompletedAt = &now
	j.Error = errMsg
	return nil
}

// Terminal reports whether the job has reached a final state.
func (j *RetrainingJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
