// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides a dedicated audit trail for operator-visible
// pipeline decisions: issued advice, weight changes and retraining
// dispatches.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogAdviceIssued records a race-level betting recommendation.
func (al *AuditLogger) LogAdviceIssued(raceID, horse, signal string, confidence, expectedROI float64, issuedAt time.Time) {
	al.WithFields(logrus.Fields{
		"race_id":      raceID,
		"horse":        horse,
		"signal":       signal,
		"confidence":   confidence,
		"expected_roi": expectedROI,
		"issued_at":    issuedAt.Unix(),
	}).Info("Race advice issued")
}

// LogWeightChange records an ensemble weight rotation or override.
func (al *AuditLogger) LogWeightChange(source string, oldWeights, newWeights map[string]float64) {
	al.WithFields(logrus.Fields{
		"source":      source,
		"old_weights": oldWeights,
		"new_weights": newWeights,
	}).Info("Ensemble weights changed")
}

// LogRetrainDispatch records a retraining job dispatch.
func (al *AuditLogger) LogRetrainDispatch(jobID, modelName, trigger, status string, requestedBy string) {
	al.WithFields(logrus.Fields{
		"job_id":       jobID,
		"model_name":   modelName,
		"trigger":      trigger,
		"status":       status,
		"requested_by": requestedBy,
	}).Info("Retraining dispatch recorded")
}

// LogResultIngested records an official result entering the pipeline.
func (al *AuditLogger) LogResultIngested(raceID, winner string, validations int) {
	al.WithFields(logrus.Fields{
		"race_id":     raceID,
		"winner":      winner,
		"validations": validations,
	}).Info("Race result ingested")
}
