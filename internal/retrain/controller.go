// Package retrain orchestrates base ranker retraining: trigger evaluation,
// cooldown enforcement and job lifecycle tracking. Training itself is
// delegated to an external service.
package retrain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/metrics"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/repository"
)

// Trainer dispatches a retraining run for one model and blocks until it
// finishes, returning the measured improvement over the previous model.
type Trainer interface {
	Train(ctx context.Context, modelName string) (improvementPercent float64, err error)
}

// PerformanceSource supplies the ensemble's recent top-1 accuracy and the
// sample size behind it.
type PerformanceSource interface {
	EnsembleTop1Rate(ctx context.Context) (rate float64, samples int, err error)
}

// Config holds the controller's policy knobs.
type Config struct {
	// RetrainInterval is both the scheduled-retrain period and the
	// cooldown window for the frequency cap.
	RetrainInterval time.Duration
	// MaxRetrainFrequency caps how often one model may retrain within a
	// RetrainInterval window.
	MaxRetrainFrequency int
	// MinSampleSize gates the performance-drop trigger so it does not
	// react to noise.
	MinSampleSize int
	// AccuracyThreshold is the ensemble top-1 rate below which a
	// performance_drop retrain fires.
	AccuracyThreshold float64
	// DispatchTimeout bounds one external training dispatch.
	DispatchTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		RetrainInterval:     24 * time.Hour,
		MaxRetrainFrequency: 1,
		MinSampleSize:       50,
		AccuracyThreshold:   0.25,
		DispatchTimeout:     30 * time.Minute,
	}
}

// Controller owns the RetrainingJob lifecycle. The dispatch history and
// last-retrained timestamps are the only mutable shared state in the
// pipeline and are guarded here.
type Controller struct {
	cfg     Config
	trainer Trainer
	perf    PerformanceSource
	jobs    repository.RetrainingJobRepository
	logger  *logrus.Logger

	mu            sync.Mutex
	history       map[string][]time.Time
	seeded        map[string]bool
	lastScheduled time.Time
	now           func() time.Time
}

// NewController creates a retraining controller.
func NewController(cfg Config, trainer Trainer, perf PerformanceSource, jobs repository.RetrainingJobRepository, logger *logrus.Logger) *Controller {
	if cfg.RetrainInterval <= 0 {
		cfg.RetrainInterval = 24 * time.Hour
	}
	if cfg.MaxRetrainFrequency <= 0 {
		cfg.MaxRetrainFrequency = 1
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 30 * time.Minute
	}
	return &Controller{
		cfg:     cfg,
		trainer: trainer,
		perf:    perf,
		jobs:    jobs,
		logger:  logger,
		history: make(map[string][]time.Time),
		seeded:  make(map[string]bool),
		now:     time.Now,
	}
}

// RunCheck evaluates the schedule and performance-drop triggers. It is
// invoked from the retraining-check cycle; overlap deduplication happens
// in the scheduler, so this never runs concurrently with itself.
func (c *Controller) RunCheck(ctx context.Context) {
	trigger := models.TriggerSchedule

	c.mu.Lock()
	due := c.lastScheduled.IsZero() || c.now().Sub(c.lastScheduled) >= c.cfg.RetrainInterval
	c.mu.Unlock()

	dropped, why := c.performanceDropped(ctx)
	if dropped {
		trigger = models.TriggerPerformanceDrop
		c.logger.WithField("reason", why).Warn("Ensemble accuracy below threshold, triggering retraining")
	} else if !due {
		c.logger.Debug("Retraining check: nothing due")
		return
	}

	c.mu.Lock()
	c.lastScheduled = c.now()
	c.mu.Unlock()

	c.retrainAll(ctx, models.BaseRankerNames, trigger)
}

// TriggerManual requests retraining. An empty modelName makes every base
// ranker a candidate. Models in cooldown are skipped, not queued; the
// returned set contains only the jobs actually created.
func (c *Controller) TriggerManual(ctx context.Context, modelName string) ([]*models.RetrainingJob, error) {
	candidates := models.BaseRankerNames
	if modelName != "" {
		candidates = []string{modelName}
	}
	return c.retrainAll(ctx, candidates, models.TriggerManual), nil
}

// retrainAll dispatches retrains for every candidate not in cooldown.
// Jobs for different models run concurrently; inference keeps using the
// previously promoted weights while they do.
func (c *Controller) retrainAll(ctx context.Context, candidates []string, trigger models.RetrainTrigger) []*models.RetrainingJob {
	var (
		wg      sync.WaitGroup
		jobsMu  sync.Mutex
		created []*models.RetrainingJob
	)

	for _, model := range candidates {
		if !c.reserveSlot(ctx, model) {
			c.logger.WithFields(logrus.Fields{
				"model":   model,
				"trigger": trigger,
			}).Info("Retrain request skipped: model in cooldown")
			metrics.RecordRetrainSkip(model)
			continue
		}

		wg.Add(1)
		go func(model string) {
			defer wg.Done()
			job := c.runJob(ctx, model, trigger)
			if job != nil {
				jobsMu.Lock()
				created = append(created, job)
				jobsMu.Unlock()
			}
		}(model)
	}

	wg.Wait()
	return created
}

// reserveSlot records a dispatch against the model's cooldown window and
// reports whether the dispatch is allowed. Counting at reservation time
// keeps two concurrent requests from both passing the cap. The window is
// seeded from persisted jobs on first use, so the cap holds across
// restarts and across processes sharing one job repository.
func (c *Controller) reserveSlot(ctx context.Context, model string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seeded[model] {
		c.seedHistoryLocked(ctx, model)
		c.seeded[model] = true
	}

	now := c.now()
	cutoff := now.Add(-c.cfg.RetrainInterval)

	recent := c.history[model][:0]
	for _, t := range c.history[model] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= c.cfg.MaxRetrainFrequency {
		c.history[model] = recent
		return false
	}

	c.history[model] = append(recent, now)
	return true
}

// seedHistoryLocked merges the model's most recent persisted dispatch
// times into the in-memory window. Seeding happens once per model before
// its first local dispatch, so nothing is double-counted. On a repository
// error the check proceeds on local history alone.
func (c *Controller) seedHistoryLocked(ctx context.Context, model string) {
	jobs, err := c.jobs.GetByModel(ctx, model, c.cfg.MaxRetrainFrequency)
	if err != nil {
		c.logger.WithError(err).WithField("model", model).
			Warn("Could not load dispatch history for cooldown check")
		return
	}
	// GetByModel returns newest first; history is kept oldest first.
	for i := len(jobs) - 1; i >= 0; i-- {
		c.history[model] = append(c.history[model], jobs[i].CreatedAt)
	}
}

// LastRetrained returns the most recent dispatch time for a model.
func (c *Controller) LastRetrained(model string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	times := c.history[model]
	if len(times) == 0 {
		return time.Time{}, false
	}
	return times[len(times)-1], true
}

// runJob executes one retraining job through its full lifecycle. A
// dispatch failure transitions the job to failed with the error captured;
// it is never retried within the same cycle.
func (c *Controller) runJob(ctx context.Context, model string, trigger models.RetrainTrigger) *models.RetrainingJob {
	log := c.logger.WithFields(logrus.Fields{"model": model, "trigger": trigger})

	job := models.NewRetrainingJob(model, trigger)
	if err := c.jobs.Insert(ctx, job); err != nil {
		log.WithError(err).Error("Failed to record retraining job")
		return nil
	}

	_ = job.Start()
	if err := c.jobs.Update(ctx, job); err != nil {
		log.WithError(err).Warn("Failed to persist job start")
	}
	log.WithField("job_id", job.ID).Info("Retraining job dispatched")
	metrics.RecordRetrainJob(model, string(trigger))

	dispatchCtx, cancel := context.WithTimeout(ctx, c.cfg.DispatchTimeout)
	defer cancel()

	improvement, err := c.trainer.Train(dispatchCtx, model)
	if err != nil {
		_ = job.Fail(err.Error())
		log.WithError(err).WithField("job_id", job.ID).Error("Retraining dispatch failed")
		metrics.RecordRetrainFailure(model)
	} else {
		_ = job.Complete(improvement)
		log.WithFields(logrus.Fields{
			"job_id":      job.ID,
			"improvement": improvement,
		}).Info("Retraining job completed")
	}

	if err := c.jobs.Update(ctx, job); err != nil {
		log.WithError(err).Error("Failed to persist job completion")
	}
	return job
}

// performanceDropped evaluates the performance trigger, gated on minimum
// sample size.
func (c *Controller) performanceDropped(ctx context.Context) (bool, string) {
	if c.perf == nil {
		return false, ""
	}

	rate, samples, err := c.perf.EnsembleTop1Rate(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Could not evaluate ensemble accuracy for retraining check")
		return false, ""
	}
	if samples < c.cfg.MinSampleSize {
		return false, ""
	}
	if rate < c.cfg.AccuracyThreshold {
		return true, fmt.Sprintf("top-1 rate %.3f below %.3f over %d races", rate, c.cfg.AccuracyThreshold, samples)
	}
	return false, ""
}
