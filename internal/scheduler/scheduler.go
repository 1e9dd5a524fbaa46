// Package scheduler runs the pipeline's periodic cycles: prediction,
// result collection, weight refresh and retraining checks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/metrics"
)

// JobFunc is one scheduled cycle body. The context carries the job timeout.
type JobFunc func(ctx context.Context) error

// Scheduler manages the cron-driven pipeline cycles. Each named job holds
// an in-flight guard: a firing that overlaps the previous run of the same
// job is skipped and counted, never run concurrently with itself.
type Scheduler struct {
	cron       *cron.Cron
	logger     *logrus.Logger
	jobTimeout time.Duration

	mu        sync.RWMutex
	isRunning bool
	jobIDs    map[string]cron.EntryID
	inFlight  map[string]*sync.Mutex
}

// NewScheduler creates a scheduler. The cron spec format includes seconds,
// matching the config examples.
func NewScheduler(jobTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		logger:     logger,
		jobTimeout: jobTimeout,
		jobIDs:     make(map[string]cron.EntryID),
		inFlight:   make(map[string]*sync.Mutex),
	}
}

// AddJob schedules a named job. Names must be unique; jobs cannot be added
// while the scheduler is running.
func (s *Scheduler) AddJob(name, cronExpression string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}

	guard := &sync.Mutex{}
	s.inFlight[name] = guard

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		s.runJob(name, guard, fn)
	})
	if err != nil {
		delete(s.inFlight, name)
		return fmt.Errorf("failed to add job %q: %w", name, err)
	}

	s.jobIDs[name] = entryID
	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"cron": cronExpression,
	}).Info("Scheduled job")
	return nil
}

// runJob executes one firing of a job under its in-flight guard.
func (s *Scheduler) runJob(name string, guard *sync.Mutex, fn JobFunc) {
	if !guard.TryLock() {
		s.logger.WithField("job", name).Warn("Previous run still in flight, skipping")
		metrics.RecordSchedulerSkip(name)
		return
	}
	defer guard.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.WithError(err).WithField("job", name).Error("Scheduled job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"duration": time.Since(start),
	}).Debug("Scheduled job completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the earliest upcoming firing across all jobs.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}

// JobNames returns the scheduled job names.
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}
