package retrain

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/repository"
)

type stubTrainer struct {
	mu          sync.Mutex
	calls       []string
	improvement float64
	err         error
	delay       time.Duration
}

func (s *stubTrainer) Train(ctx context.Context, modelName string) (float64, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	s.mu.Lock()
	s.calls = append(s.calls, modelName)
	s.mu.Unlock()
	return s.improvement, s.err
}

func (s *stubTrainer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubPerf struct {
	rate    float64
	samples int
	err     error
}

func (s *stubPerf) EnsembleTop1Rate(context.Context) (float64, int, error) {
	return s.rate, s.samples, s.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testController(trainer Trainer, perf PerformanceSource) (*Controller, repository.RetrainingJobRepository) {
	jobs := repository.NewMemoryRetrainingJobRepository()
	cfg := Config{
		RetrainInterval:     24 * time.Hour,
		MaxRetrainFrequency: 1,
		MinSampleSize:       50,
		AccuracyThreshold:   0.25,
		DispatchTimeout:     time.Second,
	}
	return NewController(cfg, trainer, perf, jobs, testLogger()), jobs
}

func TestTriggerManualSingleModel(t *testing.T) {
	trainer := &stubTrainer{improvement: 3.5}
	c, jobs := testController(trainer, nil)

	created, err := c.TriggerManual(context.Background(), models.ModelBaselineGBM)
	require.NoError(t, err)
	require.Len(t, created, 1)

	job := created[0]
	assert.Equal(t, models.ModelBaselineGBM, job.ModelName)
	assert.Equal(t, models.TriggerManual, job.Trigger)
	assert.Equal(t, models.JobCompleted, job.Status)
	require.NotNil(t, job.ImprovementPercent)
	assert.InDelta(t, 3.5, *job.ImprovementPercent, 1e-9)

	stored, err := jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, stored.Status)

	last, ok := c.LastRetrained(models.ModelBaselineGBM)
	assert.True(t, ok)
	assert.False(t, last.IsZero())
}

func TestTriggerManualAllModels(t *testing.T) {
	trainer := &stubTrainer{}
	c, _ := testController(trainer, nil)

	created, err := c.TriggerManual(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, created, len(models.BaseRankerNames))
	assert.Equal(t, len(models.BaseRankerNames), trainer.callCount())
}

func TestCooldownBlocksSecondTrigger(t *testing.T) {
	trainer := &stubTrainer{}
	c, _ := testController(trainer, nil)
	ctx := context.Background()

	first, err := c.TriggerManual(ctx, models.ModelNeuralNet)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := c.TriggerManual(ctx, models.ModelNeuralNet)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 1, trainer.callCount())
}

func TestCooldownExpires(t *testing.T) {
	trainer := &stubTrainer{}
	c, _ := testController(trainer, nil)
	ctx := context.Background()

	var clock atomic.Int64
	base := time.Now()
	c.now = func() time.Time { return base.Add(time.Duration(clock.Load())) }

	_, err := c.TriggerManual(ctx, models.ModelDiversityTree)
	require.NoError(t, err)

	clock.Store(int64(25 * time.Hour))

	again, err := c.TriggerManual(ctx, models.ModelDiversityTree)
	require.NoError(t, err)
	assert.Len(t, again, 1)
	assert.Equal(t, 2, trainer.callCount())
}

func TestCooldownSharedAcrossControllers(t *testing.T) {
	jobs := repository.NewMemoryRetrainingJobRepository()
	cfg := Config{
		RetrainInterval:     24 * time.Hour,
		MaxRetrainFrequency: 1,
		MinSampleSize:       50,
		AccuracyThreshold:   0.25,
		DispatchTimeout:     time.Second,
	}
	ctx := context.Background()

	first := NewController(cfg, &stubTrainer{}, nil, jobs, testLogger())
	created, err := first.TriggerManual(ctx, models.ModelBaselineGBM)
	require.NoError(t, err)
	require.Len(t, created, 1)

	// A fresh controller over the same job store, as after a restart or
	// from a separate CLI invocation, must still honor the window.
	trainer := &stubTrainer{}
	second := NewController(cfg, trainer, nil, jobs, testLogger())
	again, err := second.TriggerManual(ctx, models.ModelBaselineGBM)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Zero(t, trainer.callCount())

	recent, err := jobs.GetRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestCooldownSeedIgnoresExpiredJobs(t *testing.T) {
	jobs := repository.NewMemoryRetrainingJobRepository()
	ctx := context.Background()

	stale := models.NewRetrainingJob(models.ModelNeuralNet, models.TriggerManual)
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, jobs.Insert(ctx, stale))

	trainer := &stubTrainer{}
	c := NewController(Config{
		RetrainInterval:     24 * time.Hour,
		MaxRetrainFrequency: 1,
		MinSampleSize:       50,
		AccuracyThreshold:   0.25,
		DispatchTimeout:     time.Second,
	}, trainer, nil, jobs, testLogger())

	created, err := c.TriggerManual(ctx, models.ModelNeuralNet)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestConcurrentTriggersRespectCap(t *testing.T) {
	trainer := &stubTrainer{delay: 20 * time.Millisecond}
	c, _ := testController(trainer, nil)

	var wg sync.WaitGroup
	var dispatched atomic.Int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := c.TriggerManual(context.Background(), models.ModelCategoricalTree)
			assert.NoError(t, err)
			dispatched.Add(int64(len(created)))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), dispatched.Load())
	assert.Equal(t, 1, trainer.callCount())
}

func TestDispatchFailureRecordsFailedJob(t *testing.T) {
	trainer := &stubTrainer{err: errors.New("training service unavailable")}
	c, jobs := testController(trainer, nil)

	created, err := c.TriggerManual(context.Background(), models.ModelBaselineGBM)
	require.NoError(t, err)
	require.Len(t, created, 1)

	job := created[0]
	assert.Equal(t, models.JobFailed, job.Status)
	assert.Contains(t, job.Error, "training service unavailable")
	assert.NotNil(t, job.CompletedAt)

	// The failure counts against the cooldown too: no in-cycle retry.
	again, err := c.TriggerManual(context.Background(), models.ModelBaselineGBM)
	require.NoError(t, err)
	assert.Empty(t, again)

	recent, err := jobs.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.JobFailed, recent[0].Status)
}

func TestRunCheckScheduleTrigger(t *testing.T) {
	trainer := &stubTrainer{}
	c, jobs := testController(trainer, &stubPerf{rate: 0.40, samples: 200})

	c.RunCheck(context.Background())
	assert.Equal(t, len(models.BaseRankerNames), trainer.callCount())

	recent, err := jobs.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	for _, job := range recent {
		assert.Equal(t, models.TriggerSchedule, job.Trigger)
	}

	// A second check inside the interval finds nothing due.
	c.RunCheck(context.Background())
	assert.Equal(t, len(models.BaseRankerNames), trainer.callCount())
}

func TestRunCheckPerformanceDrop(t *testing.T) {
	trainer := &stubTrainer{}
	perf := &stubPerf{rate: 0.40, samples: 200}
	c, jobs := testController(trainer, perf)
	ctx := context.Background()

	c.RunCheck(ctx) // consumes the initial schedule trigger

	var clock atomic.Int64
	base := time.Now()
	c.now = func() time.Time { return base.Add(time.Duration(clock.Load())) }
	clock.Store(int64(25 * time.Hour)) // cooldowns expired, schedule due again

	perf.rate = 0.10
	c.RunCheck(ctx)

	recent, err := jobs.GetRecent(ctx, 20)
	require.NoError(t, err)

	drops := 0
	for _, job := range recent {
		if job.Trigger == models.TriggerPerformanceDrop {
			drops++
		}
	}
	assert.Equal(t, len(models.BaseRankerNames), drops)
}

func TestPerformanceDropGatedOnSampleSize(t *testing.T) {
	trainer := &stubTrainer{}
	// Rate is well below threshold but the sample is too small to act on.
	c, _ := testController(trainer, &stubPerf{rate: 0.05, samples: 10})

	c.RunCheck(context.Background())

	recent, err := c.jobs.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	for _, job := range recent {
		assert.Equal(t, models.TriggerSchedule, job.Trigger)
	}
}

func TestPerformanceSourceErrorFallsBackToSchedule(t *testing.T) {
	trainer := &stubTrainer{}
	c, _ := testController(trainer, &stubPerf{err: errors.New("db down")})

	c.RunCheck(context.Background())
	assert.Equal(t, len(models.BaseRankerNames), trainer.callCount())
}
