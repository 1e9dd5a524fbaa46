// Package main provides the entry point for the prediction pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/equine-oracle/internal/analytics"
	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/database"
	"github.com/yourusername/equine-oracle/internal/ensemble"
	"github.com/yourusername/equine-oracle/internal/health"
	applogger "github.com/yourusername/equine-oracle/internal/logger"
	"github.com/yourusername/equine-oracle/internal/metrics"
	"github.com/yourusername/equine-oracle/internal/ml"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/ranker"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/internal/results"
	"github.com/yourusername/equine-oracle/internal/retrain"
	"github.com/yourusername/equine-oracle/internal/scheduler"
	"github.com/yourusername/equine-oracle/internal/service"
	signals "github.com/yourusername/equine-oracle/internal/signal"
	"github.com/yourusername/equine-oracle/internal/validation"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cardFile   string
	useMemory  bool

	cfg    *config.Config
	appLog *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	predictCmd.Flags().StringVarP(&cardFile, "card", "f", "", "Path to a race card JSON file")
	predictCmd.Flags().BoolVar(&useMemory, "memory", false, "Use in-memory storage instead of Postgres")
	predictCmd.MarkFlagRequired("card")
}

var rootCmd = &cobra.Command{
	Use:   "predictor",
	Short: "Horse race prediction pipeline",
	Long:  `Runs the ensemble prediction pipeline: base ranker scoring, signal generation, result validation and auto-retraining.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := config.ValidateEnvironment(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		appLog = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the full pipeline with scheduled cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a single race from a race card file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPredict(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, predictCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// pipeline bundles everything serve and predict share.
type pipeline struct {
	repos     *repository.Repositories
	db        *database.DB
	scoring   *ml.ScoringClient
	cache     *ml.ScoreCache
	registry  *ranker.Registry
	combiner  *ensemble.Combiner
	engine    *signals.Engine
	preds     *service.PredictionService
	resultSvc *service.ResultService
	perfSvc   *service.PerformanceService
	fetcher   *results.Fetcher
}

func buildPipeline(ctx context.Context, inMemory bool) (*pipeline, error) {
	p := &pipeline{}

	if inMemory {
		p.repos = repository.NewMemoryRepositories()
	} else {
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		p.db = db
		p.repos = &repository.Repositories{
			Predictions: repository.NewPostgresPredictionRepository(db),
			Results:     repository.NewPostgresRaceResultRepository(db),
			Accuracy:    repository.NewPostgresAccuracyRepository(db),
			Jobs:        repository.NewPostgresRetrainingJobRepository(db),
		}
		appLog.Info("Database connection established")
	}

	p.scoring = ml.NewScoringClient(&cfg.Scoring, appLog)
	p.cache = ml.NewScoreCache(cfg.ScoringCacheTTL(), cfg.Scoring.CacheMaxSize)

	p.registry = ranker.NewRegistry()
	for _, name := range models.BaseRankerNames {
		var scorer ranker.Scorer = ml.NewModelScorer(name, p.scoring)
		if cfg.Features.ScoringCachingEnabled {
			scorer = ml.NewCachedScorer(scorer, p.cache)
		}
		if err := p.registry.Register(scorer); err != nil {
			return nil, err
		}
	}

	p.engine = signals.NewEngine(signals.Config{
		Thresholds: signals.Thresholds{
			StrongBuy: cfg.Signals.StrongBuyThreshold,
			Buy:       cfg.Signals.BuyThreshold,
			Hold:      cfg.Signals.HoldThreshold,
		},
		AgreementFloor: cfg.Ensemble.AgreementFloor,
		Stake:          cfg.Signals.Stake,
	}, appLog)

	p.combiner = ensemble.NewCombiner(p.engine, appLog)
	if len(cfg.Ensemble.Weights) > 0 {
		if err := p.combiner.SetWeights(cfg.Ensemble.Weights); err != nil {
			return nil, fmt.Errorf("invalid ensemble weights: %w", err)
		}
	}

	validator := validation.NewValidator(decimal.NewFromFloat(cfg.Signals.Stake), appLog)
	p.fetcher = results.NewFetcher(&cfg.ResultsSource, appLog)

	lookback := time.Duration(cfg.ResultsSource.LookbackHours) * time.Hour
	p.preds = service.NewPredictionService(p.registry, p.combiner, p.engine, p.repos.Predictions, appLog)
	p.resultSvc = service.NewResultService(p.repos, validator, p.fetcher, lookback, appLog)
	p.perfSvc = service.NewPerformanceService(p.repos.Accuracy, analytics.NewAggregator(appLog), p.combiner, 7*24*time.Hour, appLog)

	return p, nil
}

func (p *pipeline) close() {
	if p.db != nil {
		p.db.Close()
	}
}

func runServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.InitRegistry()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Equine Oracle predictor starting")

	p, err := buildPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.close()

	audit := applogger.NewAuditLogger(appLog)

	trainer := ml.NewTrainingClient(&cfg.Scoring, p.cache, appLog)
	controller := retrain.NewController(retrain.Config{
		RetrainInterval:     cfg.RetrainInterval(),
		MaxRetrainFrequency: cfg.Retraining.MaxFrequency,
		MinSampleSize:       cfg.Retraining.MinSampleSize,
		AccuracyThreshold:   cfg.Retraining.AccuracyThreshold,
		DispatchTimeout:     time.Duration(cfg.Retraining.DispatchTimeoutMins) * time.Minute,
	}, trainer, p.perfSvc, p.repos.Jobs, appLog)

	sched := scheduler.NewScheduler(time.Duration(cfg.Scheduler.JobTimeoutSeconds)*time.Second, appLog)

	if err := sched.AddJob("prediction", cfg.Scheduler.PredictionCron, func(ctx context.Context) error {
		cards, err := p.fetcher.FetchUpcoming(ctx)
		if err != nil {
			return err
		}
		p.preds.PredictUpcoming(ctx, cards)
		return nil
	}); err != nil {
		return err
	}

	if cfg.Features.ResultsPollingEnabled {
		if err := sched.AddJob("results", cfg.Scheduler.ResultsCron, func(ctx context.Context) error {
			n, err := p.resultSvc.CollectCompleted(ctx)
			if n > 0 {
				appLog.WithField("ingested", n).Info("Results cycle complete")
			}
			return err
		}); err != nil {
			return err
		}
	}

	if cfg.Features.AutoRetrainingEnabled {
		if err := sched.AddJob("retrain_check", cfg.Scheduler.RetrainCheckCron, func(ctx context.Context) error {
			controller.RunCheck(ctx)
			return nil
		}); err != nil {
			return err
		}
	}

	if cfg.Features.WeightRotationEnabled {
		if err := sched.AddJob("weight_refresh", cfg.Scheduler.WeightRefreshCron, func(ctx context.Context) error {
			old := p.combiner.Weights()
			updated, err := p.perfSvc.RefreshWeights(ctx)
			if err != nil {
				return err
			}
			audit.LogWeightChange("sharpe_refresh", old, updated)
			return nil
		}); err != nil {
			return err
		}
	}

	healthSrv := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        fmt.Sprintf("%d", cfg.Metrics.Port),
		Logger:      appLog,
	})
	healthSrv.AddChecker("database", p.db.Ping)
	healthSrv.AddChecker("scoring_service", p.scoring.HealthCheck)
	if err := healthSrv.Start(ctx); err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	healthSrv.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"jobs":            sched.JobNames(),
		"auto_retraining": cfg.Features.AutoRetrainingEnabled,
		"weight_rotation": cfg.Features.WeightRotationEnabled,
		"results_polling": cfg.Features.ResultsPollingEnabled,
		"scoring_caching": cfg.Features.ScoringCachingEnabled,
	}).Info("Prediction pipeline running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthSrv.SetReady(false)
	cancel()
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}

	appLog.Info("Equine Oracle predictor shut down")
	return nil
}

func runPredict(ctx context.Context) error {
	data, err := os.ReadFile(cardFile)
	if err != nil {
		return fmt.Errorf("failed to read race card: %w", err)
	}

	var card models.RaceCard
	if err := json.Unmarshal(data, &card); err != nil {
		return fmt.Errorf("failed to parse race card: %w", err)
	}

	p, err := buildPipeline(ctx, useMemory)
	if err != nil {
		return err
	}
	defer p.close()

	pred, err := p.preds.PredictRace(ctx, card)
	if err != nil {
		return err
	}

	printPrediction(pred)
	return nil
}

func printPrediction(pred *models.RacePrediction) {
	fmt.Printf("Race %s  (confidence %.2f, agreement %.2f)\n",
		pred.RaceID, pred.Output.EnsembleConfidence, pred.Output.ModelAgreement)
	fmt.Println()

	for _, h := range pred.Output.Horses {
		fmt.Printf("  %2d. %-24s score %.4f  confidence %.2f\n",
			h.Rank, h.HorseName, h.Score, h.Confidence)
	}
	fmt.Println()

	for _, s := range pred.Signals {
		fmt.Printf("  %-24s %-12s %s\n", s.HorseName, s.Signal, s.Recommendation)
	}

	if pred.Advice != nil {
		fmt.Println()
		fmt.Printf("Advice: %s on %s", pred.Advice.Recommendation, pred.Advice.TopHorse)
		if pred.Advice.Reason != "" {
			fmt.Printf(" (%s)", pred.Advice.Reason)
		}
		fmt.Println()
	}
}
