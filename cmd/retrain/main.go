// Package main provides the retraining control CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/database"
	applogger "github.com/yourusername/equine-oracle/internal/logger"
	"github.com/yourusername/equine-oracle/internal/ml"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/internal/retrain"
)

var (
	configFile  string
	modelName   string
	recentLimit int

	cfg    *config.Config
	appLog *logrus.Logger
	db     *database.DB
	jobs   repository.RetrainingJobRepository
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	triggerCmd.Flags().StringVarP(&modelName, "model", "m", "", "Retrain only this base ranker (default: all)")
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "Number of jobs to show")
}

var rootCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Manage base ranker retraining",
	Long:  `Trigger retraining runs and inspect retraining job history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		appLog = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

		db, err = database.NewDB(cmd.Context(), &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		jobs = repository.NewPostgresRetrainingJobRepository(db)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Dispatch retraining jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return triggerRetraining(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show one retraining job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context(), args[0])
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent retraining jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRecent(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(triggerCmd, statusCmd, recentCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func triggerRetraining(ctx context.Context) error {
	cache := ml.NewScoreCache(cfg.ScoringCacheTTL(), cfg.Scoring.CacheMaxSize)
	trainer := ml.NewTrainingClient(&cfg.Scoring, cache, appLog)

	controller := retrain.NewController(retrain.Config{
		RetrainInterval:     cfg.RetrainInterval(),
		MaxRetrainFrequency: cfg.Retraining.MaxFrequency,
		MinSampleSize:       cfg.Retraining.MinSampleSize,
		AccuracyThreshold:   cfg.Retraining.AccuracyThreshold,
		DispatchTimeout:     time.Duration(cfg.Retraining.DispatchTimeoutMins) * time.Minute,
	}, trainer, nil, jobs, appLog)

	created, err := controller.TriggerManual(ctx, modelName)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("No jobs dispatched: all candidates are in cooldown")
		return nil
	}

	audit := applogger.NewAuditLogger(appLog)
	for _, job := range created {
		audit.LogRetrainDispatch(job.ID.String(), job.ModelName, string(job.Trigger), string(job.Status), "cli")
		fmt.Printf("✓ %s\n", job.ModelName)
		fmt.Printf("  Job ID: %s\n", job.ID)
		fmt.Printf("  Status: %s\n", job.Status)
		if job.ImprovementPercent != nil {
			fmt.Printf("  Improvement: %.2f%%\n", *job.ImprovementPercent)
		}
		if job.Error != "" {
			fmt.Printf("  Error: %s\n", job.Error)
		}
	}
	return nil
}

func showStatus(ctx context.Context, rawID string) error {
	jobID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid job ID %q: %w", rawID, err)
	}

	job, err := jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	fmt.Printf("Job:       %s\n", job.ID)
	fmt.Printf("Model:     %s\n", job.ModelName)
	fmt.Printf("Trigger:   %s\n", job.Trigger)
	fmt.Printf("Status:    %s\n", job.Status)
	fmt.Printf("Created:   %s\n", job.CreatedAt.Format(time.RFC3339))
	if job.StartedAt != nil {
		fmt.Printf("Started:   %s\n", job.StartedAt.Format(time.RFC3339))
	}
	if job.CompletedAt != nil {
		fmt.Printf("Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
	}
	if job.ImprovementPercent != nil {
		fmt.Printf("Improvement: %.2f%%\n", *job.ImprovementPercent)
	}
	if job.Error != "" {
		fmt.Printf("Error:     %s\n", job.Error)
	}
	return nil
}

func listRecent(ctx context.Context) error {
	recent, err := jobs.GetRecent(ctx, recentLimit)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("No retraining jobs recorded")
		return nil
	}

	fmt.Printf("%-36s  %-16s  %-16s  %-10s  %s\n", "JOB", "MODEL", "TRIGGER", "STATUS", "CREATED")
	for _, job := range recent {
		fmt.Printf("%-36s  %-16s  %-16s  %-10s  %s\n",
			job.ID, job.ModelName, job.Trigger, job.Status,
			job.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
