// Package main provides the accuracy reporting CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/equine-oracle/internal/analytics"
	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/database"
	applogger "github.com/yourusername/equine-oracle/internal/logger"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/internal/service"
	"github.com/yourusername/equine-oracle/internal/validation"
)

var (
	configFile string
	fromDate   string
	toDate     string
	modelName  string

	cfg     *config.Config
	appLog  *logrus.Logger
	db      *database.DB
	perfSvc *service.PerformanceService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&fromDate, "from", "", "Window start (YYYY-MM-DD, default: 7 days ago)")
	rootCmd.Flags().StringVar(&toDate, "to", "", "Window end (YYYY-MM-DD, default: now)")
	rootCmd.Flags().StringVarP(&modelName, "model", "m", "", "Report only this model")
}

var rootCmd = &cobra.Command{
	Use:   "accuracy-report",
	Short: "Report prediction accuracy by model",
	Long:  `Aggregates validated predictions into per-model accuracy, calibration and ROI snapshots.`,
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

		accuracy := repository.NewPostgresAccuracyRepository(db)
		perfSvc = service.NewPerformanceService(accuracy, analytics.NewAggregator(appLog), nil, 7*24*time.Hour, appLog)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func parseWindow() (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.Add(-7 * 24 * time.Hour)

	if fromDate != "" {
		t, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
		}
		start = t
	}
	if toDate != "" {
		t, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
		}
		end = t.Add(24 * time.Hour) // inclusive end date
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("window start %s is not before end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}

func runReport(ctx context.Context) error {
	start, end, err := parseWindow()
	if err != nil {
		return err
	}

	if modelName != "" {
		snap, err := perfSvc.ModelSnapshot(ctx, modelName, start, end)
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	}

	snaps, err := perfSvc.Snapshots(ctx, start, end)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No validated predictions in this window")
		return nil
	}

	// Ensemble first, then base rankers, then anything else.
	names := make([]string, 0, len(snaps))
	for name := range snaps {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return snapshotOrder(names[i]) < snapshotOrder(names[j])
	})

	for _, name := range names {
		printSnapshot(snaps[name])
		fmt.Println()
	}
	return nil
}

func snapshotOrder(name string) string {
	if name == validation.EnsembleModelName {
		return "0"
	}
	for i, base := range models.BaseRankerNames {
		if name == base {
			return fmt.Sprintf("1%d", i)
		}
	}
	return "9" + name
}

func printSnapshot(s *models.ModelPerformanceSnapshot) {
	fmt.Printf("%s  (%s to %s, %d predictions)\n",
		s.ModelName,
		s.WindowStart.Format("2006-01-02"),
		s.WindowEnd.Format("2006-01-02"),
		s.TotalPredictions,
	)
	fmt.Printf("  Top-1 rate:       %6.1f%%\n", s.Top1Rate*100)
	fmt.Printf("  Top-3 hit rate:   %6.1f%%   exact: %5.1f%%\n", s.Top3HitRate*100, s.Top3ExactRate*100)
	fmt.Printf("  Top-4 hit rate:   %6.1f%%   exact: %5.1f%%\n", s.Top4HitRate*100, s.Top4ExactRate*100)
	fmt.Printf("  Avg confidence:   %6.2f    calibration error: %.3f\n", s.AvgConfidence, s.CalibrationScore)
	fmt.Printf("  ROI:              %6.1f%%   sharpe: %.2f\n", s.TotalROI*100, s.SharpeRatio)

	if s.HighConfidenceCount > 0 || s.LowConfidenceCount > 0 {
		marker := "✓"
		if !s.WellCalibrated() {
			marker = "✗"
		}
		fmt.Printf("  Calibration %s     high-conf top-1 %5.1f%% (n=%d) vs low-conf %5.1f%% (n=%d)\n",
			marker,
			s.HighConfidenceTop1Rate*100, s.HighConfidenceCount,
			s.LowConfidenceTop1Rate*100, s.LowConfidenceCount,
		)
	}
}
