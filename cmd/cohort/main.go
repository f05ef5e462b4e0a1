package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cohort/internal/config"
	"cohort/internal/dataset"
	"cohort/internal/engine"
	"cohort/internal/logging"
	"cohort/internal/profile"
	"cohort/internal/store"
)

var (
	// Global flags
	configPath string
	verbose    bool
	dbPath     string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cohort",
	Short: "cohort - employee grouping and categorization engine",
	Long: `cohort discovers natural employee groups in workforce data.

It preprocesses raw records (imputation, encoding, scaling, optional
dimensionality reduction), clusters them with an auto-selected method,
profiles each group by its dominant features, and can blend successive
runs over time. A hybrid rule/ML categorizer assigns job titles to
standard categories.

Runs and engine state persist in a local SQLite database, so an
analysis can be updated incrementally as the workforce changes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbPath != "" {
			cfg.Store.DatabasePath = dbPath
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if cfg.Logging.Enabled {
			err = logging.Initialize(&logging.Options{
				Directory:  cfg.Logging.Directory,
				Level:      cfg.Logging.Level,
				Categories: cfg.Logging.Categories,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize file logging: %w", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	generateCount int
	generateSeed  int64
	generateOut   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic employee dataset",
	Long: `Synthesizes a CSV of realistic German employee records for testing:
job titles, departments, locations, salaries, hire dates, performance
ratings, and education levels drawn from fixed pools.

Example:
  cohort generate --count 1800 --out employees.csv`,
	RunE: runGenerate,
}

var (
	analyzeInput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [dataset.csv]",
	Short: "Identify employee groups in a dataset",
	Long: `Runs the full pipeline on a fresh dataset: preprocessing, clustering
with the configured (or auto-selected) method, and group profiling.
The run is recorded in the database and the engine state is
snapshotted so a later 'update' can continue the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var updateCmd = &cobra.Command{
	Use:   "update [dataset.csv]",
	Short: "Re-analyze a dataset and blend with the previous run",
	Long: `Loads the last engine snapshot, clusters the new batch with the same
fitted preprocessing, and blends the new assignment with the previous
one using the configured weights. Without a snapshot this behaves
like 'analyze'.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize [dataset.csv]",
	Short: "Assign job titles to standard categories",
	Long: `Labels every record twice: once with the keyword rule table and once
with a classifier trained on the rule output. Prints the holdout
evaluation, the agreement rate, and a sample of disagreements.`,
	Args: cobra.ExactArgs(1),
	RunE: runCategorize,
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List stored runs or show one run's report",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "cohort.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")

	generateCmd.Flags().IntVar(&generateCount, "count", 1800, "number of records to generate")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "random seed (0 seeds from the clock)")
	generateCmd.Flags().StringVar(&generateOut, "out", "employees.csv", "output CSV path")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 for all)")

	rootCmd.AddCommand(generateCmd, analyzeCmd, updateCmd, categorizeCmd, historyCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	records := dataset.Generate(generateCount, dataset.GenerateOptions{Seed: generateSeed})
	if err := dataset.Save(generateOut, records); err != nil {
		return err
	}
	logger.Info("generated dataset",
		zap.Int("count", generateCount),
		zap.String("path", generateOut))
	fmt.Printf("Generated %d employee records in %s\n", generateCount, generateOut)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	records, err := dataset.Load(args[0])
	if err != nil {
		return err
	}

	db, err := store.NewRunStore(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	eng := engine.New(cfg)
	start := time.Now()
	result, err := eng.IdentifyGroups(records)
	if err != nil {
		return err
	}
	logger.Info("analysis complete",
		zap.String("run_id", result.RunID),
		zap.String("method", string(result.Method)),
		zap.Int("groups", len(result.Assignment.Groups())),
		zap.Duration("elapsed", time.Since(start)))

	report := profile.RenderReport(result)
	fmt.Print(report)

	if err := db.SaveRun(result, report); err != nil {
		return err
	}
	return snapshotEngine(eng, db)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	records, err := dataset.Load(args[0])
	if err != nil {
		return err
	}

	db, err := store.NewRunStore(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	eng := engine.New(cfg)
	if blob, err := db.LatestSnapshot(); err != nil {
		return err
	} else if blob != nil {
		if err := eng.ImportState(blob); err != nil {
			return fmt.Errorf("failed to restore previous session: %w", err)
		}
	} else {
		logger.Warn("no snapshot found, running a fresh analysis")
	}

	result, err := eng.UpdateGroups(records)
	if err != nil {
		return err
	}
	logger.Info("update complete",
		zap.String("run_id", result.RunID),
		zap.Int("groups", len(result.Assignment.Groups())))

	report := profile.RenderReport(result)
	fmt.Print(report)

	if err := db.SaveRun(result, report); err != nil {
		return err
	}
	return snapshotEngine(eng, db)
}

func runCategorize(cmd *cobra.Command, args []string) error {
	records, err := dataset.Load(args[0])
	if err != nil {
		return err
	}

	eng := engine.New(cfg)
	result, err := eng.CategorizeBatch(records)
	if err != nil {
		return err
	}

	if result.Evaluation != nil {
		fmt.Println("Holdout evaluation:")
		fmt.Print(result.Evaluation.String())
		fmt.Println()
	}
	fmt.Printf("Rule/ML agreement: %.1f%% over %d records\n",
		result.AgreementRate*100, len(result.RuleLabels))
	if len(result.Disagreements) > 0 {
		fmt.Println("Sampled disagreements:")
		for _, d := range result.Disagreements {
			fmt.Printf("  %-35s rule=%-18s ml=%s\n", d.Title, d.RuleLabel, d.MLLabel)
		}
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := store.NewRunStore(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		rec, err := db.GetRun(args[0])
		if err != nil {
			return err
		}
		fmt.Print(rec.Report)
		return nil
	}

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}
	fmt.Printf("%-36s  %-20s  %-12s  %7s  %6s  %7s\n",
		"RUN", "CREATED", "METHOD", "RECORDS", "GROUPS", "NOISE")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-12s  %7s  %6s  %7s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Method,
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Groups),
			strconv.Itoa(r.Noise))
	}
	return nil
}

func snapshotEngine(eng *engine.Engine, db *store.RunStore) error {
	blob, err := eng.ExportState()
	if err != nil {
		return err
	}
	if _, err := db.SaveSnapshot(blob); err != nil {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
