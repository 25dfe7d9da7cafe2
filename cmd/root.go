package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/cogcat/internal/apperr"
	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/profile"
	"github.com/abhisek/cogcat/internal/store"
)

var (
	cfgFile string
	verbose bool
	logger  = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "cogcat",
	Short: "Adaptive cognitive tests for young children",
	Long: `cogcat runs computerized adaptive tests in five cognitive domains.

Each test picks the most informative next question from a calibrated item
bank, re-estimates the child's ability after every answer, and stops once
the estimate is precise enough. Results roll up into a longitudinal profile.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger()
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		return nil
	},
}

// Execute runs the root command and prints any error with a hint.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cogcat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides COGCAT_DB env var)")
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(childCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(domainCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(statsCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cogcat")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("cogcat")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	def := assessment.DefaultConfig()
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("engine.min_items", def.MinItems)
	viper.SetDefault("engine.max_items", def.MaxItems)
	viper.SetDefault("engine.target_se", def.TargetSE)
	viper.SetDefault("engine.age_slack_months", def.AgeSlackMonths)
	viper.SetDefault("engine.storage_timeout", def.StorageTimeout)
	viper.SetDefault("profile.history_keep", profile.DefaultHistoryKeep)

	// A missing default config file is fine; anything else was asked for.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Warning: could not read config:", err)
	}
}

// newLogger builds the stderr logger from --verbose, log_level, and log_format.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	if viper.GetString("log_format") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// engineConfig reads the engine settings from viper.
func engineConfig() assessment.Config {
	cfg := assessment.DefaultConfig()
	cfg.MinItems = viper.GetInt("engine.min_items")
	cfg.MaxItems = viper.GetInt("engine.max_items")
	cfg.TargetSE = viper.GetFloat64("engine.target_se")
	cfg.AgeSlackMonths = viper.GetInt("engine.age_slack_months")
	cfg.StorageTimeout = viper.GetDuration("engine.storage_timeout")
	return cfg
}

// resolveDBPath returns the database path using --db or the db config key
// (highest priority), then COGCAT_DB env var, then the default XDG path.
func resolveDBPath() (string, error) {
	if p := viper.GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// env bundles the services a command needs.
type env struct {
	store    *store.Store
	profiles *profile.Aggregator
	engine   *assessment.Engine
}

// openEnv opens the store and wires the engine over it.
func openEnv() (*env, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("opened store", "path", dbPath)

	profiles := profile.NewAggregator(st.Profiles(),
		profile.WithSnapshots(st.Snapshots(), viper.GetInt("profile.history_keep")),
		profile.WithLogger(logger),
	)
	engine, err := assessment.NewEngine(engineConfig(), assessment.Deps{
		Children: st.Children(),
		Bank:     st.Items(),
		Sessions: st.Sessions(),
		Profiles: profiles,
		Events:   st.Events(),
	}, assessment.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, err
	}
	return &env{store: st, profiles: profiles, engine: engine}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// errorHint suggests a next step for classified errors.
func errorHint(err error) string {
	switch {
	case errors.Is(err, assessment.ErrNoEligibleItems):
		return "Hint: import items for this domain and age with 'cogcat item import'."
	case errors.Is(err, apperr.ErrNotFound):
		return "Hint: check the id or name; 'cogcat child list' and 'cogcat assess list' show what exists."
	case errors.Is(err, apperr.ErrInvalidState):
		return "Hint: the assessment is no longer in progress; start a new one."
	case errors.Is(err, apperr.ErrTransientStorage):
		return "Hint: the database is busy; try again in a moment."
	case errors.Is(err, apperr.ErrValidation):
		return "Hint: run the command with --help to see the expected input."
	}
	return ""
}
