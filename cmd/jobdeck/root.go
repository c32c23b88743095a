package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdeck/internal/config"
	"github.com/amishk599/jobdeck/internal/model"
	"github.com/amishk599/jobdeck/internal/notifier"
)

var (
	cfgPath   string
	envFile   string
	debug     bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "jobdeck",
	Short: "Job postings in, enriched job cards out",
	Long:  "jobdeck ingests postings from job boards and aggregators, deduplicates them, and enriches each into a display-ready card.",
	// Default to `run` so that `jobdeck` with no args runs the daemon.
	RunE:          runDaemon,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBDECK_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with service keys (default: ./.env if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// loadConfig resolves the config path, loads service keys and parses the file.
// Priority: explicit path arg > JOBDECK_CONFIG env var > "./config.yaml".
// A missing default file yields the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	// Keys first so ${VAR} references in the YAML see .env entries.
	keys, err := config.LoadKeys(envFile)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	switch {
	case path != "":
		cfg, err = config.Load(path)
	case os.Getenv("JOBDECK_CONFIG") != "":
		cfg, err = config.Load(os.Getenv("JOBDECK_CONFIG"))
	default:
		cfg, err = config.LoadOrDefault("config.yaml")
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyKeys(keys)
	return cfg, nil
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if logFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// mustSetup loads config and opens the app, exiting on failure.
func mustSetup(cmd *cobra.Command) (*app, *slog.Logger) {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	return a, logger
}
