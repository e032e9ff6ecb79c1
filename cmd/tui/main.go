package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/haesinais/aisdash/internal/config"
	"github.com/haesinais/aisdash/internal/dashboard"
	"github.com/haesinais/aisdash/internal/remote"
	"github.com/haesinais/aisdash/internal/tui"
	"github.com/haesinais/aisdash/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	logFile := pflag.String("log-file", "", "Log file (default: logging.file_path, else aisdash-tui.log in the temp directory)")
	logLevel := pflag.String("log-level", "", "Override logging.level (debug, info, warn, error)")
	baseURL := pflag.String("remote", "", "Override remote.base_url")
	showVersion := pflag.BoolP("version", "v", false, "Print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	if err := run(*configPath, *logFile, *logLevel, *baseURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logFile, logLevel, baseURL string) error {
	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if baseURL != "" {
		cfg.Remote.BaseURL = baseURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The terminal belongs to the UI, so logs only go to a file
	if logFile == "" {
		logFile = cfg.Logging.FilePath
	}
	if logFile == "" {
		logFile = filepath.Join(os.TempDir(), "aisdash-tui.log")
	}
	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     "json",
		FilePath:   logFile,
		FileOnly:   true,
		MaxSizeMB:  max(cfg.Logging.MaxSizeMB, 10),
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting AIS terminal dashboard",
		logger.String("version", Version),
		logger.String("remote", cfg.Remote.BaseURL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remoteClient := remote.NewClient(cfg.Remote.BaseURL, time.Duration(cfg.Remote.TimeoutSecs)*time.Second, log)
	home := dashboard.NewHome(remoteClient, dashboard.Options{
		VesselSource:      cfg.Remote.VesselSource,
		PollInterval:      time.Duration(cfg.Remote.FetchIntervalSecs) * time.Second,
		RowsPerPage:       cfg.Dashboard.RowsPerPage,
		DefaultCenter:     dashboard.Center{Lat: cfg.Dashboard.DefaultCenterLat, Lon: cfg.Dashboard.DefaultCenterLon},
		PredictionEnabled: cfg.Prediction.Enabled,
		PredictionShape:   cfg.Prediction.Shape,
		PredictionTimeout: time.Duration(cfg.Remote.TimeoutSecs) * time.Second,
	}, log)

	updates, unsubscribe := home.Subscribe()
	defer unsubscribe()

	homeErr := make(chan error, 1)
	go func() {
		homeErr <- home.Run(ctx)
	}()

	program := tea.NewProgram(tui.NewModel(home, updates, home.Options().RowsPerPage), tea.WithAltScreen())
	_, err = program.Run()

	cancel()
	if runErr := <-homeErr; runErr != nil {
		log.Error("Dashboard stopped with error", logger.Error(runErr))
	}
	log.Info("Terminal dashboard stopped")
	return err
}
