package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/haesinais/aisdash/internal/account"
	"github.com/haesinais/aisdash/internal/api"
	"github.com/haesinais/aisdash/internal/config"
	"github.com/haesinais/aisdash/internal/dashboard"
	"github.com/haesinais/aisdash/internal/remote"
	"github.com/haesinais/aisdash/internal/websocket"
	"github.com/haesinais/aisdash/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := pflag.StringP("config", "c", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	logLevel := pflag.String("log-level", "", "Override logging.level (debug, info, warn, error)")
	showVersion := pflag.BoolP("version", "v", false, "Print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting AIS dashboard server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.String("remote", cfg.Remote.BaseURL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Remote API client
	remoteClient := remote.NewClient(cfg.Remote.BaseURL, time.Duration(cfg.Remote.TimeoutSecs)*time.Second, log)

	// Dashboard
	home := dashboard.NewHome(remoteClient, dashboard.Options{
		VesselSource:      cfg.Remote.VesselSource,
		PollInterval:      time.Duration(cfg.Remote.FetchIntervalSecs) * time.Second,
		RowsPerPage:       cfg.Dashboard.RowsPerPage,
		DefaultCenter:     dashboard.Center{Lat: cfg.Dashboard.DefaultCenterLat, Lon: cfg.Dashboard.DefaultCenterLon},
		PredictionEnabled: cfg.Prediction.Enabled,
		PredictionShape:   cfg.Prediction.Shape,
		PredictionTimeout: time.Duration(cfg.Remote.TimeoutSecs) * time.Second,
	}, log)

	var bg sync.WaitGroup
	bg.Add(1)
	go func() {
		defer bg.Done()
		if err := home.Run(ctx); err != nil {
			log.Error("Dashboard stopped with error", logger.Error(err))
		}
	}()

	// Create WebSocket server and stream view snapshots to it
	wsServer := websocket.NewServer(log)
	if cfg.Server.WebSocketUpdates {
		wsHandler := dashboard.NewWebSocketHandler(home, wsServer, log)
		wsServer.SetMessageHandler(wsHandler)

		bg.Add(2)
		go func() {
			defer bg.Done()
			wsServer.Run(ctx)
		}()
		go func() {
			defer bg.Done()
			wsHandler.Stream(ctx)
		}()
	}

	accounts := account.NewService(remoteClient, log)

	// Create API router
	router := api.NewRouter(home, accounts, cfg, log, wsServer)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}       // Start with the primary port
	if len(cfg.Server.AdditionalPorts) > 0 { // Only append if there are additional ports
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	handler := router.Routes()
	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      handler, // All servers use the same main router
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Shutdown all HTTP servers first so no new intents arrive
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	// Stop the dashboard (and its poller) and the WebSocket hub
	cancel()
	bg.Wait()

	log.Info("Server fully stopped")
}
