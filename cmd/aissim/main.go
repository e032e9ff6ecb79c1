package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/haesinais/aisdash/internal/simulation"
	"github.com/haesinais/aisdash/pkg/logger"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:8081", "Address to serve the simulated AIS API on")
	count := pflag.IntP("vessels", "n", 60, "Number of vessels to simulate")
	lat := pflag.Float64("center-lat", 35.08, "Latitude the fleet is scattered around")
	lon := pflag.Float64("center-lon", 129.08, "Longitude the fleet is scattered around")
	radius := pflag.Float64("radius-nm", 25, "Radius of the fleet area in nautical miles")
	step := pflag.Duration("step", time.Second, "How often vessel positions advance")
	seed := pflag.Int64("seed", 1, "Random seed for names and positions")
	logLevel := pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.Parse()

	log, err := logger.New(logger.Config{Level: *logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	fleet := simulation.NewFleet(*seed, log)
	if err := fleet.Seed(*count, *lat, *lon, *radius); err != nil {
		log.Error("Failed to seed fleet", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fleet.Run(ctx, *step)

	server := &http.Server{
		Addr:              *addr,
		Handler:           simulation.NewHandler(fleet, log).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Serving simulated AIS API", logger.String("addr", server.Addr), logger.Int("vessels", *count))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", logger.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}
	log.Info("Simulator stopped")
}
