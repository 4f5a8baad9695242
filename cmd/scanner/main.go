package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kucoin-arb-scanner-go/internal/config"
	"kucoin-arb-scanner-go/internal/database"
	"kucoin-arb-scanner-go/internal/kucoin"
	"kucoin-arb-scanner-go/internal/logger"
	"kucoin-arb-scanner-go/internal/scanner"
	"kucoin-arb-scanner-go/internal/sink"
)

func main() {
	// Load application configuration. Validation failures (bad path bounds,
	// topK, fee rate) are fatal here, before anything starts.
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize KuCoin REST client
	restClient := kucoin.NewRestClient(&cfg.KuCoin, cfg.Scanner.MinVolume, log)
	if _, err := restClient.GetServerTime(); err != nil {
		log.Fatal("Failed to connect to KuCoin API", zap.Error(err))
	}
	log.Info("Successfully connected to KuCoin API.")

	// Per-leg prices come from the level1 endpoint only when configured;
	// the default prices every leg from the scan's own snapshot.
	var level1 scanner.PriceSource
	if cfg.Scanner.PriceSource == config.PriceSourceLevel1 {
		level1 = restClient
	}

	store := scanner.NewRankingStore(cfg.Scanner.TopK)
	sinks := []scanner.ResultSink{
		sink.NewLogSink(log),
		sink.NewDatabaseSink(db, log),
		sink.NewFileSink(cfg.Scanner.OutputFile, log),
	}

	sched := scanner.NewScheduler(log, &cfg, restClient, level1, store, sinks...)
	apiServer := scanner.NewAPIServer(sched, cfg.Server.Port, log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		apiServer.Start()
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return apiServer.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Shutdown finished with error", zap.Error(err))
	}

	log.Info("Scanner has been shut down.")
}
