// Package main provides the auction watcher: a long-running process that
// keeps the local state mirror fresh and reports auction leader changes.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flagmarket-client/internal/adapter"
	"github.com/flagmarket-client/internal/config"
	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/service"
	"github.com/flagmarket-client/internal/state"
	"github.com/flagmarket-client/internal/storage"
	"github.com/flagmarket-client/internal/worker"
)

func main() {
	fmt.Println("Flag Marketplace Auction Watcher")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"api":           cfg.API.BaseURL,
		"poll_interval": cfg.Auction.PollInterval.String(),
	}).Info("Auction watcher starting")

	api := adapter.NewMarketClient(&cfg.API, logger)
	store := state.NewStore()

	var cache *storage.SnapshotCache
	if cfg.Cache.Addr != "" {
		cache, err = storage.NewSnapshotCache(&cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Snapshot cache unavailable, continuing without it")
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	catalog := service.NewCatalogService(api, cache, store, logger)
	flags := service.NewFlagService(api, nil, nil, cache, store, logger)
	auctions := service.NewAuctionService(api, nil, cache, store, cfg.Auction.BidIncrement, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// show cached snapshots immediately while the first poll is in flight
	catalog.WarmStart(ctx)

	refreshWorker, err := worker.NewRefreshWorker(&worker.RefreshWorkerConfig{
		Auctions:     auctions,
		Flags:        flags,
		PollInterval: cfg.Auction.PollInterval,
		OnLeaderChange: func(change worker.LeaderChange) {
			logger.WithFields(map[string]interface{}{
				"auction":  change.AuctionID,
				"flag":     change.FlagID,
				"previous": change.Previous,
				"current":  change.Current,
			}).Info("Auction leader changed")
			fmt.Printf("[%s] auction %s: leader is now %s\n",
				time.Now().Format(time.TimeOnly), change.AuctionID, change.Current)
		},
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create refresh worker")
	}

	if err := refreshWorker.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start refresh worker")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := refreshWorker.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Refresh worker did not stop cleanly")
		os.Exit(1)
	}

	status := refreshWorker.Status()
	logger.WithFields(map[string]interface{}{
		"polls":    status.PollsCompleted,
		"auctions": status.AuctionsTracked,
	}).Info("Auction watcher stopped")
}
