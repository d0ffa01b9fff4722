// Package main provides the admin seeding tool. It asks the backend to
// populate the demo hierarchy and prints the resulting marketplace stats.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/flagmarket-client/internal/adapter"
	"github.com/flagmarket-client/internal/config"
	"github.com/flagmarket-client/internal/logging"
)

func main() {
	statsOnly := flag.Bool("stats-only", false, "print marketplace stats without seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	market := adapter.NewMarketClient(&cfg.API, logger)
	admin, err := adapter.NewAdminClient(market, cfg.Admin.Key)
	if err != nil {
		logger.WithError(err).Fatal("Admin client unavailable; set ADMIN_KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !*statsOnly {
		logger.Info("Seeding demo data")
		seeded, err := admin.SeedDemoData(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Seeding failed")
		}
		fmt.Printf("seeded: %d countries, %d regions, %d municipalities, %d flags\n",
			seeded.Countries, seeded.Regions, seeded.Municipalities, seeded.Flags)
	}

	stats, err := admin.GetStats(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to fetch stats")
	}

	fmt.Println("marketplace stats:")
	fmt.Printf("  countries:       %d\n", stats.Countries)
	fmt.Printf("  regions:         %d\n", stats.Regions)
	fmt.Printf("  municipalities:  %d\n", stats.Municipalities)
	fmt.Printf("  flags:           %d\n", stats.Flags)
	fmt.Printf("  completed pairs: %d\n", stats.CompletedPairs)
	fmt.Printf("  active auctions: %d\n", stats.ActiveAuctions)
	fmt.Printf("  users:           %d\n", stats.Users)
}
