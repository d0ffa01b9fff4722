// Package main provides the IPFS sync tool. It triggers the backend's pin
// run and then verifies that the flags' metadata is reachable through the
// configured gateway.
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
	verifyLimit := flag.Int("verify", 10, "number of flags to verify through the gateway (0 to skip)")
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
	gateway := adapter.NewIPFSGateway(cfg.IPFS.GatewayBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger.Info("Triggering IPFS sync")
	result, err := admin.TriggerIPFSSync(ctx)
	if err != nil {
		logger.WithError(err).Fatal("IPFS sync failed")
	}
	fmt.Printf("sync: %d pinned, %d skipped, %d failed\n", result.Pinned, result.Skipped, len(result.Failed))
	for _, cid := range result.Failed {
		fmt.Printf("  failed: %s\n", cid)
	}

	if *verifyLimit <= 0 {
		return
	}

	flags, err := market.ListFlags(ctx, "")
	if err != nil {
		logger.WithError(err).Fatal("Failed to list flags for verification")
	}

	verified, broken := 0, 0
	for i := range flags {
		if verified >= *verifyLimit {
			break
		}
		f := &flags[i]
		if f.MetadataCID == "" {
			continue
		}
		verified++

		meta, err := gateway.FetchMetadata(ctx, f.MetadataCID)
		if err != nil {
			broken++
			logger.WithError(err).WithFields(map[string]interface{}{
				"flag": f.ID,
				"cid":  f.MetadataCID,
			}).Warn("Metadata unreachable through gateway")
			continue
		}
		logger.WithFields(map[string]interface{}{
			"flag": f.ID,
			"name": meta.Name,
		}).Debug("Metadata verified")
	}

	fmt.Printf("verified %d flags through %s, %d unreachable\n", verified, cfg.IPFS.GatewayBaseURL, broken)
}
