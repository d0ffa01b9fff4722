// Package main provides the interactive command-line client for the flag
// marketplace: hierarchy browsing, flag acquisition, and auctions.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/flagmarket-client/internal/adapter"
	"github.com/flagmarket-client/internal/config"
	clierrors "github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/market"
	"github.com/flagmarket-client/internal/service"
	"github.com/flagmarket-client/internal/state"
	"github.com/flagmarket-client/internal/storage"
	"github.com/flagmarket-client/internal/types"

	"github.com/shopspring/decimal"
)

type app struct {
	catalog  *service.CatalogService
	flags    *service.FlagService
	auctions *service.AuctionService
	gateway  *adapter.IPFSGateway
	wallet   adapter.Wallet
	logger   *logging.Logger
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	a, cleanup, err := buildApp(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize client")
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", userFacing(err))
		os.Exit(1)
	}
}

func buildApp(cfg *config.Config, logger *logging.Logger) (*app, func(), error) {
	api := adapter.NewMarketClient(&cfg.API, logger)
	store := state.NewStore()
	cleanup := func() {}

	var cache *storage.SnapshotCache
	if cfg.Cache.Addr != "" {
		c, err := storage.NewSnapshotCache(&cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Snapshot cache unavailable, continuing without it")
		} else {
			cache = c
			cleanup = func() { _ = c.Close() }
		}
	}

	var wallet adapter.Wallet
	if cfg.Wallet.KeystorePath != "" {
		w, err := adapter.NewKeystoreWallet(cfg, logger)
		if err != nil {
			return nil, cleanup, err
		}
		wallet = w
	}

	var pricer adapter.DiscountSource
	if cfg.Chain.PricingContractAddress != "" && cfg.Chain.RPCURL != "" {
		p, err := adapter.NewContractPricer(cfg.Chain.RPCURL, cfg.Chain.PricingContractAddress, logger)
		if err != nil {
			logger.WithError(err).Warn("Pricing contract unavailable, discounts disabled")
		} else {
			pricer = p
		}
	}

	return &app{
		catalog:  service.NewCatalogService(api, cache, store, logger),
		flags:    service.NewFlagService(api, wallet, pricer, cache, store, logger),
		auctions: service.NewAuctionService(api, wallet, cache, store, cfg.Auction.BidIncrement, logger),
		gateway:  adapter.NewIPFSGateway(cfg.IPFS.GatewayBaseURL),
		wallet:   wallet,
		logger:   logger,
	}, cleanup, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "countries":
		return a.listCountries(ctx)
	case "regions":
		return a.listRegions(ctx, arg(args, 0, "country id"))
	case "municipalities":
		return a.listMunicipalities(ctx, arg(args, 0, "region id"))
	case "flags":
		return a.listFlags(ctx, arg(args, 0, "municipality id"))
	case "flag":
		return a.showFlag(ctx, arg(args, 0, "flag id"))
	case "interest":
		return a.showInterest(ctx, arg(args, 0, "flag id"))
	case "claim":
		return a.claim(ctx, arg(args, 0, "flag id"))
	case "purchase":
		return a.purchase(ctx, arg(args, 0, "flag id"))
	case "auctions":
		return a.listAuctions(ctx)
	case "auction":
		return a.showAuction(ctx, arg(args, 0, "auction id"))
	case "bid":
		return a.placeBid(ctx, args)
	case "buyout":
		return a.buyout(ctx, arg(args, 0, "auction id"))
	case "rankings":
		return a.rankings(ctx)
	case "stats":
		return a.stats(ctx)
	case "balance":
		return a.balance(ctx)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) listCountries(ctx context.Context) error {
	countries, err := a.catalog.RefreshCountries(ctx)
	if err != nil {
		return err
	}
	for _, c := range countries {
		fmt.Printf("%-38s %-4s %-24s %d flags\n", c.ID, c.Code, c.Name, c.FlagCount)
	}
	return nil
}

func (a *app) listRegions(ctx context.Context, countryID string) error {
	regions, err := a.catalog.RefreshRegions(ctx, countryID)
	if err != nil {
		return err
	}
	for _, r := range regions {
		fmt.Printf("%-38s %-28s %d flags\n", r.ID, r.Name, r.FlagCount)
	}
	return nil
}

func (a *app) listMunicipalities(ctx context.Context, regionID string) error {
	municipalities, err := a.catalog.RefreshMunicipalities(ctx, regionID)
	if err != nil {
		return err
	}
	for _, m := range municipalities {
		fmt.Printf("%-38s %-28s %d flags\n", m.ID, m.Name, m.FlagCount)
	}
	return nil
}

func (a *app) listFlags(ctx context.Context, municipalityID string) error {
	flags, err := a.flags.RefreshFlags(ctx, municipalityID)
	if err != nil {
		return err
	}
	viewer := a.flags.ViewerAddress()
	for i := range flags {
		f := &flags[i]
		if market.IsRevealed(f, viewer) {
			fmt.Printf("%-38s %-10s %-24s %s\n", f.ID, f.Category, f.Name, market.FlagStateOf(f))
		} else {
			m := market.MaskFlag(f)
			fmt.Printf("%-38s %-10s %-24s %d interested\n", m.ID, m.Category, "??? (mystery)", m.InterestCount)
		}
	}
	return nil
}

func (a *app) showFlag(ctx context.Context, flagID string) error {
	flag, err := a.flags.LoadFlag(ctx, flagID)
	if err != nil {
		return err
	}
	viewer := a.flags.ViewerAddress()

	if !market.IsRevealed(flag, viewer) {
		m := market.MaskFlag(flag)
		fmt.Printf("Mystery flag %s\n", m.ID)
		fmt.Printf("  category:   %s\n", m.Category)
		fmt.Printf("  nfts:       %d\n", m.NFTsRequired)
		fmt.Printf("  interested: %d\n", m.InterestCount)
		fmt.Println("  show interest, own a piece, or wait for the pair to complete to reveal it")
		return nil
	}

	quote := a.flags.QuoteFor(ctx, flag)
	fmt.Printf("%s (%s)\n", flag.Name, flag.ID)
	fmt.Printf("  category: %s\n", flag.Category)
	fmt.Printf("  state:    %s\n", market.FlagStateOf(flag))
	fmt.Printf("  price:    %s x %d = %s\n", quote.UnitPrice, quote.NFTsRequired, quote.Total)
	if quote.HasDiscount() {
		fmt.Printf("  your price: %s x %d = %s\n", *quote.DiscountedUnit, quote.NFTsRequired, *quote.DiscountedTot)
	}
	if flag.ImageCID != "" {
		fmt.Printf("  image:    %s\n", a.gateway.URL(flag.ImageCID))
	}
	for _, action := range market.FlagActions(flag, viewer) {
		fmt.Printf("  available: %s\n", action)
	}
	return nil
}

func (a *app) showInterest(ctx context.Context, flagID string) error {
	flag, err := a.flags.ShowInterest(ctx, flagID)
	if err != nil {
		return err
	}
	fmt.Printf("interest registered, %d collectors interested\n", len(flag.Interests))
	return nil
}

func (a *app) claim(ctx context.Context, flagID string) error {
	flag, err := a.flags.ClaimFirst(ctx, flagID)
	if err != nil {
		return err
	}
	fmt.Printf("first NFT of %s claimed\n", flag.Name)
	return nil
}

func (a *app) purchase(ctx context.Context, flagID string) error {
	flag, err := a.flags.PurchaseSecond(ctx, flagID)
	if err != nil {
		return err
	}
	if flag.IsPairComplete {
		fmt.Printf("pair complete: %s is now publicly revealed\n", flag.Name)
	} else {
		fmt.Printf("second NFT of %s purchased\n", flag.Name)
	}
	return nil
}

func (a *app) listAuctions(ctx context.Context) error {
	auctions, err := a.auctions.RefreshAuctions(ctx, types.AuctionActive)
	if err != nil {
		return err
	}
	for i := range auctions {
		auc := &auctions[i]
		highest := "no bids"
		if auc.CurrentHighestBid != nil {
			highest = auc.CurrentHighestBid.String()
		}
		fmt.Printf("%-38s flag=%s highest=%s ends=%s\n", auc.ID, auc.FlagID, highest, auc.EndsAt.Format(time.RFC3339))
	}
	return nil
}

func (a *app) showAuction(ctx context.Context, auctionID string) error {
	auction, err := a.auctions.LoadAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	viewer := a.auctions.ViewerAddress()
	now := time.Now()

	fmt.Printf("Auction %s (flag %s)\n", auction.ID, auction.FlagID)
	fmt.Printf("  state:    %s\n", market.AuctionStateOf(auction, viewer, now))
	fmt.Printf("  min bid:  %s\n", a.auctions.MinimumBidFor(auction))
	if auction.BuyoutPrice != nil {
		fmt.Printf("  buyout:   %s\n", auction.BuyoutPrice)
	}
	if leader := market.LeadingBid(auction.Bids); leader != nil {
		fmt.Printf("  leading:  %s by %s (%s)\n", leader.Amount, leader.BidderID, leader.BidderCategory)
	}
	fmt.Printf("  ends:     %s\n", auction.EndsAt.Format(time.RFC3339))
	for _, action := range market.AuctionActions(auction, viewer, now) {
		fmt.Printf("  available: %s\n", action)
	}
	return nil
}

func (a *app) placeBid(ctx context.Context, args []string) error {
	auctionID := arg(args, 0, "auction id")
	amount, err := decimal.NewFromString(arg(args, 1, "amount"))
	if err != nil {
		return fmt.Errorf("invalid bid amount: %w", err)
	}
	category := types.CategoryStandard
	if len(args) > 2 {
		category = types.FlagCategory(args[2])
	}

	auction, err := a.auctions.PlaceBid(ctx, auctionID, amount, category)
	if err != nil {
		return err
	}
	fmt.Printf("bid placed; highest is now %s\n", auction.CurrentHighestBid)
	return nil
}

func (a *app) buyout(ctx context.Context, auctionID string) error {
	auction, err := a.auctions.Buyout(ctx, auctionID)
	if err != nil {
		return err
	}
	fmt.Printf("auction %s bought out\n", auction.ID)
	return nil
}

func (a *app) rankings(ctx context.Context) error {
	rankings, err := a.catalog.RefreshRankings(ctx)
	if err != nil {
		return err
	}
	for _, r := range rankings {
		fmt.Printf("%3d. %-44s %-8s %3d flags %3d pairs\n", r.Rank, r.WalletAddress, r.Category, r.FlagsOwned, r.PairsCompleted)
	}
	return nil
}

func (a *app) stats(ctx context.Context) error {
	stats, err := a.catalog.RefreshStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d flags across %d municipalities, %d pairs completed, %d auctions running, %d collectors\n",
		stats.Flags, stats.Municipalities, stats.CompletedPairs, stats.ActiveAuctions, stats.Users)
	return nil
}

func (a *app) balance(ctx context.Context) error {
	if a.wallet == nil || !a.wallet.Connected() {
		return fmt.Errorf("no wallet configured; set WALLET_KEYSTORE_PATH")
	}
	balance, err := a.wallet.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", a.wallet.Address(), balance)
	return nil
}

func arg(args []string, i int, name string) string {
	if i >= len(args) {
		fmt.Fprintf(os.Stderr, "missing argument: %s\n", name)
		os.Exit(2)
	}
	return args[i]
}

func userFacing(err error) string {
	var ce *clierrors.ClientError
	if stderrors.As(err, &ce) {
		return ce.UserMessage()
	}
	return err.Error()
}

func usage() {
	fmt.Println(`flagctl - municipal flag marketplace client

Browsing:
  flagctl countries
  flagctl regions <country-id>
  flagctl municipalities <region-id>
  flagctl flags <municipality-id>
  flagctl flag <flag-id>
  flagctl rankings
  flagctl stats

Acquisition (requires WALLET_KEYSTORE_PATH):
  flagctl interest <flag-id>
  flagctl claim <flag-id>
  flagctl purchase <flag-id>
  flagctl balance

Auctions:
  flagctl auctions
  flagctl auction <auction-id>
  flagctl bid <auction-id> <amount> [category]
  flagctl buyout <auction-id>`)
}
