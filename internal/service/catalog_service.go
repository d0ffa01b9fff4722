// Package service orchestrates the marketplace flows: hierarchy browsing,
// flag acquisition, and auctions. Services fetch through the API adapter,
// commit results through the state mirror, and never mutate mirrored data
// speculatively.
package service

import (
	"context"

	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/state"
	"github.com/flagmarket-client/internal/storage"
)

// CatalogAPI is the read-only subset of the marketplace API used for
// hierarchy browsing and rankings.
type CatalogAPI interface {
	ListCountries(ctx context.Context) ([]models.Country, error)
	ListRegions(ctx context.Context, countryID string) ([]models.Region, error)
	ListMunicipalities(ctx context.Context, regionID string) ([]models.Municipality, error)
	ListRankings(ctx context.Context) ([]models.RankingEntry, error)
	GetStats(ctx context.Context) (*models.MarketStats, error)
}

// CatalogService keeps the geographic hierarchy and rankings slices in sync
// with the server.
type CatalogService struct {
	api    CatalogAPI
	cache  *storage.SnapshotCache // nil when the cache is disabled
	store  *state.Store
	logger *logging.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(api CatalogAPI, cache *storage.SnapshotCache, store *state.Store, logger *logging.Logger) *CatalogService {
	return &CatalogService{
		api:    api,
		cache:  cache,
		store:  store,
		logger: logger.WithField("component", "catalog_service"),
	}
}

// RefreshCountries fetches the country list and commits it.
func (s *CatalogService) RefreshCountries(ctx context.Context) ([]models.Country, error) {
	tok := s.store.Countries.Begin()
	countries, err := s.api.ListCountries(ctx)
	if err != nil {
		s.store.Countries.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.Countries.Resolve(tok, countries)
	s.cachePut(ctx, storage.Key("countries"), countries)
	return countries, nil
}

// RefreshRegions fetches the regions of a country and commits them.
func (s *CatalogService) RefreshRegions(ctx context.Context, countryID string) ([]models.Region, error) {
	tok := s.store.Regions.Begin()
	regions, err := s.api.ListRegions(ctx, countryID)
	if err != nil {
		s.store.Regions.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.Regions.Resolve(tok, regions)
	return regions, nil
}

// RefreshMunicipalities fetches the municipalities of a region and commits them.
func (s *CatalogService) RefreshMunicipalities(ctx context.Context, regionID string) ([]models.Municipality, error) {
	tok := s.store.Municipalities.Begin()
	municipalities, err := s.api.ListMunicipalities(ctx, regionID)
	if err != nil {
		s.store.Municipalities.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.Municipalities.Resolve(tok, municipalities)
	return municipalities, nil
}

// RefreshRankings fetches the leaderboard and commits it.
func (s *CatalogService) RefreshRankings(ctx context.Context) ([]models.RankingEntry, error) {
	tok := s.store.Rankings.Begin()
	rankings, err := s.api.ListRankings(ctx)
	if err != nil {
		s.store.Rankings.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.Rankings.Resolve(tok, rankings)
	return rankings, nil
}

// RefreshStats fetches the public marketplace statistics and commits them.
func (s *CatalogService) RefreshStats(ctx context.Context) (*models.MarketStats, error) {
	tok := s.store.Stats.Begin()
	stats, err := s.api.GetStats(ctx)
	if err != nil {
		s.store.Stats.Fail(tok, userMessage(err))
		return nil, err
	}
	s.store.Stats.Resolve(tok, stats)
	return stats, nil
}

// WarmStart seeds the store from cached snapshots so the UI has data to
// show before the first fetch lands. Cache problems are logged and ignored;
// the snapshots are a convenience, never a requirement.
func (s *CatalogService) WarmStart(ctx context.Context) {
	if s.cache == nil {
		return
	}

	var countries []models.Country
	if hit, err := s.cache.Get(ctx, storage.Key("countries"), &countries); err == nil && hit {
		tok := s.store.Countries.Begin()
		s.store.Countries.Resolve(tok, countries)
	}

	var flags []models.Flag
	if hit, err := s.cache.Get(ctx, storage.Key("flags"), &flags); err == nil && hit {
		tok := s.store.Flags.Begin()
		s.store.Flags.Resolve(tok, flags)
	}

	var auctions []models.Auction
	if hit, err := s.cache.Get(ctx, storage.Key("auctions"), &auctions); err == nil && hit {
		tok := s.store.Auctions.Begin()
		s.store.Auctions.Resolve(tok, auctions)
	}
}

func (s *CatalogService) cachePut(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, value); err != nil {
		s.logger.WithError(err).Warn("Failed to cache snapshot")
	}
}
