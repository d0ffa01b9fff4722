package adapter

import (
	"context"
	"net/http"

	"github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/models"
)

// AdminClient consumes the admin endpoints of the marketplace API: CRUD
// over the geographic hierarchy plus the operational utilities. Every call
// carries the shared-secret admin key; the key is held for the session only
// and never persisted.
type AdminClient struct {
	market *MarketClient
	key    string
}

// NewAdminClient wraps a market client with the session's admin key.
func NewAdminClient(market *MarketClient, key string) (*AdminClient, error) {
	if key == "" {
		return nil, errors.NewConfigError("admin key is required for admin operations")
	}
	return &AdminClient{market: market, key: key}, nil
}

// CountryInput is the payload for creating or updating a country
type CountryInput struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// RegionInput is the payload for creating or updating a region
type RegionInput struct {
	CountryID string `json:"country_id"`
	Name      string `json:"name"`
}

// MunicipalityInput is the payload for creating or updating a municipality
type MunicipalityInput struct {
	RegionID  string   `json:"region_id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// FlagInput is the payload for creating or updating a flag
type FlagInput struct {
	MunicipalityID string `json:"municipality_id"`
	Name           string `json:"name"`
	ImageCID       string `json:"image_cid,omitempty"`
	Price          string `json:"price"`
	NFTsRequired   int    `json:"nfts_required"`
	Category       string `json:"category"`
}

// SeedResult reports what the demo seeding created
type SeedResult struct {
	Countries      int `json:"countries"`
	Regions        int `json:"regions"`
	Municipalities int `json:"municipalities"`
	Flags          int `json:"flags"`
}

// SyncResult reports the outcome of an IPFS sync run
type SyncResult struct {
	Pinned  int      `json:"pinned"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
}

// GenerateResult reports an AI generation job for a flag image
type GenerateResult struct {
	FlagID   string `json:"flag_id"`
	ImageCID string `json:"image_cid"`
}

// CreateCountry creates a country node.
func (a *AdminClient) CreateCountry(ctx context.Context, in CountryInput) (*models.Country, error) {
	var out models.Country
	if err := a.mutate(ctx, http.MethodPost, "/admin/countries", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCountry updates a country node.
func (a *AdminClient) UpdateCountry(ctx context.Context, id string, in CountryInput) (*models.Country, error) {
	var out models.Country
	if err := a.mutate(ctx, http.MethodPut, "/admin/countries/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCountry deletes a country node and its subtree.
func (a *AdminClient) DeleteCountry(ctx context.Context, id string) error {
	return a.mutate(ctx, http.MethodDelete, "/admin/countries/"+id, nil, nil)
}

// CreateRegion creates a region node.
func (a *AdminClient) CreateRegion(ctx context.Context, in RegionInput) (*models.Region, error) {
	var out models.Region
	if err := a.mutate(ctx, http.MethodPost, "/admin/regions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRegion updates a region node.
func (a *AdminClient) UpdateRegion(ctx context.Context, id string, in RegionInput) (*models.Region, error) {
	var out models.Region
	if err := a.mutate(ctx, http.MethodPut, "/admin/regions/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRegion deletes a region node and its subtree.
func (a *AdminClient) DeleteRegion(ctx context.Context, id string) error {
	return a.mutate(ctx, http.MethodDelete, "/admin/regions/"+id, nil, nil)
}

// CreateMunicipality creates a municipality node.
func (a *AdminClient) CreateMunicipality(ctx context.Context, in MunicipalityInput) (*models.Municipality, error) {
	var out models.Municipality
	if err := a.mutate(ctx, http.MethodPost, "/admin/municipalities", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMunicipality updates a municipality node.
func (a *AdminClient) UpdateMunicipality(ctx context.Context, id string, in MunicipalityInput) (*models.Municipality, error) {
	var out models.Municipality
	if err := a.mutate(ctx, http.MethodPut, "/admin/municipalities/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMunicipality deletes a municipality node and its flags.
func (a *AdminClient) DeleteMunicipality(ctx context.Context, id string) error {
	return a.mutate(ctx, http.MethodDelete, "/admin/municipalities/"+id, nil, nil)
}

// CreateFlag creates a flag under a municipality.
func (a *AdminClient) CreateFlag(ctx context.Context, in FlagInput) (*models.Flag, error) {
	var out models.Flag
	if err := a.mutate(ctx, http.MethodPost, "/admin/flags", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateFlag updates a flag.
func (a *AdminClient) UpdateFlag(ctx context.Context, id string, in FlagInput) (*models.Flag, error) {
	var out models.Flag
	if err := a.mutate(ctx, http.MethodPut, "/admin/flags/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFlag deletes a flag.
func (a *AdminClient) DeleteFlag(ctx context.Context, id string) error {
	return a.mutate(ctx, http.MethodDelete, "/admin/flags/"+id, nil, nil)
}

// SeedDemoData asks the backend to populate the demo hierarchy.
func (a *AdminClient) SeedDemoData(ctx context.Context) (*SeedResult, error) {
	var out SeedResult
	if err := a.mutate(ctx, http.MethodPost, "/admin/seed", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerIPFSSync asks the backend to pin all flag assets to IPFS.
func (a *AdminClient) TriggerIPFSSync(ctx context.Context) (*SyncResult, error) {
	var out SyncResult
	if err := a.mutate(ctx, http.MethodPost, "/admin/ipfs/sync", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateFlagArt asks the backend to run AI generation for a flag image.
func (a *AdminClient) GenerateFlagArt(ctx context.Context, flagID string) (*GenerateResult, error) {
	var out GenerateResult
	if err := a.mutate(ctx, http.MethodPost, "/admin/flags/"+flagID+"/generate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats fetches the dashboard statistics.
func (a *AdminClient) GetStats(ctx context.Context) (*models.MarketStats, error) {
	var out models.MarketStats
	err := retryGet(ctx, a.market, "/admin/stats", a.headers(), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) headers() map[string]string {
	return map[string]string{"X-Admin-Key": a.key}
}

func (a *AdminClient) mutate(ctx context.Context, method, path string, body, out interface{}) error {
	return a.market.do(ctx, method, path, nil, body, a.headers(), out)
}

// retryGet performs an admin read with the same retry policy as public reads.
func retryGet(ctx context.Context, m *MarketClient, path string, headers map[string]string, out interface{}) error {
	return withReadRetry(ctx, m, func(ctx context.Context) error {
		return m.do(ctx, http.MethodGet, path, nil, nil, headers, out)
	})
}
