package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flagmarket-client/internal/errors"
)

// IPFSGateway constructs retrievable URLs for content hashes and fetches
// NFT metadata through a public gateway. The client never writes to IPFS;
// pinning is delegated to the backend's sync utility.
type IPFSGateway struct {
	baseURL    string
	httpClient *http.Client
}

// NewIPFSGateway creates a gateway resolver rooted at baseURL
// (e.g. https://ipfs.io/ipfs).
func NewIPFSGateway(baseURL string) *IPFSGateway {
	return &IPFSGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NFTMetadata is the standard metadata document attached to a flag NFT
type NFTMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Attributes  []NFTAttribute `json:"attributes,omitempty"`
}

// NFTAttribute is one trait of the metadata document
type NFTAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// URL builds the gateway URL for a content identifier. Accepts raw CIDs and
// ipfs://-prefixed references; anything already http(s) passes through.
func (g *IPFSGateway) URL(cid string) string {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return ""
	}
	if strings.HasPrefix(cid, "http://") || strings.HasPrefix(cid, "https://") {
		return cid
	}
	cid = strings.TrimPrefix(cid, "ipfs://")
	return g.baseURL + "/" + cid
}

// FetchMetadata retrieves and decodes the metadata document for a CID.
func (g *IPFSGateway) FetchMetadata(ctx context.Context, cid string) (*NFTMetadata, error) {
	target := g.URL(cid)
	if target == "" {
		return nil, errors.NewValidationError("metadata CID is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAPIError(resp.StatusCode,
			fmt.Sprintf("IPFS gateway returned status %d for %s", resp.StatusCode, cid), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}

	var meta NFTMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode NFT metadata: %w", err)
	}
	return &meta, nil
}
