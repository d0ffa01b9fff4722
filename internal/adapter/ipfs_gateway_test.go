package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPFSGatewayURL(t *testing.T) {
	g := NewIPFSGateway("https://ipfs.io/ipfs/")

	tests := []struct {
		name string
		cid  string
		want string
	}{
		{name: "raw CID", cid: "QmXyz", want: "https://ipfs.io/ipfs/QmXyz"},
		{name: "ipfs scheme", cid: "ipfs://QmXyz", want: "https://ipfs.io/ipfs/QmXyz"},
		{name: "http passthrough", cid: "https://cdn.example/flag.png", want: "https://cdn.example/flag.png"},
		{name: "empty", cid: "", want: ""},
		{name: "whitespace", cid: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.URL(tt.cid))
		})
	}
}

func TestFetchMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/QmMeta", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"name": "Flag of Springfield",
			"description": "Municipal flag NFT",
			"image": "ipfs://QmImage",
			"attributes": [{"trait_type": "category", "value": "premium"}]
		}`))
	}))
	defer server.Close()

	g := NewIPFSGateway(server.URL)

	meta, err := g.FetchMetadata(context.Background(), "QmMeta")

	require.NoError(t, err)
	assert.Equal(t, "Flag of Springfield", meta.Name)
	assert.Equal(t, "ipfs://QmImage", meta.Image)
	require.Len(t, meta.Attributes, 1)
	assert.Equal(t, "category", meta.Attributes[0].TraitType)
}

func TestFetchMetadataGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	g := NewIPFSGateway(server.URL)

	_, err := g.FetchMetadata(context.Background(), "QmMeta")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "504")
}

func TestFetchMetadataEmptyCID(t *testing.T) {
	g := NewIPFSGateway("https://ipfs.io/ipfs")
	_, err := g.FetchMetadata(context.Background(), "")
	require.Error(t, err)
}
