package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/types"
)

const (
	viewerAddr  = "0xAbC1230000000000000000000000000000000001"
	strangerAdr = "0xdef4560000000000000000000000000000000002"
)

func TestIsRevealed(t *testing.T) {
	tests := []struct {
		name   string
		flag   models.Flag
		viewer string
		want   bool
	}{
		{
			name:   "completed pair is public",
			flag:   models.Flag{IsPairComplete: true},
			viewer: "",
			want:   true,
		},
		{
			name: "completed pair is public even for strangers",
			flag: models.Flag{
				IsPairComplete: true,
				Ownerships:     []models.Ownership{{UserWalletAddress: "0xowner"}},
			},
			viewer: strangerAdr,
			want:   true,
		},
		{
			name: "viewer with interest sees the flag",
			flag: models.Flag{
				Interests: []models.Interest{{UserWalletAddress: types.NormalizeAddress(viewerAddr)}},
			},
			viewer: viewerAddr,
			want:   true,
		},
		{
			name: "interest comparison is case-insensitive",
			flag: models.Flag{
				Interests: []models.Interest{{UserWalletAddress: "0xabc1230000000000000000000000000000000001"}},
			},
			viewer: "0xABC1230000000000000000000000000000000001",
			want:   true,
		},
		{
			name: "viewer owning an NFT sees the flag",
			flag: models.Flag{
				Ownerships: []models.Ownership{{
					UserWalletAddress: types.NormalizeAddress(viewerAddr),
					OwnershipType:     models.OwnershipClaim,
				}},
			},
			viewer: viewerAddr,
			want:   true,
		},
		{
			name: "stranger sees nothing",
			flag: models.Flag{
				Interests:  []models.Interest{{UserWalletAddress: types.NormalizeAddress(viewerAddr)}},
				Ownerships: []models.Ownership{{UserWalletAddress: types.NormalizeAddress(viewerAddr)}},
			},
			viewer: strangerAdr,
			want:   false,
		},
		{
			name: "disconnected viewer never matches interest or ownership",
			flag: models.Flag{
				Interests: []models.Interest{{UserWalletAddress: types.NormalizeAddress(viewerAddr)}},
			},
			viewer: "",
			want:   false,
		},
		{
			name:   "empty stored address never matches a disconnected viewer",
			flag:   models.Flag{Interests: []models.Interest{{UserWalletAddress: ""}}},
			viewer: "",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRevealed(&tt.flag, tt.viewer))
		})
	}
}

func TestIsRevealedNilFlag(t *testing.T) {
	assert.False(t, IsRevealed(nil, viewerAddr))
}

func TestMaskFlag(t *testing.T) {
	flag := models.Flag{
		ID:           "flag-1",
		Name:         "Flag of Springfield",
		ImageCID:     "QmSomeCID",
		Category:     types.CategoryPremium,
		NFTsRequired: 3,
		Interests: []models.Interest{
			{UserWalletAddress: "0xa"},
			{UserWalletAddress: "0xb"},
		},
	}

	masked := MaskFlag(&flag)

	assert.Equal(t, "flag-1", masked.ID)
	assert.Equal(t, types.CategoryPremium, masked.Category)
	assert.Equal(t, 3, masked.NFTsRequired)
	assert.Equal(t, 2, masked.InterestCount)
}
