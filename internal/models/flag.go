// Package models provides data models for the flag marketplace client.
// All entities here are server-owned; the client only mirrors fetched
// snapshots and never fabricates canonical state.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flagmarket-client/internal/types"
)

// Flag represents a collectible municipal flag backed by a pair of NFTs.
// The first NFT is claimed free of charge; the second is purchased.
type Flag struct {
	ID              string             `json:"id"`
	MunicipalityID  string             `json:"municipality_id"`
	Name            string             `json:"name"`
	ImageCID        string             `json:"image_cid"`
	MetadataCID     string             `json:"metadata_cid,omitempty"`
	Price           decimal.Decimal    `json:"price"`
	NFTsRequired    int                `json:"nfts_required"`
	Category        types.FlagCategory `json:"category"`
	FirstNFTStatus  types.NFTStatus    `json:"first_nft_status"`
	SecondNFTStatus *types.NFTStatus   `json:"second_nft_status,omitempty"`
	IsPairComplete  bool               `json:"is_pair_complete"`
	Interests       []Interest         `json:"interests"`
	Ownerships      []Ownership        `json:"ownerships"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Interest represents a registered expression of interest in a flag
type Interest struct {
	UserWalletAddress string    `json:"user_wallet_address"`
	CreatedAt         time.Time `json:"created_at"`
}

// OwnershipType distinguishes how an NFT of the pair was acquired
type OwnershipType string

const (
	// OwnershipClaim is ownership of the first NFT, claimed free
	OwnershipClaim OwnershipType = "claim"
	// OwnershipPurchase is ownership of the second NFT, purchased
	OwnershipPurchase OwnershipType = "purchase"
)

// Ownership represents a recorded NFT ownership for a flag
type Ownership struct {
	UserWalletAddress string        `json:"user_wallet_address"`
	OwnershipType     OwnershipType `json:"ownership_type"`
	TxHash            string        `json:"tx_hash,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// MysteryFlag is the reduced view of an unrevealed flag. Only category,
// NFT multiplicity and the aggregate interest count may be shown; name,
// location and image must not leak through this view.
type MysteryFlag struct {
	ID            string             `json:"id"`
	Category      types.FlagCategory `json:"category"`
	NFTsRequired  int                `json:"nfts_required"`
	InterestCount int                `json:"interest_count"`
}

// HasInterest reports whether the given wallet has registered interest in
// the flag. Comparison is case-insensitive; an empty address never matches.
func (f *Flag) HasInterest(walletAddress string) bool {
	for _, in := range f.Interests {
		if types.SameAddress(in.UserWalletAddress, walletAddress) {
			return true
		}
	}
	return false
}

// HasOwnership reports whether the given wallet owns either NFT of the pair.
func (f *Flag) HasOwnership(walletAddress string) bool {
	for _, own := range f.Ownerships {
		if types.SameAddress(own.UserWalletAddress, walletAddress) {
			return true
		}
	}
	return false
}
