package models

import (
	"time"

	"github.com/flagmarket-client/internal/types"
)

// User represents a marketplace user keyed by wallet address
type User struct {
	ID            string             `json:"id"`
	WalletAddress string             `json:"wallet_address"`
	Category      types.FlagCategory `json:"category"`
	CreatedAt     time.Time          `json:"created_at"`
}

// RankingEntry represents one row of the collector leaderboard
type RankingEntry struct {
	Rank           int                `json:"rank"`
	WalletAddress  string             `json:"wallet_address"`
	Category       types.FlagCategory `json:"category"`
	FlagsOwned     int                `json:"flags_owned"`
	PairsCompleted int                `json:"pairs_completed"`
}
