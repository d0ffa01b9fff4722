package market

import (
	"github.com/flagmarket-client/internal/models"
)

// IsRevealed decides whether a flag's true contents (name, location, image)
// may be shown to the viewer. Rules in order, first match wins:
//
//  1. a completed pair is public
//  2. a viewer with registered interest sees the flag
//  3. a viewer owning either NFT sees the flag
//  4. everyone else gets the mystery view
//
// A disconnected viewer (empty address) can never satisfy rules 2 and 3:
// interest is always recorded against a connected wallet, so interest
// registered before connecting is not retroactively matchable. That is
// intended behavior, not a defect.
func IsRevealed(flag *models.Flag, viewerAddress string) bool {
	if flag == nil {
		return false
	}
	if flag.IsPairComplete {
		return true
	}
	if viewerAddress == "" {
		return false
	}
	if flag.HasInterest(viewerAddress) {
		return true
	}
	if flag.HasOwnership(viewerAddress) {
		return true
	}
	return false
}

// MaskFlag produces the mystery-card view of an unrevealed flag: category,
// NFT multiplicity and aggregate interest count only.
func MaskFlag(flag *models.Flag) models.MysteryFlag {
	return models.MysteryFlag{
		ID:            flag.ID,
		Category:      flag.Category,
		NFTsRequired:  flag.NFTsRequired,
		InterestCount: len(flag.Interests),
	}
}
