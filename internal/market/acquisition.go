package market

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/types"
)

// FlagStateOf maps a flag's server-reported acquisition facts to exactly one
// state. Conditions are evaluated top to bottom, first match wins; the
// function is total and never panics. FlagBlocked is the inert fallback for
// inconsistent server data and only ever renders, never acts.
func FlagStateOf(flag *models.Flag) types.FlagState {
	switch {
	case flag == nil:
		return types.FlagBlocked
	case flag.IsPairComplete:
		return types.FlagComplete
	case flag.FirstNFTStatus == types.NFTAvailable:
		return types.FlagFirstOpen
	case flag.FirstNFTStatus == types.NFTClaimed &&
		flag.SecondNFTStatus != nil && *flag.SecondNFTStatus == types.NFTAvailable:
		return types.FlagSecondOpen
	default:
		return types.FlagBlocked
	}
}

// FlagActions returns the acquisition actions valid for the viewer given the
// flag's state. Claiming first never requires prior interest: interest is
// advisory and social, a separate concern from the reveal gate.
func FlagActions(flag *models.Flag, viewerAddress string) []types.FlagAction {
	switch FlagStateOf(flag) {
	case types.FlagFirstOpen:
		actions := []types.FlagAction{}
		if !flag.HasInterest(viewerAddress) {
			actions = append(actions, types.ActionShowInterest)
		}
		actions = append(actions, types.ActionClaimFirst)
		return actions
	case types.FlagSecondOpen:
		return []types.FlagAction{types.ActionPurchaseSecond}
	default:
		return nil
	}
}

// AuctionStateOf maps an auction, a viewer and the current time to exactly
// one viewer-relative state. A time-ended auction stays active server-side
// until a separate close operation runs; the client renders it as awaiting
// close, never as terminal.
func AuctionStateOf(auction *models.Auction, viewerAddress string, now time.Time) types.AuctionState {
	switch {
	case auction == nil || auction.Status != types.AuctionActive:
		return types.AuctionTerminal
	case !now.Before(auction.EndsAt):
		return types.AuctionTimeEnded
	case auction.IsSeller(viewerAddress):
		return types.AuctionOwn
	default:
		return types.AuctionOpen
	}
}

// AuctionActions returns the actions valid for the viewer. Buyout is offered
// only while the auction is open for this viewer and a buyout price exists;
// sellers never see bid or buyout controls on their own auction.
func AuctionActions(auction *models.Auction, viewerAddress string, now time.Time) []types.AuctionAction {
	if AuctionStateOf(auction, viewerAddress, now) != types.AuctionOpen {
		return nil
	}
	actions := []types.AuctionAction{types.ActionPlaceBid}
	if auction.BuyoutPrice != nil {
		actions = append(actions, types.ActionBuyout)
	}
	return actions
}

// MinimumBid computes the lowest acceptable bid:
// max(min_price, current_highest_bid + increment). With no bids yet the
// floor is max(min_price, starting_price).
func MinimumBid(auction *models.Auction, increment decimal.Decimal) decimal.Decimal {
	floor := auction.MinPrice
	if auction.CurrentHighestBid != nil {
		next := auction.CurrentHighestBid.Add(increment)
		if next.GreaterThan(floor) {
			floor = next
		}
	} else if auction.StartingPrice.GreaterThan(floor) {
		floor = auction.StartingPrice
	}
	return floor
}

// ValidateBid rejects a bid before any network call when the auction is not
// open for the viewer or the amount is below the computed minimum. The
// server remains the authority and may still reject further; that rejection
// is surfaced verbatim by the caller, never masked.
func ValidateBid(auction *models.Auction, viewerAddress string, amount, increment decimal.Decimal, now time.Time) error {
	switch AuctionStateOf(auction, viewerAddress, now) {
	case types.AuctionTerminal:
		return errors.NewValidationError("auction is no longer active")
	case types.AuctionTimeEnded:
		return errors.NewValidationError("auction has ended and is awaiting close")
	case types.AuctionOwn:
		return errors.NewValidationError("you cannot bid on your own auction")
	}

	minBid := MinimumBid(auction, increment)
	if amount.LessThan(minBid) {
		return errors.NewValidationError(
			"bid of " + amount.String() + " is below the minimum of " + minBid.String())
	}
	return nil
}

// ValidateBuyout rejects a buyout before any network call when no buyout
// price is offered or the auction is not open for the viewer.
func ValidateBuyout(auction *models.Auction, viewerAddress string, now time.Time) error {
	switch AuctionStateOf(auction, viewerAddress, now) {
	case types.AuctionTerminal:
		return errors.NewValidationError("auction is no longer active")
	case types.AuctionTimeEnded:
		return errors.NewValidationError("auction has ended and is awaiting close")
	case types.AuctionOwn:
		return errors.NewValidationError("you cannot buy out your own auction")
	}
	if auction.BuyoutPrice == nil {
		return errors.NewValidationError("this auction has no buyout price")
	}
	return nil
}
