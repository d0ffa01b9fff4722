package market

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/flagmarket-client/internal/models"
	"github.com/flagmarket-client/internal/types"
)

// Pricing must be exactly linear: total(p, n) == n * p with no drift.
func TestComputeTotalLinearityProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals repeated addition of the unit price", prop.ForAll(
		func(units int64, n int) bool {
			// prices in the observed range: up to ~92 billion base units
			// at 6 decimal places
			unit := decimal.New(units, -6)

			total := ComputeTotal(unit, n)

			sum := decimal.Zero
			for i := 0; i < n; i++ {
				sum = sum.Add(unit)
			}
			return total.Equal(sum)
		},
		gen.Int64Range(0, 1_000_000_000),
		gen.IntRange(1, 10),
	))

	properties.Property("discount leaves the base total untouched", prop.ForAll(
		func(baseUnits, discUnits int64, n int) bool {
			base := decimal.New(baseUnits, -6)
			disc := decimal.New(discUnits, -6)

			q := NewQuote(base, &disc, n)
			return q.Total.Equal(ComputeTotal(base, n))
		},
		gen.Int64Range(1, 1_000_000_000),
		gen.Int64Range(0, 1_000_000_000),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

// The flag state machine must be total: every combination of the
// server-reported facts maps to exactly one state, and only the two open
// states ever allow actions.
func TestFlagStateTotalityProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	genFirst := gen.OneConstOf(types.NFTAvailable, types.NFTClaimed)
	// 0 = absent, 1 = available, 2 = claimed
	genSecond := gen.IntRange(0, 2)

	properties.Property("every fact combination maps to exactly one state", prop.ForAll(
		func(complete bool, first types.NFTStatus, second int) bool {
			flag := &models.Flag{
				IsPairComplete: complete,
				FirstNFTStatus: first,
			}
			switch second {
			case 1:
				s := types.NFTAvailable
				flag.SecondNFTStatus = &s
			case 2:
				s := types.NFTClaimed
				flag.SecondNFTStatus = &s
			}

			state := FlagStateOf(flag)
			switch state {
			case types.FlagComplete, types.FlagFirstOpen, types.FlagSecondOpen, types.FlagBlocked:
			default:
				return false
			}

			actions := FlagActions(flag, "0xviewer")
			switch state {
			case types.FlagComplete, types.FlagBlocked:
				return len(actions) == 0
			case types.FlagFirstOpen:
				return len(actions) >= 1 && actions[len(actions)-1] == types.ActionClaimFirst
			case types.FlagSecondOpen:
				return len(actions) == 1 && actions[0] == types.ActionPurchaseSecond
			}
			return false
		},
		gen.Bool(),
		genFirst,
		genSecond,
	))

	properties.TestingRun(t)
}

// A completed pair is revealed to everyone; adding interest or ownership
// entries never hides a flag that was already revealed.
func TestRevealMonotonicityProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("pair completion reveals regardless of viewer", prop.ForAll(
		func(viewer string) bool {
			flag := &models.Flag{IsPairComplete: true}
			return IsRevealed(flag, viewer)
		},
		gen.AlphaString(),
	))

	properties.Property("registered interest reveals under any address casing", prop.ForAll(
		func(upper bool) bool {
			addr := "0xAbCd000000000000000000000000000000000001"
			stored := types.NormalizeAddress(addr)
			flag := &models.Flag{
				FirstNFTStatus: types.NFTAvailable,
				Interests:      []models.Interest{{UserWalletAddress: stored}},
			}
			viewer := addr
			if !upper {
				viewer = stored
			}
			return IsRevealed(flag, viewer)
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}
