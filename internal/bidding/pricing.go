package bidding

import (
	"sort"

	"github.com/ksred/auction-api/internal/types"
	"github.com/shopspring/decimal"
)

// Resolution is the outcome of resolving a lot's visible bid ledger: the
// displayed current price, the leading customer and the ranked winner list
// for multi-winner lots.
type Resolution struct {
	Price            decimal.Decimal
	WinnerCustomerID string
	Ranked           []types.RankedWinner
	HasBids          bool
}

// IncrementFor scans the ordered increment table for the first interval
// where from <= price < to and returns its increment. Returns zero when no
// interval matches.
func IncrementFor(table types.IncrementTable, price decimal.Decimal) decimal.Decimal {
	for _, step := range table {
		if price.GreaterThanOrEqual(step.From) && price.LessThan(step.To) {
			return step.Increment
		}
	}
	return decimal.Zero
}

// MinimumNextBid computes the lowest acceptable next bid given the current
// resolved state: the starting price when the ledger is empty, otherwise the
// current price plus the matched increment.
func MinimumNextBid(lot *types.Lot, current Resolution) decimal.Decimal {
	if !current.HasBids {
		return lot.StartingPrice
	}
	return current.Price.Add(IncrementFor(lot.BidIncrementalSettings, current.Price))
}

// ResolvePrice computes the current price and winner from the visible
// (non-hidden) bids of a lot. Pure: callers validate bids beforehand.
//
// Ordering is by amount descending with earliest placement breaking ties,
// so the first bid to reach an amount keeps the lead. Proxy (MAX) bidding
// follows second-price logic: the displayed price is the best competing
// amount plus one increment step, capped at the leader's ceiling. A DIRECT
// bid on top sets the price to its amount outright. With no competing
// customer the price stays at the starting price.
func ResolvePrice(lot *types.Lot, bids []types.Bid) Resolution {
	visible := make([]types.Bid, 0, len(bids))
	for _, b := range bids {
		if !b.IsHidden {
			visible = append(visible, b)
		}
	}

	if len(visible) == 0 {
		return Resolution{Price: lot.StartingPrice}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if !visible[i].Amount.Equal(visible[j].Amount) {
			return visible[i].Amount.GreaterThan(visible[j].Amount)
		}
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.Before(visible[j].CreatedAt)
		}
		return visible[i].ID < visible[j].ID
	})

	top := visible[0]

	// Best competing bid from a different customer than the leader
	var competitor *types.Bid
	for i := 1; i < len(visible); i++ {
		if visible[i].CustomerID != top.CustomerID {
			competitor = &visible[i]
			break
		}
	}

	var price decimal.Decimal
	switch {
	case top.Type == types.BidTypeDirect:
		price = top.Amount
	case competitor == nil:
		price = lot.StartingPrice
	case competitor.Amount.Equal(top.Amount):
		price = top.Amount
	default:
		step := IncrementFor(lot.BidIncrementalSettings, competitor.Amount)
		price = competitor.Amount.Add(step)
		if price.GreaterThan(top.Amount) {
			price = top.Amount
		}
	}

	return Resolution{
		Price:            price,
		WinnerCustomerID: top.CustomerID,
		Ranked:           rankWinners(visible, lot.WinnerCount),
		HasBids:          true,
	}
}

// Simulate computes what the resolution would become if newBid were
// appended to the ledger, without mutating anything
func Simulate(lot *types.Lot, bids []types.Bid, newBid types.Bid) Resolution {
	combined := make([]types.Bid, 0, len(bids)+1)
	combined = append(combined, bids...)
	combined = append(combined, newBid)
	return ResolvePrice(lot, combined)
}

// rankWinners extracts the top-N distinct customers by their best bid from
// an already-sorted visible ledger
func rankWinners(sorted []types.Bid, winnerCount int) []types.RankedWinner {
	if winnerCount < 1 {
		winnerCount = 1
	}

	ranked := make([]types.RankedWinner, 0, winnerCount)
	seen := make(map[string]bool, winnerCount)
	for _, b := range sorted {
		if seen[b.CustomerID] {
			continue
		}
		seen[b.CustomerID] = true
		ranked = append(ranked, types.RankedWinner{
			Rank:       len(ranked) + 1,
			CustomerID: b.CustomerID,
			Amount:     b.Amount,
		})
		if len(ranked) == winnerCount {
			break
		}
	}
	return ranked
}
