package bidding

import (
	"time"

	"github.com/ksred/auction-api/internal/types"
)

// MaybeExtend applies the anti-snipe rule to a lot: when a bid lands within
// the extension window before the deadline, the end time is pushed back by
// one window, capped at the original end time plus the total allowed
// extension budget. Pure given (lot, now); end times only ever move forward.
func MaybeExtend(lot *types.Lot, now time.Time) (time.Time, bool) {
	window := lot.AuctionTimeSettings.Extension.Duration()
	if window <= 0 {
		return lot.EndDatetime, false
	}

	deadline := lot.EndDatetime.Add(-window)
	if now.Before(deadline) || !now.Before(lot.EndDatetime) {
		return lot.EndDatetime, false
	}

	candidate := lot.EndDatetime.Add(window)

	// The budget is measured from the original end time, not reset per bid
	if !lot.AuctionTimeSettings.AllowDuration.IsZero() {
		limit := lot.OriginalEndDatetime.Add(lot.AuctionTimeSettings.AllowDuration.Duration())
		if candidate.After(limit) {
			candidate = limit
		}
	}

	if !candidate.After(lot.EndDatetime) {
		return lot.EndDatetime, false
	}
	return candidate, true
}
