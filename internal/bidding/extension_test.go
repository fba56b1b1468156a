package bidding

import (
	"testing"
	"time"

	"github.com/ksred/auction-api/internal/types"
	"github.com/peterldowns/testy/check"
)

func extensionLot(end time.Time) *types.Lot {
	return &types.Lot{
		LotID:               "lot-1",
		EndDatetime:         end,
		OriginalEndDatetime: end,
		AuctionTimeSettings: types.TimeSettings{
			Extension:     types.Window{Mins: 5},
			AllowDuration: types.Window{Mins: 30},
		},
	}
}

func TestMaybeExtend_OutsideWindowUnchanged(t *testing.T) {
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lot := extensionLot(end)

	newEnd, extended := MaybeExtend(lot, end.Add(-10*time.Minute))

	check.False(t, extended)
	check.True(t, newEnd.Equal(end))
}

func TestMaybeExtend_AfterEndUnchanged(t *testing.T) {
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lot := extensionLot(end)

	newEnd, extended := MaybeExtend(lot, end.Add(time.Second))

	check.False(t, extended)
	check.True(t, newEnd.Equal(end))
}

func TestMaybeExtend_WithinWindowExtends(t *testing.T) {
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lot := extensionLot(end)

	newEnd, extended := MaybeExtend(lot, end.Add(-3*time.Minute))

	check.True(t, extended)
	check.True(t, newEnd.Equal(end.Add(5*time.Minute)))
}

func TestMaybeExtend_Idempotent(t *testing.T) {
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lot := extensionLot(end)
	now := end.Add(-3 * time.Minute)

	first, extended := MaybeExtend(lot, now)
	check.True(t, extended)

	lot.EndDatetime = first
	second, extended := MaybeExtend(lot, now)

	// Same now against the already-extended end: no further movement
	check.False(t, extended)
	check.True(t, second.Equal(first))
}

func TestMaybeExtend_CappedAtAllowDuration(t *testing.T) {
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lot := extensionLot(end)
	limit := end.Add(30 * time.Minute)

	// Keep bidding just before every successive deadline
	for i := 0; i < 20; i++ {
		now := lot.EndDatetime.Add(-time.Minute)
		newEnd, extended := MaybeExtend(lot, now)
		check.True(t, !newEnd.After(limit))
		if !extended {
			break
		}
		lot.EndDatetime = newEnd
	}

	check.True(t, lot.EndDatetime.Equal(limit))

	// At the cap a late bid cannot move the end any further
	newEnd, extended := MaybeExtend(lot, lot.EndDatetime.Add(-time.Minute))
	check.False(t, extended)
	check.True(t, newEnd.Equal(limit))
}

func TestMaybeExtend_NoWindowConfigured(t *testing.T) {
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lot := extensionLot(end)
	lot.AuctionTimeSettings.Extension = types.Window{}

	newEnd, extended := MaybeExtend(lot, end.Add(-time.Minute))

	check.False(t, extended)
	check.True(t, newEnd.Equal(end))
}

func TestWindowDuration(t *testing.T) {
	w := types.Window{Days: 1, Hours: 2, Mins: 30}
	check.Equal(t, 26*time.Hour+30*time.Minute, w.Duration())
	check.True(t, types.Window{}.IsZero())
	check.False(t, w.IsZero())
}
