package bidding

import (
	"testing"
	"time"

	"github.com/ksred/auction-api/internal/types"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func standardIncrements() types.IncrementTable {
	return types.IncrementTable{
		{From: decimal.NewFromInt(0), To: decimal.NewFromInt(500), Increment: decimal.NewFromInt(10)},
		{From: decimal.NewFromInt(500), To: decimal.NewFromInt(1000), Increment: decimal.NewFromInt(50)},
	}
}

func testLot() *types.Lot {
	return &types.Lot{
		LotID:                  "lot-1",
		StartingPrice:          decimal.NewFromInt(100),
		BidIncrementalSettings: standardIncrements(),
		WinnerCount:            1,
	}
}

func bidAt(id uint, customer string, amount int64, bidType string, offset time.Duration) types.Bid {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b := types.Bid{
		CustomerID: customer,
		Amount:     decimal.NewFromInt(amount),
		Type:       bidType,
		CreatedAt:  base.Add(offset),
	}
	b.ID = id
	return b
}

func TestIncrementFor(t *testing.T) {
	table := standardIncrements()

	check.Equal(t, "10", IncrementFor(table, decimal.NewFromInt(100)).String())
	check.Equal(t, "10", IncrementFor(table, decimal.NewFromInt(0)).String())
	// Interval bounds are [from, to)
	check.Equal(t, "50", IncrementFor(table, decimal.NewFromInt(500)).String())
	check.Equal(t, "0", IncrementFor(table, decimal.NewFromInt(1500)).String())
	check.Equal(t, "0", IncrementFor(nil, decimal.NewFromInt(100)).String())
}

func TestResolvePrice_NoBids(t *testing.T) {
	res := ResolvePrice(testLot(), nil)

	check.Equal(t, "100", res.Price.String())
	check.Equal(t, "", res.WinnerCustomerID)
	check.False(t, res.HasBids)
}

func TestResolvePrice_SingleBidderNoCompetition(t *testing.T) {
	bids := []types.Bid{
		bidAt(1, "cust-a", 200, types.BidTypeMax, 0),
	}

	res := ResolvePrice(testLot(), bids)

	// No competing customer: price stays at the starting price
	check.Equal(t, "100", res.Price.String())
	check.Equal(t, "cust-a", res.WinnerCustomerID)
}

func TestResolvePrice_SecondPriceProxy(t *testing.T) {
	bids := []types.Bid{
		bidAt(1, "cust-a", 100, types.BidTypeMax, 0),
		bidAt(2, "cust-b", 150, types.BidTypeMax, time.Second),
	}

	res := ResolvePrice(testLot(), bids)

	// Runner-up's 100 plus one increment step, winner is the higher ceiling
	check.Equal(t, "110", res.Price.String())
	check.Equal(t, "cust-b", res.WinnerCustomerID)
}

func TestResolvePrice_ProxyCappedAtWinnerCeiling(t *testing.T) {
	bids := []types.Bid{
		bidAt(1, "cust-a", 100, types.BidTypeMax, 0),
		bidAt(2, "cust-b", 105, types.BidTypeMax, time.Second),
	}

	res := ResolvePrice(testLot(), bids)

	// 100 + 10 would exceed the winning ceiling of 105
	check.Equal(t, "105", res.Price.String())
	check.Equal(t, "cust-b", res.WinnerCustomerID)
}

func TestResolvePrice_TieGoesToEarliestBid(t *testing.T) {
	bids := []types.Bid{
		bidAt(1, "cust-a", 200, types.BidTypeMax, 0),
		bidAt(2, "cust-b", 200, types.BidTypeMax, time.Second),
	}

	res := ResolvePrice(testLot(), bids)

	check.Equal(t, "cust-a", res.WinnerCustomerID)
	check.Equal(t, "200", res.Price.String())
}

func TestResolvePrice_DirectSetsPriceOutright(t *testing.T) {
	bids := []types.Bid{
		bidAt(1, "cust-a", 150, types.BidTypeMax, 0),
		bidAt(2, "cust-b", 300, types.BidTypeDirect, time.Second),
	}

	res := ResolvePrice(testLot(), bids)

	check.Equal(t, "300", res.Price.String())
	check.Equal(t, "cust-b", res.WinnerCustomerID)
}

func TestResolvePrice_HiddenBidsIgnored(t *testing.T) {
	hidden := bidAt(2, "cust-b", 500, types.BidTypeDirect, time.Second)
	hidden.IsHidden = true
	bids := []types.Bid{
		bidAt(1, "cust-a", 200, types.BidTypeMax, 0),
		hidden,
	}

	res := ResolvePrice(testLot(), bids)

	check.Equal(t, "cust-a", res.WinnerCustomerID)
	check.Equal(t, "100", res.Price.String())
}

func TestResolvePrice_OwnBidsAreNotCompetition(t *testing.T) {
	bids := []types.Bid{
		bidAt(1, "cust-a", 150, types.BidTypeMax, 0),
		bidAt(2, "cust-a", 250, types.BidTypeMax, time.Second),
	}

	res := ResolvePrice(testLot(), bids)

	// The same customer raising their own ceiling creates no competition
	check.Equal(t, "100", res.Price.String())
	check.Equal(t, "cust-a", res.WinnerCustomerID)
}

func TestResolvePrice_RankedWinners(t *testing.T) {
	lot := testLot()
	lot.WinnerCount = 2
	bids := []types.Bid{
		bidAt(1, "cust-a", 150, types.BidTypeMax, 0),
		bidAt(2, "cust-b", 300, types.BidTypeMax, time.Second),
		bidAt(3, "cust-c", 200, types.BidTypeMax, 2*time.Second),
		bidAt(4, "cust-b", 350, types.BidTypeMax, 3*time.Second),
	}

	res := ResolvePrice(lot, bids)

	check.Equal(t, 2, len(res.Ranked))
	check.Equal(t, "cust-b", res.Ranked[0].CustomerID)
	check.Equal(t, 1, res.Ranked[0].Rank)
	check.Equal(t, "cust-c", res.Ranked[1].CustomerID)
	check.Equal(t, 2, res.Ranked[1].Rank)
}

func TestResolvePrice_MonotonicUnderRisingMaxBids(t *testing.T) {
	lot := testLot()
	var bids []types.Bid
	last := decimal.Zero

	customers := []string{"cust-a", "cust-b", "cust-c", "cust-d", "cust-e"}
	for i, customer := range customers {
		bids = append(bids, bidAt(uint(i+1), customer, int64(150+50*i), types.BidTypeMax, time.Duration(i)*time.Second))
		res := ResolvePrice(lot, bids)
		check.True(t, res.Price.GreaterThanOrEqual(last))
		last = res.Price
	}
}

func TestSimulateMatchesAppendThenResolve(t *testing.T) {
	lot := testLot()
	existing := []types.Bid{
		bidAt(1, "cust-a", 200, types.BidTypeMax, 0),
	}
	newBid := bidAt(2, "cust-b", 250, types.BidTypeMax, time.Second)

	simulated := Simulate(lot, existing, newBid)
	resolved := ResolvePrice(lot, append(existing, newBid))

	check.Equal(t, resolved.Price.String(), simulated.Price.String())
	check.Equal(t, resolved.WinnerCustomerID, simulated.WinnerCustomerID)
}

func TestMinimumNextBid(t *testing.T) {
	lot := testLot()

	// Empty ledger: the starting price is the floor
	check.Equal(t, "100", MinimumNextBid(lot, Resolution{Price: lot.StartingPrice}).String())

	// Established price: current plus the matched increment
	current := Resolution{Price: decimal.NewFromInt(210), HasBids: true}
	check.Equal(t, "220", MinimumNextBid(lot, current).String())

	current = Resolution{Price: decimal.NewFromInt(600), HasBids: true}
	check.Equal(t, "650", MinimumNextBid(lot, current).String())
}

// The worked scenario: starting price 100, increments 10 then 50.
// A MAX 200 leads at 100, B MAX 250 takes it at 210, C DIRECT 300 fixes 300.
func TestResolvePrice_WorkedScenario(t *testing.T) {
	lot := testLot()

	bids := []types.Bid{bidAt(1, "cust-a", 200, types.BidTypeMax, 0)}
	res := ResolvePrice(lot, bids)
	check.Equal(t, "100", res.Price.String())
	check.Equal(t, "cust-a", res.WinnerCustomerID)

	bids = append(bids, bidAt(2, "cust-b", 250, types.BidTypeMax, time.Minute))
	res = ResolvePrice(lot, bids)
	check.Equal(t, "210", res.Price.String())
	check.Equal(t, "cust-b", res.WinnerCustomerID)

	bids = append(bids, bidAt(3, "cust-c", 300, types.BidTypeDirect, 2*time.Minute))
	res = ResolvePrice(lot, bids)
	check.Equal(t, "300", res.Price.String())
	check.Equal(t, "cust-c", res.WinnerCustomerID)
}
