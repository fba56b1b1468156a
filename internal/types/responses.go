package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RankedWinner is one entry in a lot's ranked winner list, used for
// multi-winner lots (winner_count > 1)
type RankedWinner struct {
	Rank       int             `json:"rank"`
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// PriceResponse represents the resolved state of a lot's bidding
type PriceResponse struct {
	LotID            string          `json:"lot_id"`
	Price            decimal.Decimal `json:"price"`
	WinnerCustomerID string          `json:"winner_customer_id,omitempty"`
	RankedWinners    []RankedWinner  `json:"ranked_winners,omitempty"`
}

// BidPlacedResponse is returned after a bid is accepted
type BidPlacedResponse struct {
	BidID            string          `json:"bid_id"`
	LotID            string          `json:"lot_id"`
	ResolvedPrice    decimal.Decimal `json:"resolved_price"`
	WinnerCustomerID string          `json:"winner_customer_id"`
	EndDatetime      time.Time       `json:"end_datetime"`
}

// HistoryEntryResponse is one entry of a lot's winner/price audit trail
type HistoryEntryResponse struct {
	WinnerCustomerID string          `json:"winner_customer_id"`
	Price            decimal.Decimal `json:"price"`
	At               time.Time       `json:"at"`
}

// SweepResponse reports the transitions applied by one status sweep
type SweepResponse struct {
	LotsActivated   int `json:"lots_activated"`
	LotsArchived    int `json:"lots_archived"`
	StoresActivated int `json:"stores_activated"`
	StoresArchived  int `json:"stores_archived"`
}
