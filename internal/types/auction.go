package types

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Entity statuses shared by stores and lots
const (
	StatusDraft    = "DRAFT"
	StatusActive   = "ACTIVE"
	StatusArchived = "ARCHIVED"
	StatusDeleted  = "DELETED"
)

// Bid types
const (
	BidTypeMax      = "MAX"      // proxy bid: system bids up to this ceiling
	BidTypeDirect   = "DIRECT"   // explicit bid fixing the price outright
	BidTypeAdvanced = "ADVANCED" // pre-open bid, only valid before the lot goes live
)

// Window is a day/hour/minute span used for the anti-snipe settings
type Window struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
	Mins  int `json:"mins"`
}

// Duration converts the window to a time.Duration
func (w Window) Duration() time.Duration {
	return time.Duration(w.Days)*24*time.Hour +
		time.Duration(w.Hours)*time.Hour +
		time.Duration(w.Mins)*time.Minute
}

// IsZero reports whether the window is empty
func (w Window) IsZero() bool {
	return w.Days == 0 && w.Hours == 0 && w.Mins == 0
}

// IncrementStep maps a price interval [From, To) to its minimum bid increment
type IncrementStep struct {
	From      decimal.Decimal `json:"from"`
	To        decimal.Decimal `json:"to"`
	Increment decimal.Decimal `json:"increment"`
}

// IncrementTable is the ordered list of increment intervals for a lot
type IncrementTable []IncrementStep

// TimeSettings holds a lot's anti-snipe configuration: the extension window
// near the deadline and the total extension budget measured from the
// original end time
type TimeSettings struct {
	Extension     Window `json:"extension"`
	AllowDuration Window `json:"allow_duration"`
}

// Store is the umbrella auction event containing many lots
type Store struct {
	gorm.Model      `json:"-"`
	StoreID         string    `gorm:"uniqueIndex" json:"store_id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"` // DRAFT, ACTIVE, ARCHIVED, DELETED
	DepositRequired bool      `json:"deposit_required"`
	StartDatetime   time.Time `json:"start_datetime"`
	EndDatetime     time.Time `json:"end_datetime"`
}

// Lot is a single auctionable item within a store
type Lot struct {
	gorm.Model             `json:"-"`
	LotID                  string          `gorm:"uniqueIndex" json:"lot_id"`
	StoreID                string          `gorm:"index" json:"store_id"`
	LotNumber              int             `json:"lot_number"`
	ProductRef             string          `json:"product_ref"`
	OwnerCustomerID        string          `json:"owner_customer_id"`
	Status                 string          `json:"status"` // DRAFT, ACTIVE, ARCHIVED, DELETED
	StartingPrice          decimal.Decimal `gorm:"type:decimal(20,4)" json:"starting_price"`
	ReservePrice           decimal.Decimal `gorm:"type:decimal(20,4)" json:"reserve_price"`
	CurrentBid             decimal.Decimal `gorm:"type:decimal(20,4)" json:"current_bid"`
	IsBidPlaced            bool            `json:"is_bid_placed"`
	LatestBidCustomerID    string          `json:"latest_bid_customer_id"`
	WinningBidCustomerID   string          `json:"winning_bid_customer_id"`
	StartDatetime          time.Time       `json:"start_datetime"`
	EndDatetime            time.Time       `json:"end_datetime"`
	OriginalEndDatetime    time.Time       `json:"original_end_datetime"`
	BidIncrementalSettings IncrementTable  `gorm:"serializer:json" json:"bid_incremental_settings"`
	AuctionTimeSettings    TimeSettings    `gorm:"serializer:json" json:"auction_time_settings"`
	IsDisabled             bool            `json:"is_disabled"`
	IsClosed               bool            `json:"is_closed"`
	IsPermissionRequired   bool            `json:"is_permission_required"`
	WinnerCount            int             `json:"winner_count"` // ranked bidders counted as winners, default 1
}

// Bid is one bid event in the append-only ledger. Rows are never mutated
// after creation except for the IsHidden flag.
type Bid struct {
	gorm.Model      `json:"-"`
	BidID           string          `gorm:"uniqueIndex" json:"bid_id"`
	LotID           string          `gorm:"index" json:"lot_id"`
	CustomerID      string          `json:"customer_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4)" json:"amount"`
	Type            string          `json:"type"` // MAX, DIRECT, ADVANCED
	IsHidden        bool            `json:"is_hidden"`
	IsPlacedByAdmin bool            `json:"is_placed_by_admin"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BidHistoryEntry is one snapshot in a lot's winner/price audit trail,
// appended every time the resolved price or winner changes
type BidHistoryEntry struct {
	gorm.Model           `json:"-"`
	LotID                string          `gorm:"index" json:"lot_id"`
	WinningBidCustomerID string          `json:"winning_bid_customer_id"`
	CurrentBid           decimal.Decimal `gorm:"type:decimal(20,4)" json:"current_bid"`
	CreatedAt            time.Time       `json:"created_at"`
}
