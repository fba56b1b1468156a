package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BidEvent is published after a bid is accepted. Consumers are the live
// websocket feed and, when configured, the NATS archival stream.
type BidEvent struct {
	EventID          string          `json:"event_id"`
	LotID            string          `json:"lot_id"`
	BidID            string          `json:"bid_id"`
	CustomerID       string          `json:"customer_id"`
	Amount           decimal.Decimal `json:"amount"`
	PreviousBid      decimal.Decimal `json:"previous_bid"`
	ResolvedPrice    decimal.Decimal `json:"resolved_price"`
	WinnerCustomerID string          `json:"winner_customer_id"`
	EndDatetime      time.Time       `json:"end_datetime"`
	Timestamp        time.Time       `json:"timestamp"`
}

// Publisher delivers accepted-bid events to a downstream consumer.
// Publishing is best effort: the bid pipeline never fails on publish errors.
type Publisher interface {
	PublishBidAccepted(ctx context.Context, event BidEvent) error
}

// Fanout publishes to every wrapped publisher, returning the first error
// encountered after attempting all of them
type Fanout []Publisher

func (f Fanout) PublishBidAccepted(ctx context.Context, event BidEvent) error {
	var firstErr error
	for _, p := range f {
		if err := p.PublishBidAccepted(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Nop discards all events
type Nop struct{}

func (Nop) PublishBidAccepted(context.Context, BidEvent) error { return nil }
