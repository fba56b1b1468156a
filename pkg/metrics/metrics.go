package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BidsPlaced counts accepted bids by type
	BidsPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_placed_total",
			Help: "Counter for accepted bids.",
		},
		[]string{"type"},
	)
	// BidsRejected counts rejected bids by rejection code
	BidsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_rejected_total",
			Help: "Counter for rejected bids.",
		},
		[]string{"code"},
	)
	// Extensions counts anti-snipe end time extensions applied to lots
	Extensions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_lot_extensions_total",
			Help: "Counter for anti-snipe lot end time extensions.",
		})
	// SweepTransitions counts status flips applied by the sweeper
	SweepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_sweep_transitions_total",
			Help: "Counter for status transitions applied by the sweeper.",
		},
		[]string{"entity", "transition"},
	)
)
