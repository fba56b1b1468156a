package bidding

import (
	"time"

	"github.com/ksred/auction-api/internal/types"
)

// Acting roles and bidding channels
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"

	ChannelOnline = "online"
	ChannelLive   = "live"
)

// Capabilities describes who is placing a bid and over which channel. The
// same validation pipeline serves every caller; capabilities only control
// which checks are skipped.
type Capabilities struct {
	ActingAs string
	Channel  string
}

func CustomerOnline() Capabilities {
	return Capabilities{ActingAs: RoleCustomer, Channel: ChannelOnline}
}

func AdminChannel(channel string) Capabilities {
	if channel != ChannelLive {
		channel = ChannelOnline
	}
	return Capabilities{ActingAs: RoleAdmin, Channel: channel}
}

// An admin running a live session may enter bids from the floor before the
// online start gate opens
func (c Capabilities) skipsNotStartedCheck() bool {
	return c.ActingAs == RoleAdmin && c.Channel == ChannelLive
}

func (c Capabilities) bypassesEligibility() bool {
	return c.ActingAs == RoleAdmin
}

// validateBid runs the full acceptance pipeline for an incoming bid against
// the lot's current resolved state. Returns nil when the bid is acceptable.
func validateBid(lot *types.Lot, store *types.Store, visible []types.Bid, req PlaceBidRequest, current Resolution, now time.Time) *RejectionError {
	if lot.Status == types.StatusDeleted || lot.IsDisabled {
		return reject(CodeLotUnavailable, "Lot is not available for bidding")
	}
	if lot.OwnerCustomerID != "" && lot.OwnerCustomerID == req.CustomerID {
		return reject(CodeSelfBid, "Consignors cannot bid on their own lots")
	}
	if store.Status == types.StatusDeleted {
		return reject(CodeLotUnavailable, "Auction is not available for bidding")
	}

	switch req.Type {
	case types.BidTypeMax, types.BidTypeDirect:
		if lot.Status == types.StatusArchived || store.Status == types.StatusArchived || lot.IsClosed {
			return reject(CodeLotUnavailable, "Lot is not open for bidding")
		}
		if !req.Capabilities.skipsNotStartedCheck() && !now.After(store.StartDatetime) {
			return reject(CodeAuctionNotStarted, "Auction has not started yet")
		}
		if now.After(store.EndDatetime) {
			return reject(CodeAuctionEnded, "Auction has already ended")
		}
		// The sweep may lag the deadline; the lot's own end time closes it
		// regardless
		if now.After(lot.EndDatetime) {
			return reject(CodeAuctionEnded, "Bidding on this lot has ended")
		}

		minimum := MinimumNextBid(lot, current)
		if req.Amount.LessThan(minimum) {
			return rejectTooLow(minimum)
		}

		if own := highestOwnBid(visible, req.CustomerID, req.Type); own != nil &&
			!req.Amount.GreaterThan(own.Amount) {
			return reject(CodeBidBelowOwnBid, "Bid must exceed your own previous bid")
		}

	case types.BidTypeAdvanced:
		if lot.Status == types.StatusActive || !now.Before(store.StartDatetime) {
			return reject(CodeAdvancedAfterStart, "Advanced bids are only accepted before the auction opens")
		}

	default:
		return reject(CodeInvalidBidType, "Unknown bid type")
	}

	return nil
}

// highestOwnBid returns the customer's highest visible bid of the given
// type on the lot, or nil
func highestOwnBid(visible []types.Bid, customerID, bidType string) *types.Bid {
	var best *types.Bid
	for i := range visible {
		b := &visible[i]
		if b.CustomerID != customerID || b.Type != bidType || b.IsHidden {
			continue
		}
		if best == nil || b.Amount.GreaterThan(best.Amount) {
			best = b
		}
	}
	return best
}
