package bidding

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Rejection codes surfaced to clients. The code, not the HTTP status,
// identifies the rejection reason.
const (
	CodeBidTooLow            = "BID_TOO_LOW"
	CodeBidBelowOwnBid       = "BID_BELOW_OWN_BID"
	CodeAuctionNotStarted    = "AUCTION_NOT_STARTED"
	CodeAuctionEnded         = "AUCTION_ENDED"
	CodeAdvancedAfterStart   = "ADVANCED_BID_AFTER_START"
	CodeSelfBid              = "SELF_BID"
	CodeLotUnavailable       = "LOT_UNAVAILABLE"
	CodeRegistrationRequired = "REGISTRATION_REQUIRED"
	CodeInvalidBidType       = "INVALID_BID_TYPE"
)

// RejectionError is a structured bid rejection. MinimumBid is set on
// BID_TOO_LOW so the client can re-offer without another round trip.
type RejectionError struct {
	Code       string
	Message    string
	MinimumBid *decimal.Decimal
}

func (e *RejectionError) Error() string {
	return e.Message
}

func reject(code, message string) *RejectionError {
	return &RejectionError{Code: code, Message: message}
}

func rejectTooLow(minimum decimal.Decimal) *RejectionError {
	return &RejectionError{
		Code:       CodeBidTooLow,
		Message:    "Bid amount is below the minimum acceptable bid",
		MinimumBid: &minimum,
	}
}

// AsRejection unwraps err into a RejectionError if it is one
func AsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
