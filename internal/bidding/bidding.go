package bidding

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/auction-api/internal/events"
	"github.com/ksred/auction-api/internal/types"
	"github.com/ksred/auction-api/pkg/metrics"
	"github.com/ksred/auction-api/pkg/response"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EligibilityGate answers whether a customer is registered and approved to
// bid in a store. Implemented by the registration service.
type EligibilityGate interface {
	IsEligibleToBid(customerID, storeID string) (bool, error)
}

// Service owns the lot bidding lifecycle: it is the only writer of a lot's
// derived fields (current_bid, winner, is_bid_placed, end_datetime)
type Service struct {
	db        *Database
	gate      EligibilityGate
	publisher events.Publisher
	locks     *lotLocks
	now       func() time.Time
}

// NewService creates a new bidding service with the given database
// connection, eligibility gate and event publisher
func NewService(gormDB *gorm.DB, gate EligibilityGate, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:        NewDatabase(gormDB),
		gate:      gate,
		publisher: publisher,
		locks:     newLotLocks(),
		now:       time.Now,
	}
}

// PlaceBidRequest is one inbound place-bid call
type PlaceBidRequest struct {
	LotID        string
	CustomerID   string
	Amount       decimal.Decimal
	Type         string
	Capabilities Capabilities
}

// PlaceBid runs the full acceptance pipeline for a bid: eligibility gate,
// validation against the resolved current price, ledger append, price and
// winner recomputation, anti-snipe extension and history recording. The
// whole pipeline is serialized per lot.
func (s *Service) PlaceBid(req PlaceBidRequest) (*types.BidPlacedResponse, error) {
	logger := log.With().
		Str("lot_id", req.LotID).
		Str("customer_id", req.CustomerID).
		Str("bid_type", req.Type).
		Str("service", "bidding").
		Logger()

	lock := s.locks.get(req.LotID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()

	lot, err := s.db.GetLot(req.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, gorm.ErrRecordNotFound
	}

	store, err := s.db.GetStore(lot.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, gorm.ErrRecordNotFound
	}

	if !req.Capabilities.bypassesEligibility() && s.gate != nil {
		eligible, err := s.gate.IsEligibleToBid(req.CustomerID, lot.StoreID)
		if err != nil {
			return nil, err
		}
		if !eligible {
			metrics.BidsRejected.WithLabelValues(CodeRegistrationRequired).Inc()
			return nil, reject(CodeRegistrationRequired, "An approved registration is required to bid in this auction")
		}
	}

	visible, err := s.db.GetVisibleBids(req.LotID)
	if err != nil {
		return nil, err
	}

	current := ResolvePrice(lot, visible)
	// The cached price is never undercut by a thinner ledger (e.g. after
	// supersession hiding)
	if lot.IsBidPlaced && lot.CurrentBid.GreaterThan(current.Price) {
		current.Price = lot.CurrentBid
	}

	if rejection := validateBid(lot, store, visible, req, current, now); rejection != nil {
		metrics.BidsRejected.WithLabelValues(rejection.Code).Inc()
		logger.Info().Str("code", rejection.Code).Msg("bid rejected")
		return nil, rejection
	}

	// Supersession hiding, applied to the working copy first so the
	// resolution sees the post-hide ledger
	var hiddenIDs []uint
	switch req.Type {
	case types.BidTypeAdvanced:
		// At most one live advanced bid per customer per lot
		for i := range visible {
			if visible[i].CustomerID == req.CustomerID && visible[i].Type == types.BidTypeAdvanced {
				hiddenIDs = append(hiddenIDs, visible[i].ID)
				visible[i].IsHidden = true
			}
		}
	case types.BidTypeDirect:
		// A higher direct bid makes other customers' equal-or-lower direct
		// bids irrelevant
		for i := range visible {
			if visible[i].CustomerID != req.CustomerID &&
				visible[i].Type == types.BidTypeDirect &&
				!visible[i].Amount.GreaterThan(req.Amount) {
				hiddenIDs = append(hiddenIDs, visible[i].ID)
				visible[i].IsHidden = true
			}
		}
	}

	newBid := types.Bid{
		BidID:           uuid.New().String(),
		LotID:           req.LotID,
		CustomerID:      req.CustomerID,
		Amount:          req.Amount,
		Type:            req.Type,
		IsPlacedByAdmin: req.Capabilities.ActingAs == RoleAdmin,
		CreatedAt:       now,
	}

	resolution := Simulate(lot, visible, newBid)
	if lot.IsBidPlaced && resolution.Price.LessThan(lot.CurrentBid) {
		resolution.Price = lot.CurrentBid
	}

	previousPrice := current.Price
	commit := bidCommit{
		bid:          &newBid,
		hiddenBidIDs: hiddenIDs,
		storeID:      lot.StoreID,
	}

	if req.Type == types.BidTypeAdvanced {
		// Pre-sale has no established price to preserve: re-seed the history
		// from the advanced-only ledger
		commit.resetHistory = true
		commit.historyEntry = &types.BidHistoryEntry{
			LotID:                req.LotID,
			WinningBidCustomerID: resolution.WinnerCustomerID,
			CurrentBid:           resolution.Price,
			CreatedAt:            now,
		}
	} else {
		if newEnd, extended := MaybeExtend(lot, now); extended {
			lot.EndDatetime = newEnd
			metrics.Extensions.Inc()
			logger.Info().Time("end_datetime", newEnd).Msg("lot end time extended")
		}

		priceChanged := !lot.IsBidPlaced ||
			!resolution.Price.Equal(previousPrice) ||
			resolution.WinnerCustomerID != lot.WinningBidCustomerID

		lot.CurrentBid = resolution.Price
		lot.IsBidPlaced = true
		lot.LatestBidCustomerID = req.CustomerID
		lot.WinningBidCustomerID = resolution.WinnerCustomerID
		commit.lot = lot
		commit.storeEnd = &lot.EndDatetime

		if priceChanged {
			commit.historyEntry = &types.BidHistoryEntry{
				LotID:                req.LotID,
				WinningBidCustomerID: resolution.WinnerCustomerID,
				CurrentBid:           resolution.Price,
				CreatedAt:            now,
			}
		}
	}

	if err := s.db.CommitBid(commit); err != nil {
		logger.Error().Err(err).Msg("failed to commit bid")
		return nil, err
	}

	metrics.BidsPlaced.WithLabelValues(req.Type).Inc()
	logger.Info().
		Str("bid_id", newBid.BidID).
		Str("amount", req.Amount.String()).
		Str("resolved_price", resolution.Price.String()).
		Str("winner", resolution.WinnerCustomerID).
		Msg("bid accepted")

	s.publishAccepted(events.BidEvent{
		EventID:          uuid.New().String(),
		LotID:            req.LotID,
		BidID:            newBid.BidID,
		CustomerID:       req.CustomerID,
		Amount:           req.Amount,
		PreviousBid:      previousPrice,
		ResolvedPrice:    resolution.Price,
		WinnerCustomerID: resolution.WinnerCustomerID,
		EndDatetime:      lot.EndDatetime,
		Timestamp:        now,
	})

	return &types.BidPlacedResponse{
		BidID:            newBid.BidID,
		LotID:            req.LotID,
		ResolvedPrice:    resolution.Price,
		WinnerCustomerID: resolution.WinnerCustomerID,
		EndDatetime:      lot.EndDatetime,
	}, nil
}

// publishAccepted delivers the event fire-and-forget: the bid is already
// committed, a publish failure only costs downstream consumers
func (s *Service) publishAccepted(event events.BidEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishBidAccepted(ctx, event); err != nil {
			log.Warn().Err(err).
				Str("lot_id", event.LotID).
				Str("bid_id", event.BidID).
				Msg("failed to publish bid event")
		}
	}()
}

// GetCurrentPrice resolves a lot's current price and winner from the ledger
func (s *Service) GetCurrentPrice(lotID string) (*types.PriceResponse, error) {
	lot, err := s.db.GetLot(lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil || lot.Status == types.StatusDeleted {
		return nil, gorm.ErrRecordNotFound
	}

	visible, err := s.db.GetVisibleBids(lotID)
	if err != nil {
		return nil, err
	}

	resolution := ResolvePrice(lot, visible)
	if lot.IsBidPlaced && lot.CurrentBid.GreaterThan(resolution.Price) {
		resolution.Price = lot.CurrentBid
	}

	return &types.PriceResponse{
		LotID:            lotID,
		Price:            resolution.Price,
		WinnerCustomerID: resolution.WinnerCustomerID,
		RankedWinners:    resolution.Ranked,
	}, nil
}

// GetBidHistory returns the lot's winner/price audit trail in order
func (s *Service) GetBidHistory(lotID string) ([]types.HistoryEntryResponse, error) {
	lot, err := s.db.GetLot(lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil || lot.Status == types.StatusDeleted {
		return nil, gorm.ErrRecordNotFound
	}

	entries, err := s.db.GetHistory(lotID)
	if err != nil {
		return nil, err
	}

	history := make([]types.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, types.HistoryEntryResponse{
			WinnerCustomerID: entry.WinningBidCustomerID,
			Price:            entry.CurrentBid,
			At:               entry.CreatedAt,
		})
	}
	return history, nil
}

// ResetLot rolls a lot back to its pre-live-bidding state: all live
// (MAX/DIRECT) bids are hidden, the history is re-seeded from the surviving
// advanced ledger and the derived fields are recomputed from it
func (s *Service) ResetLot(lotID string) error {
	logger := log.With().Str("lot_id", lotID).Str("service", "bidding").Logger()

	lock := s.locks.get(lotID)
	lock.Lock()
	defer lock.Unlock()

	lot, err := s.db.GetLot(lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return gorm.ErrRecordNotFound
	}

	visible, err := s.db.GetVisibleBids(lotID)
	if err != nil {
		return err
	}

	remaining := make([]types.Bid, 0, len(visible))
	for _, b := range visible {
		if b.Type == types.BidTypeAdvanced {
			remaining = append(remaining, b)
		}
	}

	resolution := ResolvePrice(lot, remaining)

	lot.CurrentBid = resolution.Price
	lot.IsBidPlaced = resolution.HasBids
	lot.WinningBidCustomerID = resolution.WinnerCustomerID
	lot.LatestBidCustomerID = resolution.WinnerCustomerID

	var entry *types.BidHistoryEntry
	if resolution.HasBids {
		entry = &types.BidHistoryEntry{
			LotID:                lotID,
			WinningBidCustomerID: resolution.WinnerCustomerID,
			CurrentBid:           resolution.Price,
			CreatedAt:            s.now(),
		}
	}

	if err := s.db.CommitReset(lot, entry); err != nil {
		logger.Error().Err(err).Msg("failed to reset lot")
		return err
	}

	logger.Info().
		Str("winner", resolution.WinnerCustomerID).
		Str("current_bid", resolution.Price.String()).
		Msg("lot reset to pre-live state")
	return nil
}

// GinHandlers contains HTTP handlers for bidding endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for bidding endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

type placeBidBody struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Type   string          `json:"type" binding:"required"`
}

type adminPlaceBidBody struct {
	CustomerID string          `json:"customer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Type       string          `json:"type" binding:"required"`
	Channel    string          `json:"channel"`
}

// PlaceBidHandler handles POST requests from customers to bid on a lot.
// Requires a valid JWT; the bidder identity comes from the token, never the
// request body.
func (h *GinHandlers) PlaceBidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetString("customerID")
		if customerID == "" {
			response.Unauthorized(c, "Missing customer identity")
			return
		}

		var body placeBidBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.PlaceBid(PlaceBidRequest{
			LotID:        c.Param("lot_id"),
			CustomerID:   customerID,
			Amount:       body.Amount,
			Type:         body.Type,
			Capabilities: CustomerOnline(),
		})
		h.respond(c, result, err)
	}
}

// AdminPlaceBidHandler handles POST requests from admins entering bids on
// behalf of a customer, e.g. from the live auction floor
func (h *GinHandlers) AdminPlaceBidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body adminPlaceBidBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.PlaceBid(PlaceBidRequest{
			LotID:        c.Param("lot_id"),
			CustomerID:   body.CustomerID,
			Amount:       body.Amount,
			Type:         body.Type,
			Capabilities: AdminChannel(body.Channel),
		})
		h.respond(c, result, err)
	}
}

// GetPriceHandler handles GET requests for a lot's resolved price and winner
func (h *GinHandlers) GetPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		price, err := h.service.GetCurrentPrice(c.Param("lot_id"))
		if err != nil {
			h.respond(c, nil, err)
			return
		}
		response.Success(c, price)
	}
}

// GetHistoryHandler handles GET requests for a lot's winner/price audit trail
func (h *GinHandlers) GetHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := h.service.GetBidHistory(c.Param("lot_id"))
		if err != nil {
			h.respond(c, nil, err)
			return
		}
		response.Success(c, history)
	}
}

// ResetLotHandler handles POST requests to roll a lot back to its
// pre-live-bidding state. Admin only.
func (h *GinHandlers) ResetLotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.service.ResetLot(c.Param("lot_id")); err != nil {
			h.respond(c, nil, err)
			return
		}
		response.Success(c, gin.H{"lot_id": c.Param("lot_id"), "reset": true})
	}
}

func (h *GinHandlers) respond(c *gin.Context, data interface{}, err error) {
	if err == nil {
		response.Success(c, data)
		return
	}

	if rejection, ok := AsRejection(err); ok {
		var details interface{}
		if rejection.MinimumBid != nil {
			details = gin.H{"minimum_acceptable_bid": rejection.MinimumBid}
		}
		response.Rejection(c, rejection.Code, rejection.Message, details)
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "Lot not found")
		return
	}

	response.InternalError(c, "An unexpected error occurred")
}
