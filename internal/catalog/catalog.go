package catalog

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/auction-api/internal/types"
	"github.com/ksred/auction-api/pkg/response"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errUnknownStatus = errors.New("unknown status")

// Service manages store and lot records. Derived lot fields (current_bid,
// winner, is_bid_placed, end_datetime) are owned by the bidding service and
// are never writable here.
type Service struct {
	db *Database
}

// NewService creates a new catalog service with the given database
// connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// CreateStoreRequest describes a new auction event
type CreateStoreRequest struct {
	Name            string    `json:"name" binding:"required"`
	StartDatetime   time.Time `json:"start_datetime" binding:"required"`
	EndDatetime     time.Time `json:"end_datetime" binding:"required"`
	DepositRequired bool      `json:"deposit_required"`
}

func (s *Service) CreateStore(req CreateStoreRequest) (*types.Store, error) {
	store := &types.Store{
		StoreID:         uuid.New().String(),
		Name:            req.Name,
		Status:          types.StatusActive,
		DepositRequired: req.DepositRequired,
		StartDatetime:   req.StartDatetime,
		EndDatetime:     req.EndDatetime,
	}
	if err := s.db.CreateStore(store); err != nil {
		return nil, err
	}

	log.Info().
		Str("store_id", store.StoreID).
		Str("name", store.Name).
		Str("service", "catalog").
		Msg("store created")
	return store, nil
}

// CreateLotRequest describes a new auctionable lot
type CreateLotRequest struct {
	StoreID                string               `json:"store_id" binding:"required"`
	LotNumber              int                  `json:"lot_number"`
	ProductRef             string               `json:"product_ref"`
	OwnerCustomerID        string               `json:"owner_customer_id"`
	StartingPrice          decimal.Decimal      `json:"starting_price" binding:"required"`
	ReservePrice           decimal.Decimal      `json:"reserve_price"`
	StartDatetime          time.Time            `json:"start_datetime" binding:"required"`
	EndDatetime            time.Time            `json:"end_datetime" binding:"required"`
	BidIncrementalSettings types.IncrementTable `json:"bid_incremental_settings"`
	AuctionTimeSettings    types.TimeSettings   `json:"auction_time_settings"`
	IsPermissionRequired   bool                 `json:"is_permission_required"`
	WinnerCount            int                  `json:"winner_count"`
}

func (s *Service) CreateLot(req CreateLotRequest) (*types.Lot, error) {
	store, err := s.db.GetStore(req.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil || store.Status == types.StatusDeleted {
		return nil, gorm.ErrRecordNotFound
	}

	winnerCount := req.WinnerCount
	if winnerCount < 1 {
		winnerCount = 1
	}

	lot := &types.Lot{
		LotID:                  uuid.New().String(),
		StoreID:                req.StoreID,
		LotNumber:              req.LotNumber,
		ProductRef:             req.ProductRef,
		OwnerCustomerID:        req.OwnerCustomerID,
		Status:                 types.StatusDraft,
		StartingPrice:          req.StartingPrice,
		CurrentBid:             req.StartingPrice,
		StartDatetime:          req.StartDatetime,
		EndDatetime:            req.EndDatetime,
		OriginalEndDatetime:    req.EndDatetime,
		ReservePrice:           req.ReservePrice,
		BidIncrementalSettings: req.BidIncrementalSettings,
		AuctionTimeSettings:    req.AuctionTimeSettings,
		IsPermissionRequired:   req.IsPermissionRequired,
		WinnerCount:            winnerCount,
	}
	if err := s.db.CreateLot(lot); err != nil {
		return nil, err
	}

	log.Info().
		Str("lot_id", lot.LotID).
		Str("store_id", lot.StoreID).
		Int("lot_number", lot.LotNumber).
		Str("service", "catalog").
		Msg("lot created")
	return lot, nil
}

// UpdateLotRequest is a partial update of a lot's configurable fields.
// Derived fields are deliberately absent: any attempt to set current_bid or
// winner from the outside is ignored by construction.
type UpdateLotRequest struct {
	LotNumber              *int                  `json:"lot_number"`
	ProductRef             *string               `json:"product_ref"`
	Status                 *string               `json:"status"`
	StartingPrice          *decimal.Decimal      `json:"starting_price"`
	ReservePrice           *decimal.Decimal      `json:"reserve_price"`
	StartDatetime          *time.Time            `json:"start_datetime"`
	BidIncrementalSettings *types.IncrementTable `json:"bid_incremental_settings"`
	AuctionTimeSettings    *types.TimeSettings   `json:"auction_time_settings"`
	IsDisabled             *bool                 `json:"is_disabled"`
	IsPermissionRequired   *bool                 `json:"is_permission_required"`
	WinnerCount            *int                  `json:"winner_count"`
}

func (s *Service) UpdateLot(lotID string, req UpdateLotRequest) (*types.Lot, error) {
	lot, err := s.db.GetLot(lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil || lot.Status == types.StatusDeleted {
		return nil, gorm.ErrRecordNotFound
	}

	// Only the columns actually changed join the write set, so a bid
	// committing between our read and this update is never clobbered
	var columns []string
	if req.Status != nil {
		switch *req.Status {
		case types.StatusDraft, types.StatusActive, types.StatusArchived:
			lot.Status = *req.Status
			columns = append(columns, "status")
		default:
			return nil, errUnknownStatus
		}
	}
	if req.LotNumber != nil {
		lot.LotNumber = *req.LotNumber
		columns = append(columns, "lot_number")
	}
	if req.ProductRef != nil {
		lot.ProductRef = *req.ProductRef
		columns = append(columns, "product_ref")
	}
	if req.StartingPrice != nil {
		lot.StartingPrice = *req.StartingPrice
		columns = append(columns, "starting_price")
		if !lot.IsBidPlaced {
			lot.CurrentBid = *req.StartingPrice
			columns = append(columns, "current_bid")
		}
	}
	if req.ReservePrice != nil {
		lot.ReservePrice = *req.ReservePrice
		columns = append(columns, "reserve_price")
	}
	if req.StartDatetime != nil {
		lot.StartDatetime = *req.StartDatetime
		columns = append(columns, "start_datetime")
	}
	if req.BidIncrementalSettings != nil {
		lot.BidIncrementalSettings = *req.BidIncrementalSettings
		columns = append(columns, "bid_incremental_settings")
	}
	if req.AuctionTimeSettings != nil {
		lot.AuctionTimeSettings = *req.AuctionTimeSettings
		columns = append(columns, "auction_time_settings")
	}
	if req.IsDisabled != nil {
		lot.IsDisabled = *req.IsDisabled
		columns = append(columns, "is_disabled")
	}
	if req.IsPermissionRequired != nil {
		lot.IsPermissionRequired = *req.IsPermissionRequired
		columns = append(columns, "is_permission_required")
	}
	if req.WinnerCount != nil && *req.WinnerCount >= 1 {
		lot.WinnerCount = *req.WinnerCount
		columns = append(columns, "winner_count")
	}

	if len(columns) == 0 {
		return lot, nil
	}

	if err := s.db.UpdateLotColumns(lot, columns); err != nil {
		return nil, err
	}
	return lot, nil
}

// DeleteLot soft-deletes a lot: the ledger and history stay intact
func (s *Service) DeleteLot(lotID string) error {
	lot, err := s.db.GetLot(lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return gorm.ErrRecordNotFound
	}
	lot.Status = types.StatusDeleted
	return s.db.UpdateLotColumns(lot, []string{"status"})
}

func (s *Service) GetLot(lotID string) (*types.Lot, error) {
	lot, err := s.db.GetLot(lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil || lot.Status == types.StatusDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return lot, nil
}

func (s *Service) ListLots(storeID string) ([]types.Lot, error) {
	return s.db.ListLots(storeID)
}

func (s *Service) ListStores() ([]types.Store, error) {
	return s.db.ListStores()
}

// GinHandlers contains HTTP handlers for catalog endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for catalog endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// CreateStoreHandler handles POST requests to create auction events. Admin
// only.
func (h *GinHandlers) CreateStoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateStoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		store, err := h.service.CreateStore(req)
		response.Handle(c, store, err)
	}
}

// CreateLotHandler handles POST requests to create lots. Admin only.
func (h *GinHandlers) CreateLotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		lot, err := h.service.CreateLot(req)
		response.Handle(c, lot, err)
	}
}

// UpdateLotHandler handles PUT requests updating a lot's configuration.
// Admin only.
func (h *GinHandlers) UpdateLotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateLotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		lot, err := h.service.UpdateLot(c.Param("lot_id"), req)
		if errors.Is(err, errUnknownStatus) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Handle(c, lot, err)
	}
}

// DeleteLotHandler handles DELETE requests soft-deleting a lot. Admin only.
func (h *GinHandlers) DeleteLotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.DeleteLot(c.Param("lot_id"))
		response.Handle(c, gin.H{"lot_id": c.Param("lot_id"), "deleted": err == nil}, err)
	}
}

// GetLotHandler handles GET requests for a single lot
func (h *GinHandlers) GetLotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lot, err := h.service.GetLot(c.Param("lot_id"))
		response.Handle(c, lot, err)
	}
}

// ListLotsHandler handles GET requests listing lots, optionally filtered by
// store
func (h *GinHandlers) ListLotsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lots, err := h.service.ListLots(c.Query("store_id"))
		response.Handle(c, lots, err)
	}
}

// ListStoresHandler handles GET requests listing auction events
func (h *GinHandlers) ListStoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stores, err := h.service.ListStores()
		response.Handle(c, stores, err)
	}
}
