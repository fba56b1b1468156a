package registration

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/auction-api/internal/types"
	"github.com/ksred/auction-api/pkg/response"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service handles auction registration requests, paddle assignment and
// deposit reconciliation state
type Service struct {
	db *Database
}

// NewService creates a new registration service with the given database
// connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// SubmitRequest files a registration request for a customer in a store.
// Re-submitting while a live request exists returns the existing request.
func (s *Service) SubmitRequest(customerID, storeID string) (*Request, error) {
	existing, err := s.db.GetActiveRequest(customerID, storeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	request := &Request{
		RequestID:   uuid.New().String(),
		CustomerID:  customerID,
		StoreID:     storeID,
		ReplyStatus: ReplyStatusPending,
		Status:      types.StatusActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.db.CreateRequest(request); err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", request.RequestID).
		Str("customer_id", customerID).
		Str("store_id", storeID).
		Str("service", "registration").
		Msg("registration request submitted")
	return request, nil
}

// ReviewRequest approves or rejects a pending registration request.
// Approval assigns the next paddle number for the store.
func (s *Service) ReviewRequest(requestID string, approve bool) (*Request, error) {
	request, err := s.db.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, gorm.ErrRecordNotFound
	}

	if approve {
		if request.ReplyStatus == ReplyStatusApproved {
			return request, nil
		}
		if err := s.db.ApproveRequest(request); err != nil {
			return nil, err
		}
		log.Info().
			Str("request_id", requestID).
			Int("paddle_id", request.PaddleID).
			Str("service", "registration").
			Msg("registration approved")
		return request, nil
	}

	request.ReplyStatus = ReplyStatusRejected
	request.UpdatedAt = time.Now()
	if err := s.db.UpdateRequest(request); err != nil {
		return nil, err
	}
	return request, nil
}

// IsEligibleToBid reports whether the customer holds a live, approved
// registration for the store
func (s *Service) IsEligibleToBid(customerID, storeID string) (bool, error) {
	request, err := s.db.GetActiveRequest(customerID, storeID)
	if err != nil {
		return false, err
	}
	return request != nil && request.ReplyStatus == ReplyStatusApproved, nil
}

// DepositCallback is the payload the payment gateway posts back after a
// deposit attempt settles
type DepositCallback struct {
	GatewayRef string          `json:"gateway_ref" binding:"required"`
	CustomerID string          `json:"customer_id" binding:"required"`
	StoreID    string          `json:"store_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Succeeded  bool            `json:"succeeded"`
	Reason     string          `json:"reason"`
}

// HandleDepositCallback records the gateway's verdict on a deposit.
// Failures are parked as NEEDS_RECONCILIATION, never dropped.
func (s *Service) HandleDepositCallback(callback DepositCallback) (*Deposit, error) {
	logger := log.With().
		Str("gateway_ref", callback.GatewayRef).
		Str("customer_id", callback.CustomerID).
		Str("service", "registration").
		Logger()

	deposit, err := s.db.GetDepositByGatewayRef(callback.GatewayRef)
	if err != nil {
		return nil, err
	}
	if deposit == nil {
		deposit = &Deposit{
			DepositID:  uuid.New().String(),
			CustomerID: callback.CustomerID,
			StoreID:    callback.StoreID,
			Amount:     callback.Amount,
			GatewayRef: callback.GatewayRef,
			Status:     DepositStatusPending,
			CreatedAt:  time.Now(),
		}
		if err := s.db.CreateDeposit(deposit); err != nil {
			return nil, err
		}
	}

	if callback.Succeeded {
		deposit.Status = DepositStatusApproved
		deposit.FailureReason = ""
	} else {
		deposit.Status = DepositStatusNeedsReconciliation
		deposit.FailureReason = callback.Reason
		logger.Warn().Str("reason", callback.Reason).Msg("deposit failed, parked for reconciliation")
	}
	deposit.UpdatedAt = time.Now()

	if err := s.db.UpdateDeposit(deposit); err != nil {
		return nil, err
	}

	logger.Info().Str("status", deposit.Status).Msg("deposit callback processed")
	return deposit, nil
}

// DepositsNeedingReconciliation exposes parked deposits to the
// reconciliation job
func (s *Service) DepositsNeedingReconciliation() ([]Deposit, error) {
	return s.db.GetDepositsNeedingReconciliation()
}

// GinHandlers contains HTTP handlers for registration endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for registration
// endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SubmitRequestHandler handles POST requests from customers applying to bid
// in a store
func (h *GinHandlers) SubmitRequestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetString("customerID")
		if customerID == "" {
			response.Unauthorized(c, "Missing customer identity")
			return
		}

		request, err := h.service.SubmitRequest(customerID, c.Param("store_id"))
		response.Handle(c, request, err)
	}
}

type reviewBody struct {
	Approve bool `json:"approve"`
}

// ReviewRequestHandler handles POST requests from admins approving or
// rejecting a registration request
func (h *GinHandlers) ReviewRequestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body reviewBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		request, err := h.service.ReviewRequest(c.Param("request_id"), body.Approve)
		response.Handle(c, request, err)
	}
}

// DepositCallbackHandler handles POST callbacks from the payment gateway
func (h *GinHandlers) DepositCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var callback DepositCallback
		if err := c.ShouldBindJSON(&callback); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		deposit, err := h.service.HandleDepositCallback(callback)
		response.Handle(c, deposit, err)
	}
}

// ReconciliationHandler handles GET requests listing deposits awaiting
// reconciliation
func (h *GinHandlers) ReconciliationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		deposits, err := h.service.DepositsNeedingReconciliation()
		response.Handle(c, deposits, err)
	}
}
