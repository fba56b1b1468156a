package registration

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reply statuses for a registration request
const (
	ReplyStatusPending  = "PENDING"
	ReplyStatusApproved = "APPROVED"
	ReplyStatusRejected = "REJECTED"
)

// Deposit statuses. FAILED callbacks are parked as NEEDS_RECONCILIATION for
// the reconciliation job rather than silently dropped.
const (
	DepositStatusPending             = "PENDING"
	DepositStatusApproved            = "APPROVED"
	DepositStatusNeedsReconciliation = "NEEDS_RECONCILIATION"
)

// Request is a customer's application to bid in a store. Approval assigns
// the paddle number.
type Request struct {
	gorm.Model  `json:"-"`
	RequestID   string    `gorm:"uniqueIndex" json:"request_id"`
	CustomerID  string    `gorm:"index" json:"customer_id"`
	StoreID     string    `gorm:"index" json:"store_id"`
	PaddleID    int       `json:"paddle_id"`
	ReplyStatus string    `json:"reply_status"` // PENDING, APPROVED, REJECTED
	Status      string    `json:"status"`       // ACTIVE, ARCHIVED, DELETED
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Deposit tracks a customer's auction deposit as reported by the payment
// gateway. Deposits never gate the bid path directly; they exist for the
// reconciliation job.
type Deposit struct {
	gorm.Model    `json:"-"`
	DepositID     string          `gorm:"uniqueIndex" json:"deposit_id"`
	CustomerID    string          `gorm:"index" json:"customer_id"`
	StoreID       string          `gorm:"index" json:"store_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4)" json:"amount"`
	Status        string          `json:"status"`
	GatewayRef    string          `gorm:"index" json:"gateway_ref"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
