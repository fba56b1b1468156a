package registration

import (
	"errors"

	"github.com/ksred/auction-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetRequest(requestID string) (*Request, error) {
	var request Request
	if err := d.db.Where("request_id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetActiveRequest returns the customer's live registration request for a
// store, regardless of reply status
func (d *Database) GetActiveRequest(customerID, storeID string) (*Request, error) {
	var request Request
	err := d.db.
		Where("customer_id = ? AND store_id = ? AND status = ?", customerID, storeID, types.StatusActive).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (d *Database) CreateRequest(request *Request) error {
	return d.db.Create(request).Error
}

// ApproveRequest marks the request approved and assigns the next paddle
// number for its store in one transaction, so paddle numbers stay dense
// and unique per store
func (d *Database) ApproveRequest(request *Request) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var maxPaddle int
	err := tx.Model(&Request{}).
		Where("store_id = ? AND reply_status = ?", request.StoreID, ReplyStatusApproved).
		Select("COALESCE(MAX(paddle_id), 0)").
		Scan(&maxPaddle).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	request.PaddleID = maxPaddle + 1
	request.ReplyStatus = ReplyStatusApproved

	if err := tx.Save(request).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (d *Database) UpdateRequest(request *Request) error {
	return d.db.Save(request).Error
}

func (d *Database) GetDepositByGatewayRef(gatewayRef string) (*Deposit, error) {
	var deposit Deposit
	if err := d.db.Where("gateway_ref = ?", gatewayRef).First(&deposit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &deposit, nil
}

func (d *Database) CreateDeposit(deposit *Deposit) error {
	return d.db.Create(deposit).Error
}

func (d *Database) UpdateDeposit(deposit *Deposit) error {
	return d.db.Save(deposit).Error
}

// GetDepositsNeedingReconciliation lists deposits parked for the
// reconciliation job
func (d *Database) GetDepositsNeedingReconciliation() ([]Deposit, error) {
	var deposits []Deposit
	err := d.db.
		Where("status = ?", DepositStatusNeedsReconciliation).
		Order("created_at asc").
		Find(&deposits).Error
	return deposits, err
}
