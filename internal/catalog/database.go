package catalog

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

func (d *Database) CreateStore(store *types.Store) error {
	return d.db.Create(store).Error
}

func (d *Database) GetStore(storeID string) (*types.Store, error) {
	var store types.Store
	if err := d.db.Where("store_id = ?", storeID).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (d *Database) ListStores() ([]types.Store, error) {
	var stores []types.Store
	err := d.db.
		Where("status <> ?", types.StatusDeleted).
		Order("start_datetime asc").
		Find(&stores).Error
	return stores, err
}

func (d *Database) CreateLot(lot *types.Lot) error {
	return d.db.Create(lot).Error
}

func (d *Database) GetLot(lotID string) (*types.Lot, error) {
	var lot types.Lot
	if err := d.db.Where("lot_id = ?", lotID).First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

func (d *Database) ListLots(storeID string) ([]types.Lot, error) {
	var lots []types.Lot
	query := d.db.Where("status <> ?", types.StatusDeleted)
	if storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}
	err := query.Order("lot_number asc").Find(&lots).Error
	return lots, err
}

// UpdateLotColumns persists only the named columns. Callers pass exactly
// the set they changed, so derived fields owned by the bid path are never
// written back from a stale read.
func (d *Database) UpdateLotColumns(lot *types.Lot, columns []string) error {
	return d.db.Model(&types.Lot{}).
		Where("lot_id = ?", lot.LotID).
		Select(columns).
		Updates(lot).Error
}
