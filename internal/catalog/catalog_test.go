package catalog

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ksred/auction-api/internal/types"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&types.Store{}, &types.Lot{}))
	return NewService(db), db
}

func createTestStore(t *testing.T, svc *Service) *types.Store {
	t.Helper()
	store, err := svc.CreateStore(CreateStoreRequest{
		Name:          "June Sale",
		StartDatetime: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		EndDatetime:   time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	return store
}

func createTestLot(t *testing.T, svc *Service, storeID string) *types.Lot {
	t.Helper()
	lot, err := svc.CreateLot(CreateLotRequest{
		StoreID:       storeID,
		LotNumber:     1,
		ProductRef:    "PROD-1",
		StartingPrice: decimal.NewFromInt(100),
		StartDatetime: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		EndDatetime:   time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	return lot
}

func TestCreateLot_Defaults(t *testing.T) {
	svc, _ := newTestService(t)
	store := createTestStore(t, svc)

	lot := createTestLot(t, svc, store.StoreID)

	check.Equal(t, types.StatusDraft, lot.Status)
	check.Equal(t, "100", lot.CurrentBid.String())
	check.False(t, lot.IsBidPlaced)
	check.Equal(t, 1, lot.WinnerCount)
	check.True(t, lot.OriginalEndDatetime.Equal(lot.EndDatetime))
}

func TestCreateLot_UnknownStore(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateLot(CreateLotRequest{
		StoreID:       "missing-store",
		StartingPrice: decimal.NewFromInt(100),
		StartDatetime: time.Now(),
		EndDatetime:   time.Now().Add(time.Hour),
	})
	check.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUpdateLot(t *testing.T) {
	svc, db := newTestService(t)
	store := createTestStore(t, svc)
	lot := createTestLot(t, svc, store.StoreID)

	t.Run("status transitions validate", func(t *testing.T) {
		status := types.StatusActive
		updated, err := svc.UpdateLot(lot.LotID, UpdateLotRequest{Status: &status})
		assert.NoError(t, err)
		check.Equal(t, types.StatusActive, updated.Status)

		bogus := "LIQUIDATED"
		_, err = svc.UpdateLot(lot.LotID, UpdateLotRequest{Status: &bogus})
		check.True(t, errors.Is(err, errUnknownStatus))
	})

	t.Run("starting price follows through before first bid", func(t *testing.T) {
		price := decimal.NewFromInt(150)
		updated, err := svc.UpdateLot(lot.LotID, UpdateLotRequest{StartingPrice: &price})
		assert.NoError(t, err)
		check.Equal(t, "150", updated.CurrentBid.String())
	})

	t.Run("starting price leaves an established current bid alone", func(t *testing.T) {
		assert.NoError(t, db.Model(&types.Lot{}).
			Where("lot_id = ?", lot.LotID).
			Updates(map[string]interface{}{"is_bid_placed": true, "current_bid": "210"}).Error)

		price := decimal.NewFromInt(180)
		updated, err := svc.UpdateLot(lot.LotID, UpdateLotRequest{StartingPrice: &price})
		assert.NoError(t, err)
		check.Equal(t, "210", updated.CurrentBid.String())
		check.Equal(t, "180", updated.StartingPrice.String())
	})
}

func TestUpdateLotColumns_LimitsWriteSet(t *testing.T) {
	svc, db := newTestService(t)
	store := createTestStore(t, svc)
	created := createTestLot(t, svc, store.StoreID)

	stale, err := svc.db.GetLot(created.LotID)
	assert.NoError(t, err)

	// A bid commits after the admin read the lot
	assert.NoError(t, db.Model(&types.Lot{}).
		Where("lot_id = ?", created.LotID).
		Updates(map[string]interface{}{
			"is_bid_placed":           true,
			"current_bid":             "210",
			"winning_bid_customer_id": "cust-b",
		}).Error)

	// Persisting the stale read only writes the column the admin changed
	stale.ProductRef = "PROD-2"
	assert.NoError(t, svc.db.UpdateLotColumns(stale, []string{"product_ref"}))

	var fresh types.Lot
	assert.NoError(t, db.Where("lot_id = ?", created.LotID).First(&fresh).Error)
	check.Equal(t, "PROD-2", fresh.ProductRef)
	check.Equal(t, "210", fresh.CurrentBid.String())
	check.True(t, fresh.IsBidPlaced)
	check.Equal(t, "cust-b", fresh.WinningBidCustomerID)
}

func TestDeleteLot(t *testing.T) {
	svc, _ := newTestService(t)
	store := createTestStore(t, svc)
	lot := createTestLot(t, svc, store.StoreID)

	assert.NoError(t, svc.DeleteLot(lot.LotID))

	// Deleted lots vanish from reads and listings
	_, err := svc.GetLot(lot.LotID)
	check.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	lots, err := svc.ListLots(store.StoreID)
	assert.NoError(t, err)
	check.Equal(t, 0, len(lots))

	check.True(t, errors.Is(svc.DeleteLot("missing-lot"), gorm.ErrRecordNotFound))
}

func TestListLots_FilterByStore(t *testing.T) {
	svc, _ := newTestService(t)
	storeA := createTestStore(t, svc)
	storeB := createTestStore(t, svc)
	createTestLot(t, svc, storeA.StoreID)
	createTestLot(t, svc, storeA.StoreID)
	createTestLot(t, svc, storeB.StoreID)

	lots, err := svc.ListLots(storeA.StoreID)
	assert.NoError(t, err)
	check.Equal(t, 2, len(lots))

	all, err := svc.ListLots("")
	assert.NoError(t, err)
	check.Equal(t, 3, len(all))
}
