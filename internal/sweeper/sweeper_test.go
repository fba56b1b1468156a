package sweeper

import (
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&types.Store{}, &types.Lot{}))
	return db
}

func seedLot(t *testing.T, db *gorm.DB, lotID, status string, start, end time.Time) {
	t.Helper()
	assert.NoError(t, db.Create(&types.Lot{
		LotID:         lotID,
		StoreID:       "store-1",
		Status:        status,
		StartDatetime: start,
		EndDatetime:   end,
		StartingPrice: decimal.NewFromInt(100),
		CurrentBid:    decimal.NewFromInt(100),
	}).Error)
}

func seedStore(t *testing.T, db *gorm.DB, storeID, status string, start, end time.Time) {
	t.Helper()
	assert.NoError(t, db.Create(&types.Store{
		StoreID:       storeID,
		Name:          storeID,
		Status:        status,
		StartDatetime: start,
		EndDatetime:   end,
	}).Error)
}

func lotStatus(t *testing.T, db *gorm.DB, lotID string) string {
	t.Helper()
	var lot types.Lot
	assert.NoError(t, db.Where("lot_id = ?", lotID).First(&lot).Error)
	return lot.Status
}

func storeStatus(t *testing.T, db *gorm.DB, storeID string) string {
	t.Helper()
	var store types.Store
	assert.NoError(t, db.Where("store_id = ?", storeID).First(&store).Error)
	return store.Status
}

func TestSweep_Transitions(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	svc := NewService(db)

	// Inside its window but still archived: should go active
	seedLot(t, db, "lot-due", types.StatusArchived, now.Add(-time.Hour), now.Add(time.Hour))
	// Active but past its end: should archive
	seedLot(t, db, "lot-over", types.StatusActive, now.Add(-2*time.Hour), now.Add(-time.Minute))
	// Active and still running: untouched
	seedLot(t, db, "lot-running", types.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))
	// Archived ahead of its window: untouched
	seedLot(t, db, "lot-future", types.StatusArchived, now.Add(time.Hour), now.Add(2*time.Hour))
	// Drafts and deletions are never the sweeper's business
	seedLot(t, db, "lot-draft", types.StatusDraft, now.Add(-time.Hour), now.Add(time.Hour))
	seedLot(t, db, "lot-deleted", types.StatusDeleted, now.Add(-time.Hour), now.Add(time.Hour))

	seedStore(t, db, "store-due", types.StatusArchived, now.Add(-time.Hour), now.Add(time.Hour))
	seedStore(t, db, "store-over", types.StatusActive, now.Add(-2*time.Hour), now.Add(-time.Minute))
	seedStore(t, db, "store-running", types.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))

	result, err := svc.Sweep(now)
	assert.NoError(t, err)

	check.Equal(t, 1, result.LotsActivated)
	check.Equal(t, 1, result.LotsArchived)
	check.Equal(t, 1, result.StoresActivated)
	check.Equal(t, 1, result.StoresArchived)

	check.Equal(t, types.StatusActive, lotStatus(t, db, "lot-due"))
	check.Equal(t, types.StatusArchived, lotStatus(t, db, "lot-over"))
	check.Equal(t, types.StatusActive, lotStatus(t, db, "lot-running"))
	check.Equal(t, types.StatusArchived, lotStatus(t, db, "lot-future"))
	check.Equal(t, types.StatusDraft, lotStatus(t, db, "lot-draft"))
	check.Equal(t, types.StatusDeleted, lotStatus(t, db, "lot-deleted"))

	check.Equal(t, types.StatusActive, storeStatus(t, db, "store-due"))
	check.Equal(t, types.StatusArchived, storeStatus(t, db, "store-over"))
	check.Equal(t, types.StatusActive, storeStatus(t, db, "store-running"))
}

func TestSweep_Idempotent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	svc := NewService(db)

	seedLot(t, db, "lot-due", types.StatusArchived, now.Add(-time.Hour), now.Add(time.Hour))
	seedStore(t, db, "store-over", types.StatusActive, now.Add(-2*time.Hour), now.Add(-time.Minute))

	first, err := svc.Sweep(now)
	assert.NoError(t, err)
	check.Equal(t, 1, first.LotsActivated)
	check.Equal(t, 1, first.StoresArchived)

	// The same sweep again finds nothing to do
	second, err := svc.Sweep(now)
	assert.NoError(t, err)
	check.Equal(t, 0, second.LotsActivated)
	check.Equal(t, 0, second.LotsArchived)
	check.Equal(t, 0, second.StoresActivated)
	check.Equal(t, 0, second.StoresArchived)
}

func TestSweep_OnlyTouchesStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	svc := NewService(db)

	lot := &types.Lot{
		LotID:                "lot-over",
		StoreID:              "store-1",
		Status:               types.StatusActive,
		StartDatetime:        now.Add(-2 * time.Hour),
		EndDatetime:          now.Add(-time.Minute),
		StartingPrice:        decimal.NewFromInt(100),
		CurrentBid:           decimal.NewFromInt(210),
		IsBidPlaced:          true,
		WinningBidCustomerID: "cust-b",
	}
	assert.NoError(t, db.Create(lot).Error)

	_, err := svc.Sweep(now)
	assert.NoError(t, err)

	var updated types.Lot
	assert.NoError(t, db.Where("lot_id = ?", "lot-over").First(&updated).Error)
	check.Equal(t, types.StatusArchived, updated.Status)
	check.Equal(t, "210", updated.CurrentBid.String())
	check.True(t, updated.IsBidPlaced)
	check.Equal(t, "cust-b", updated.WinningBidCustomerID)
	check.True(t, updated.EndDatetime.Equal(lot.EndDatetime))
}
