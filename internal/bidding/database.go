package bidding

import (
	"errors"
	"time"

	"github.com/ksred/auction-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
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

// GetVisibleBids returns the non-hidden bids of a lot in placement order:
// created_at ascending, insertion order breaking ties
func (d *Database) GetVisibleBids(lotID string) ([]types.Bid, error) {
	var bids []types.Bid
	err := d.db.
		Where("lot_id = ? AND is_hidden = ?", lotID, false).
		Order("created_at asc, id asc").
		Find(&bids).Error
	return bids, err
}

func (d *Database) GetHistory(lotID string) ([]types.BidHistoryEntry, error) {
	var entries []types.BidHistoryEntry
	err := d.db.
		Where("lot_id = ?", lotID).
		Order("created_at asc, id asc").
		Find(&entries).Error
	return entries, err
}

// lotDerivedColumns is the bid path's entire lot write set. Status stays
// out of it: the sweep owns status, and a stale read here must never revert
// a concurrent archive.
var lotDerivedColumns = []string{
	"current_bid",
	"is_bid_placed",
	"latest_bid_customer_id",
	"winning_bid_customer_id",
	"end_datetime",
}

// bidCommit is the full write set of one accepted bid. It is applied as a
// single transaction so the ledger, lot cache and history never diverge.
type bidCommit struct {
	bid          *types.Bid
	hiddenBidIDs []uint
	lot          *types.Lot // nil when derived fields are not persisted (ADVANCED path)
	historyEntry *types.BidHistoryEntry
	resetHistory bool
	storeID      string
	storeEnd     *time.Time
}

// CommitBid atomically appends a bid and applies its side effects: ledger
// supersession hiding, lot derived-field updates, history append/reset and
// the monotonic store end time extension.
func (d *Database) CommitBid(commit bidCommit) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if len(commit.hiddenBidIDs) > 0 {
		if err := tx.Model(&types.Bid{}).
			Where("id IN ?", commit.hiddenBidIDs).
			Update("is_hidden", true).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Create(commit.bid).Error; err != nil {
		tx.Rollback()
		return err
	}

	if commit.lot != nil {
		if err := tx.Model(&types.Lot{}).
			Where("lot_id = ?", commit.lot.LotID).
			Select(lotDerivedColumns).
			Updates(commit.lot).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if commit.resetHistory {
		if err := tx.Where("lot_id = ?", commit.bid.LotID).
			Delete(&types.BidHistoryEntry{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if commit.historyEntry != nil {
		if err := tx.Create(commit.historyEntry).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if commit.storeEnd != nil {
		// Extend only if later: concurrent extensions from sibling lots must
		// not clobber a longer one
		if err := tx.Model(&types.Store{}).
			Where("store_id = ? AND end_datetime < ?", commit.storeID, *commit.storeEnd).
			Update("end_datetime", *commit.storeEnd).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// CommitReset atomically hides all visible live (MAX/DIRECT) bids of a lot,
// clears its history and re-seeds lot state from the surviving ledger
func (d *Database) CommitReset(lot *types.Lot, entry *types.BidHistoryEntry) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	liveTypes := []string{types.BidTypeMax, types.BidTypeDirect}
	if err := tx.Model(&types.Bid{}).
		Where("lot_id = ? AND is_hidden = ? AND type IN ?", lot.LotID, false, liveTypes).
		Update("is_hidden", true).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Where("lot_id = ?", lot.LotID).
		Delete(&types.BidHistoryEntry{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	if entry != nil {
		if err := tx.Create(entry).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	// Reset leaves the end time alone and, like the bid path, never writes
	// status
	if err := tx.Model(&types.Lot{}).
		Where("lot_id = ?", lot.LotID).
		Select("current_bid", "is_bid_placed", "latest_bid_customer_id", "winning_bid_customer_id").
		Updates(lot).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
