package database

import (
	"fmt"

	"github.com/ksred/auction-api/internal/database/migrations"
	"github.com/ksred/auction-api/internal/registration"
	"github.com/ksred/auction-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "auction.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&types.Store{},
		&types.Lot{},
		&types.Bid{},
		&types.BidHistoryEntry{},
		&registration.Request{},
		&registration.Deposit{},
	)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddBidLedgerIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
