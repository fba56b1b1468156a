package migrations

import (
	"gorm.io/gorm"
)

// AddBidLedgerIndexes creates the composite indexes the bid path depends on
func AddBidLedgerIndexes(db *gorm.DB) error {
	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// The resolver's hot query: visible ledger of one lot in placement order
		`CREATE INDEX IF NOT EXISTS idx_bids_lot_visible
		 ON bids(lot_id, is_hidden, created_at)`,

		// Supersession hiding filters by lot, type and visibility
		`CREATE INDEX IF NOT EXISTS idx_bids_lot_type
		 ON bids(lot_id, type, is_hidden)`,

		// History reads per lot in order
		`CREATE INDEX IF NOT EXISTS idx_bid_history_lot
		 ON bid_history_entries(lot_id, created_at)`,

		// Sweep scans filter on status and the time window
		`CREATE INDEX IF NOT EXISTS idx_lots_status_window
		 ON lots(status, start_datetime, end_datetime)`,

		`CREATE INDEX IF NOT EXISTS idx_stores_status_window
		 ON stores(status, start_datetime, end_datetime)`,

		// Eligibility lookups by customer and store
		`CREATE INDEX IF NOT EXISTS idx_requests_customer_store
		 ON requests(customer_id, store_id, status)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
