package db

import (
	"unisync/internal/models"
)

// AutoMigrate provisions the bookkeeping tables. Destination record tables
// are dynamic per (vertical, object type) and provisioned by the warehouse
// package at sync time instead.
func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.SyncState{},
		&models.SyncRun{},
	)
}
