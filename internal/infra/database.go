package infra

import (
	"fmt"

	"showtix/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate for the ledger schema. The atomic batch transition relies on
// the database honoring SELECT … FOR UPDATE; anything that cannot provide
// that guarantee must not be wired here.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// RunMigrations creates / updates all tables. Also used by integration tests
// against throwaway containers.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Schedule{},
		&model.SeatSection{},
		&model.Ticket{},
		&model.AllocationHistoryEntry{},
		&model.RemittanceHistoryEntry{},
		&model.RemittanceTicket{},
	)
}
