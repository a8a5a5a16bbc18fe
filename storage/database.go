// Package storage is a write-only audit trail of order activity. The
// in-memory trader state stays authoritative; nothing is read back at
// startup.
package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database persists order events. A nil *Database is a valid disabled
// handle.
type Database struct {
	db *gorm.DB
}

// OrderEvent is one row of the audit trail: a placement, cancel or sell,
// with whatever the gateway answered.
type OrderEvent struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Action    string `gorm:"index"` // limit_buy, limit_sell, market_buy, market_sell, cancel
	TokenKind string
	TokenID   string          `gorm:"index"`
	Price     decimal.Decimal `gorm:"type:decimal(10,6)"`
	Size      decimal.Decimal `gorm:"type:decimal(20,6)"`
	OrderID   string
	Status    string
	CreatedAt time.Time
}

// New opens the audit database. A postgres:// URL selects PostgreSQL,
// anything else is treated as a SQLite path. Empty input returns a
// disabled (nil) handle without error.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		log.Warn().Msg("No database configured, running without audit persistence")
		return nil, nil
	}

	var db *gorm.DB
	var err error
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("💾 Audit database connected (PostgreSQL)")
	} else {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("💾 Audit database initialized (SQLite)")
	}

	if err := db.AutoMigrate(&OrderEvent{}); err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

// SaveOrderEvent appends one audit row. Failures are logged, never
// propagated: the audit trail must not break trading.
func (d *Database) SaveOrderEvent(ev *OrderEvent) {
	if d == nil || d.db == nil {
		return
	}
	if err := d.db.Create(ev).Error; err != nil {
		log.Warn().Err(err).Msg("Audit write failed")
	}
}

// Close closes the underlying connection.
func (d *Database) Close() {
	if d == nil || d.db == nil {
		return
	}
	if sqlDB, err := d.db.DB(); err == nil {
		sqlDB.Close()
	}
}
