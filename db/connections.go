package db

import (
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"contact-list/config"
	"contact-list/model"
)

var (
	DB      *gorm.DB
	once    sync.Once
	initErr error
)

// InitDB opens the shared postgres connection once per process and migrates
// the schema. Later calls return the same handle.
func InitDB(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	once.Do(func() {
		conn, err := Open(postgres.Open(cfg.ConnString()))
		if err != nil {
			initErr = fmt.Errorf("connect to database: %w", err)
			return
		}
		log.Info("connected to the database", "host", cfg.Host, "dbname", cfg.Name)

		if err := Migrate(conn); err != nil {
			initErr = fmt.Errorf("migrate database: %w", err)
			return
		}
		log.Info("migrated")
		DB = conn
	})
	return DB, initErr
}

// Open opens a gorm handle on dialector. Transactions are always managed by a
// Session, so gorm's implicit per-write transaction is disabled.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	})
}

// Migrate creates or updates the contacts table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Contact{})
}
