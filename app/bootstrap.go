package app

import (
	"fmt"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"contact-list/config"
	"contact-list/db"
	"contact-list/logging"
)

// Configure loads and validates the config at path and returns the logger it
// describes, writing to w.
func Configure(path string, w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(w, cfg.Logging.Level, cfg.Logging.Format), nil
}

// Open is Configure followed by the shared database connection. InitDB
// migrates on first connect.
func Open(path string, w io.Writer) (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, log, err := Configure(path, w)
	if err != nil {
		return nil, nil, nil, err
	}
	database, err := db.InitDB(cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, database, nil
}

// Start opens the config and database at path and composes the App.
func Start(path string, w io.Writer) (*App, error) {
	cfg, log, database, err := Open(path, w)
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, log, database)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	return a, nil
}
