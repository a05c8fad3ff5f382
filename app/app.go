// Package app wires configuration, the database and the contact features
// into the handlers the entry points serve.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"contact-list/config"
	"contact-list/db"
	"contact-list/mediator"
	"contact-list/metrics"
	"contact-list/services"
	"contact-list/unitofwork"
	"contact-list/validation"
	"contact-list/web"
)

type App struct {
	Config   *config.Config
	Log      *slog.Logger
	DB       *gorm.DB
	Envelope *unitofwork.Envelope
	Metrics  *metrics.Metrics
	// Archiver receives snapshots; when nil one is built on the default AWS config.
	Archiver *services.Archiver

	registry  *prometheus.Registry
	isolation sql.IsolationLevel
}

// New registers the contact features against gdb. Registration errors are
// configuration errors and abort startup.
func New(cfg *config.Config, log *slog.Logger, gdb *gorm.DB) (*App, error) {
	isolation, err := cfg.Database.IsolationLevel()
	if err != nil {
		return nil, err
	}

	requests := mediator.NewRegistry()
	if err := services.Register(requests, validation.New(), &services.ContactService{Log: log}); err != nil {
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	return &App{
		Config:    cfg,
		Log:       log,
		DB:        gdb,
		Envelope:  unitofwork.New(requests, log, m),
		Metrics:   m,
		registry:  reg,
		isolation: isolation,
	}, nil
}

// NewSession returns a fresh unit of work over the application database.
func (a *App) NewSession() *db.Session {
	return db.NewSession(a.DB, a.isolation, a.Log)
}

// Handler is the HTTP presentation layer.
func (a *App) Handler() http.Handler {
	return web.New(a.Envelope, a.NewSession, a.Log,
		web.WithMetrics(a.Metrics, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
		web.WithRateLimiter(web.NewRateLimiter(a.Config.RateLimit)),
	)
}

// Snapshot archives the current contact index to S3.
func (a *App) Snapshot(ctx context.Context) (string, error) {
	if a.Archiver == nil {
		archiver, err := services.NewS3Archiver(ctx, a.Config.Archive, a.Log)
		if err != nil {
			return "", err
		}
		a.Archiver = archiver
	}
	return a.Archiver.Snapshot(ctx, a.Envelope, a.NewSession())
}
