package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"contact-list/app"
)

var version = "dev"

// CLI is the top-level command structure for the contact list server.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Config  string           `help:"Path to the YAML config file." default:"contact-list.yml" type:"path"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Migrate the schema and serve the web UI."`
	Migrate MigrateCmd `cmd:"" help:"Create or update the contacts table and exit."`
}

// ServeCmd runs the HTTP server until interrupted.
type ServeCmd struct {
	Addr            string        `help:"Listen address; overrides the config file."`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"10s"`
}

// MigrateCmd applies the schema.
type MigrateCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, log, database, err := app.Open(cli.Config, os.Stderr)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	a, err := app.New(cfg, log, database)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("contact-list listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (c *MigrateCmd) Run(cli *CLI) error {
	if _, _, _, err := app.Open(cli.Config, os.Stderr); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("contact-list"),
		kong.Description("Server-rendered contact management."),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
