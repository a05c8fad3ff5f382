package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"contact-list/db"
	"contact-list/logging"
	"contact-list/mediator"
	"contact-list/model"
	"contact-list/store"
	"contact-list/unitofwork"
	"contact-list/validation"
)

// fixture wires the contact features to a fresh sqlite database. Every helper
// opens its own session, like one inbound request each.
type fixture struct {
	gdb      *gorm.DB
	registry *mediator.Registry
	envelope *unitofwork.Envelope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "contacts.db")))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	r := mediator.NewRegistry()
	require.NoError(t, Register(r, validation.New(), &ContactService{Log: logging.Discard()}))
	return &fixture{
		gdb:      gdb,
		registry: r,
		envelope: unitofwork.New(r, logging.Discard(), nil),
	}
}

func (f *fixture) session() *db.Session {
	return db.NewSession(f.gdb, sql.LevelDefault, logging.Discard())
}

// send dispatches req through the envelope and requires success.
func send[Req, Resp any](t *testing.T, f *fixture, req Req) Resp {
	t.Helper()
	resp, err := unitofwork.Send[Req, Resp](context.Background(), f.envelope, f.session(), req)
	require.NoError(t, err)
	return resp
}

func sendErr[Req, Resp any](f *fixture, req Req) error {
	_, err := unitofwork.Send[Req, Resp](context.Background(), f.envelope, f.session(), req)
	return err
}

// find loads a contact by id in its own transaction; nil when it does not exist.
func (f *fixture) find(t *testing.T, id string) *model.Contact {
	t.Helper()
	var found *model.Contact
	s := f.session()
	err := f.envelope.Transaction(context.Background(), s, func(ctx context.Context) error {
		c, err := store.NewContacts(s).Find(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		found = c
		return err
	})
	require.NoError(t, err)
	return found
}

func (f *fixture) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	s := f.session()
	err := f.envelope.Transaction(context.Background(), s, func(ctx context.Context) error {
		var err error
		n, err = store.NewContacts(s).Count(ctx)
		return err
	})
	require.NoError(t, err)
	return n
}

// validationErrors runs only the validator registered for req.
func validationErrors[Req any](t *testing.T, req Req) validation.Errors {
	t.Helper()
	r := mediator.NewRegistry()
	require.NoError(t, Register(r, validation.New(), &ContactService{Log: logging.Discard()}))

	err := mediator.Validate(r, req)
	if err == nil {
		return nil
	}
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	return errs
}
