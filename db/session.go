package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
)

// Session is the transaction resource of one logical unit of work. It is not
// safe for concurrent use; each inbound request gets its own Session.
//
// State machine: closed -> open (BeginTransaction) -> committed / rolled back
// (CloseTransaction) -> closed.
//
// An open transaction runs on a connection pinned from the pool, so the
// session can still reach the driver after a failed commit.
type Session struct {
	root      *gorm.DB
	isolation sql.IsolationLevel
	log       *slog.Logger
	conn      *sql.Conn
	tx        *gorm.DB
}

// NewSession returns a closed session over root.
func NewSession(root *gorm.DB, isolation sql.IsolationLevel, log *slog.Logger) *Session {
	return &Session{root: root, isolation: isolation, log: log}
}

// InTransaction reports whether a transaction is open.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

// BeginTransaction opens a transaction at the session's isolation level. It is
// a no-op when one is already open.
func (s *Session) BeginTransaction(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	sqlDB, err := s.root.DB()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	var opts *sql.TxOptions
	if s.isolation != sql.LevelDefault {
		opts = &sql.TxOptions{Isolation: s.isolation}
	}
	pinned := s.root.WithContext(ctx)
	pinned.Statement.ConnPool = conn
	tx := pinned.Begin(opts)
	if tx.Error != nil {
		conn.Close()
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}
	s.conn, s.tx = conn, tx
	s.log.Debug("transaction opened", "isolation", s.isolation.String())
	return nil
}

// Conn returns the handle store code must use: the open transaction, or the
// root connection bound to ctx when there is none.
func (s *Session) Conn(ctx context.Context) *gorm.DB {
	if s.tx != nil {
		return s.tx.WithContext(ctx)
	}
	return s.root.WithContext(ctx)
}

// CloseTransaction ends the open transaction. A nil failure commits; a non-nil
// failure rolls back. The transaction is released in every case.
//
// When commit fails the error is logged and a rollback is attempted on the
// same connection. If that rollback fails too, its error is the one returned
// and the connection is discarded rather than pooled.
//
// Closing a session with no open transaction panics.
func (s *Session) CloseTransaction(failure error) error {
	if s.tx == nil {
		panic("db: close of a transaction that was never opened")
	}
	tx := s.tx
	discard := false
	defer func() { s.release(discard) }()

	if failure != nil {
		if err := tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("exception thrown while attempting to close a transaction", "error", err)
			discard = true
			return fmt.Errorf("rollback: %w", err)
		}
		s.log.Debug("transaction rolled back", "cause", failure.Error())
		return nil
	}

	if err := tx.Commit().Error; err != nil {
		s.log.Error("exception thrown while attempting to close a transaction", "error", err)
		if rbErr := s.rollbackPinned(); rbErr != nil {
			discard = true
			return fmt.Errorf("rollback: %w", rbErr)
		}
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("transaction committed")
	return nil
}

// rollbackPinned issues ROLLBACK directly on the pinned connection. database/sql
// considers the transaction finished once Commit returns, but some drivers
// leave it open when COMMIT fails.
func (s *Session) rollbackPinned() error {
	_, err := s.conn.ExecContext(context.Background(), "ROLLBACK")
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "no transaction") {
		return nil
	}
	return err
}

// release returns the pinned connection to the pool. A discarded connection is
// closed instead, so its unknown transaction state never reaches another request.
func (s *Session) release(discard bool) {
	conn := s.conn
	s.conn, s.tx = nil, nil
	if discard {
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		s.log.Warn("release connection", "error", err)
	}
}
