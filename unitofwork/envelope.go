// Package unitofwork wraps request dispatch in validation and a single
// database transaction.
//
// A request that fails validation never touches the store. Otherwise the
// transaction commits when the handler returns normally and rolls back when
// it returns an error or panics; the handler's error or panic reaches the
// caller unchanged. When the session already has an open transaction the
// request joins it, and the outermost call decides the outcome.
package unitofwork

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contact-list/db"
	"contact-list/mediator"
	"contact-list/metrics"
)

// Envelope runs requests against a registry. It holds no per-request state
// and is safe for concurrent use; sessions are not.
type Envelope struct {
	registry *mediator.Registry
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New returns an envelope over registry. m may be nil.
func New(registry *mediator.Registry, log *slog.Logger, m *metrics.Metrics) *Envelope {
	return &Envelope{registry: registry, log: log, metrics: m}
}

// Send validates req and dispatches it to its handler inside a transaction
// on s. A validation failure is returned as validation.Errors.
func Send[Req, Resp any](ctx context.Context, e *Envelope, s *db.Session, req Req) (Resp, error) {
	start := time.Now()
	name := mediator.Name[Req]()

	var resp Resp
	if err := mediator.Validate(e.registry, req); err != nil {
		e.metrics.ObserveRequest(name, metrics.OutcomeValidationFailed, time.Since(start))
		return resp, err
	}

	err := e.run(ctx, s, name, start, func(ctx context.Context) error {
		var err error
		resp, err = mediator.Dispatch[Req, Resp](ctx, e.registry, s, req)
		return err
	})
	return resp, err
}

// Transaction runs fn inside a transaction on s without dispatching a request.
func (e *Envelope) Transaction(ctx context.Context, s *db.Session, fn func(ctx context.Context) error) error {
	return e.run(ctx, s, "Transaction", time.Now(), fn)
}

func (e *Envelope) run(ctx context.Context, s *db.Session, name string, start time.Time, fn func(ctx context.Context) error) error {
	if s.InTransaction() {
		return fn(ctx)
	}

	if err := s.BeginTransaction(ctx); err != nil {
		e.metrics.ObserveRequest(name, metrics.OutcomeBeginFailed, time.Since(start))
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if err := s.CloseTransaction(fmt.Errorf("panic: %v", p)); err != nil {
				e.log.Error("rollback after panic failed", "request", name, "error", err)
			}
			e.metrics.ObserveRequest(name, metrics.OutcomeRolledBack, time.Since(start))
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if closeErr := s.CloseTransaction(err); closeErr != nil {
			e.log.Error("rollback failed", "request", name, "error", closeErr)
		}
		e.metrics.ObserveRequest(name, metrics.OutcomeRolledBack, time.Since(start))
		return err
	}

	if err := s.CloseTransaction(nil); err != nil {
		e.metrics.ObserveRequest(name, metrics.OutcomeCommitFailed, time.Since(start))
		return err
	}
	e.metrics.ObserveRequest(name, metrics.OutcomeCommitted, time.Since(start))
	e.log.Debug("request committed", "request", name, "elapsed", time.Since(start))
	return nil
}
