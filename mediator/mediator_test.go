package mediator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-list/db"
)

type ping struct{ N int }
type pong struct{ N int }
type unregistered struct{}

func TestDispatch_InvokesRegisteredHandler(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, Register(r, func(ctx context.Context, s *db.Session, req ping) (pong, error) {
		return pong{N: req.N + 1}, nil
	}))

	got, err := Dispatch[ping, pong](context.Background(), r, nil, ping{N: 41})
	require.NoError(t, err)
	assert.Equal(t, pong{N: 42}, got)
}

func TestDispatch_PropagatesHandlerError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, Register(r, func(ctx context.Context, s *db.Session, req ping) (Unit, error) {
		return Unit{}, boom
	}))

	_, err := Dispatch[ping, Unit](context.Background(), r, nil, ping{})
	assert.Same(t, boom, err)
}

func TestRegister_DuplicateIsError(t *testing.T) {
	r := NewRegistry()
	h := func(ctx context.Context, s *db.Session, req ping) (pong, error) { return pong{}, nil }
	require.NoError(t, Register(r, h))

	err := Register(r, h)
	assert.ErrorIs(t, err, ErrDuplicateHandler)
}

func TestDispatch_MissingHandlerPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		_, _ = Dispatch[unregistered, Unit](context.Background(), r, nil, unregistered{})
	})
}

func TestDispatch_WrongResponseTypePanics(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, Register(r, func(ctx context.Context, s *db.Session, req ping) (pong, error) {
		return pong{}, nil
	}))
	assert.Panics(t, func() {
		_, _ = Dispatch[ping, Unit](context.Background(), r, nil, ping{})
	})
}

func TestValidate(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, Validate(r, ping{}), "no validator means valid")

	invalid := errors.New("N must be positive")
	require.NoError(t, RegisterValidator(r, func(p ping) error {
		if p.N <= 0 {
			return invalid
		}
		return nil
	}))
	assert.Same(t, invalid, Validate(r, ping{}))
	assert.NoError(t, Validate(r, ping{N: 1}))

	assert.ErrorIs(t, RegisterValidator(r, func(ping) error { return nil }), ErrDuplicateHandler)
}

func TestRequire(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, Register(r, func(ctx context.Context, s *db.Session, req ping) (pong, error) {
		return pong{}, nil
	}))

	assert.NoError(t, r.Require(reflect.TypeFor[ping]()))

	err := r.Require(reflect.TypeFor[ping](), reflect.TypeFor[unregistered]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered")
}

func TestName(t *testing.T) {
	assert.Equal(t, "ping", Name[ping]())
	assert.Equal(t, "*mediator.ping", Name[*ping]())
}
