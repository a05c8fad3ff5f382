package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-list/db"
	"contact-list/logging"
	"contact-list/model"
)

func newContacts(t *testing.T) *Contacts {
	t.Helper()
	gdb, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "contacts.db")))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewContacts(db.NewSession(gdb, sql.LevelDefault, logging.Discard()))
}

func TestContacts_InsertFind(t *testing.T) {
	s := newContacts(t)
	ctx := context.Background()

	c := &model.Contact{Name: "John Smith", Email: "john@example.com", PhoneNumber: "555-123-9999"}
	id, err := s.Insert(ctx, c)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.Contact{ID: id, Name: "John Smith", Email: "john@example.com", PhoneNumber: "555-123-9999"}, *got)
}

func TestContacts_FindMissing(t *testing.T) {
	s := newContacts(t)

	_, err := s.Find(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Find(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContacts_UpdateOverwritesFields(t *testing.T) {
	s := newContacts(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, &model.Contact{Name: "John Smith", Email: "jsmith@example.com", PhoneNumber: "555-123-0001"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, &model.Contact{ID: id, Name: "Patrick Jones", Email: "pjones@example.com"}))

	got, err := s.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Patrick Jones", got.Name)
	assert.Equal(t, "pjones@example.com", got.Email)
	assert.Empty(t, got.PhoneNumber)
}

func TestContacts_UpdateErrors(t *testing.T) {
	s := newContacts(t)
	ctx := context.Background()

	assert.Error(t, s.Update(ctx, &model.Contact{Name: "No Id"}))
	assert.ErrorIs(t, s.Update(ctx, &model.Contact{ID: uuid.NewString(), Name: "Ghost"}), ErrNotFound)
}

func TestContacts_Remove(t *testing.T) {
	s := newContacts(t)
	ctx := context.Background()

	keep, err := s.Insert(ctx, &model.Contact{Name: "Another Contact", Email: "another.contact@example.com"})
	require.NoError(t, err)
	gone, err := s.Insert(ctx, &model.Contact{Name: "John Smith", Email: "jsmith@example.com"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, &model.Contact{ID: gone}))

	_, err = s.Find(ctx, gone)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Find(ctx, keep)
	assert.NoError(t, err)

	assert.ErrorIs(t, s.Remove(ctx, &model.Contact{ID: gone}), ErrNotFound)
}

func TestContacts_ListAndCount(t *testing.T) {
	s := newContacts(t)
	ctx := context.Background()

	for _, name := range []string{"Ben", "Cathy", "Abe"} {
		_, err := s.Insert(ctx, &model.Contact{Name: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
