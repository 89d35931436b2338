package users

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahsanfayaz52/notesservice/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn)
}

func TestCreateAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, " Alice@Example.com ", "alice", "hash")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice@example.com", created.Email)

	byEmail, err := s.ByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "alice", byEmail.Nickname)

	_, err = s.ByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "bob@example.com", "bob", "hash")
	require.NoError(t, err)

	_, err = s.Create(ctx, "bob@example.com", "bobby", "hash")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.Create(ctx, "other@example.com", "bob", "hash")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestLookupMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
