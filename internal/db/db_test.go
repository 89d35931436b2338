package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	defer conn.Close()

	for _, table := range []string{"users", "notes", "checklist_items", "note_files"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", "", "", "", "")
	assert.Error(t, err)
}
