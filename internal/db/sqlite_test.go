package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.db")

	conn, err := OpenSQLite(path)
	require.NoError(t, err)
	defer conn.Close()

	var version int
	require.NoError(t, conn.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	for _, table := range []string{"users", "messages", "calls"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestOpenSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpenSQLite_ActivePairIndex(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`INSERT INTO users (id, name, email, created_at) VALUES ('a', 'A', 'a@x', 0), ('b', 'B', 'b@x', 0)`)
	require.NoError(t, err)

	insert := `INSERT INTO calls (id, caller_id, receiver_id, status, pair_key, created_at, updated_at)
		VALUES (?, 'a', 'b', ?, 'a:b', 0, 0)`

	_, err = conn.Exec(insert, "c1", "initiated")
	require.NoError(t, err)

	_, err = conn.Exec(insert, "c2", "initiated")
	assert.Error(t, err, "second active call for the pair must be refused")

	_, err = conn.Exec(insert, "c3", "completed")
	assert.NoError(t, err, "terminal calls do not occupy the pair")
}
