package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_RunsMigrations(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{
		"player_ratings",
		"rating_history",
		"queue_entries",
		"duels",
		"duel_submissions",
		"challenges",
	} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "querying for %s table should not produce an error", table)
		assert.Equal(t, table, name)
	}
}

func TestInitDB_IdempotentMigrations(t *testing.T) {
	db, teardown, err := InitDB("file::memory:?cache=shared", "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()

	// Running migrations a second time against the same schema must be a no-op.
	require.NoError(t, migrate(db, "../../migrations"))
}
