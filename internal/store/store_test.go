package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MemoryHasNoDatabase(t *testing.T) {
	db, err := Open(DriverMemory, "")
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x")
	assert.Error(t, err)
}

func TestOpen_SQLiteAppliesSchema(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{"accounts", "hand_players", "hands", "leaderboard"}, tables)

	_, err = db.Exec(`INSERT INTO accounts (username, password_hash, created_at_ms) VALUES ('alice', 'x', 1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO accounts (username, password_hash, created_at_ms) VALUES ('ALICE', 'x', 1)`)
	assert.True(t, IsUniqueViolation(err))
}
