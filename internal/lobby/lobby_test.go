package lobby

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerverse/holdem"
	"pokerverse/internal/table"
)

type stubSub struct {
	id, name string
}

func (s stubSub) ID() string         { return s.id }
func (s stubSub) Username() string   { return s.name }
func (s stubSub) Send(_ []byte) bool { return true }
func (s stubSub) Close()             {}

func testConfig() table.Config {
	cfg := table.DefaultConfig()
	cfg.TurnTimeout = 0
	cfg.SeatRelease = 0
	cfg.ShowdownDelay = 0
	return cfg
}

func TestGetOrCreate_OneTablePerRoom(t *testing.T) {
	l := New(testConfig())
	defer l.Shutdown()

	const n = 32
	got := make([]*table.Table, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := l.GetOrCreate("abc")
			assert.NoError(t, err)
			got[i] = tbl
		}(i)
	}
	wg.Wait()

	for _, tbl := range got {
		assert.Same(t, got[0], tbl)
	}
	assert.Equal(t, 1, l.Count())
}

func TestGet_UnknownRoom(t *testing.T) {
	l := New(testConfig())
	_, err := l.Get("nope")
	assert.ErrorIs(t, err, holdem.ErrRoomNotFound)
}

func TestGetOrCreate_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 0
	l := New(cfg)
	_, err := l.GetOrCreate("abc")
	assert.Error(t, err)
	assert.Equal(t, 0, l.Count())
}

func TestJoin_ThenLeaveEvictsRoom(t *testing.T) {
	l := New(testConfig())
	defer l.Shutdown()

	tbl, err := l.Join("abc", stubSub{id: "c1", name: "A"})
	require.NoError(t, err)
	_, err = l.Join("abc", stubSub{id: "c2", name: "B"})
	require.NoError(t, err)

	rooms := l.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "abc", rooms[0].ID)
	assert.Equal(t, 2, rooms[0].Players)

	assert.False(t, l.Release("abc"), "occupied rooms stay")

	require.NoError(t, tbl.Leave("A"))
	require.NoError(t, tbl.Leave("B"))

	require.Eventually(t, func() bool { return l.Count() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, tbl.IsClosed())

	_, err = l.Get("abc")
	assert.ErrorIs(t, err, holdem.ErrRoomNotFound)
	err = tbl.Act("A", holdem.ActionCheck, 0)
	assert.ErrorIs(t, err, table.ErrTableClosed)

	// a fresh join recreates the room
	tbl2, err := l.Join("abc", stubSub{id: "c3", name: "A"})
	require.NoError(t, err)
	assert.NotSame(t, tbl, tbl2)
}

func TestJoin_SameUserTwiceResumes(t *testing.T) {
	l := New(testConfig())
	defer l.Shutdown()

	_, err := l.Join("abc", stubSub{id: "c1", name: "A"})
	require.NoError(t, err)
	tbl, err := l.Join("abc", stubSub{id: "c2", name: "A"})
	require.NoError(t, err)
	assert.Len(t, tbl.View("").Players, 1)
}

func TestJoin_RoomFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 2
	l := New(cfg)
	defer l.Shutdown()

	for i, name := range []string{"A", "B"} {
		_, err := l.Join("abc", stubSub{id: string(rune('a' + i)), name: name})
		require.NoError(t, err)
	}
	_, err := l.Join("abc", stubSub{id: "z", name: "C"})
	assert.ErrorIs(t, err, holdem.ErrRoomFull)
}
