package table

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerverse/card"
	"pokerverse/holdem"
	"pokerverse/internal/codec"
)

// Heads-up deal order is A, B, A, B; A holds aces, B kings.
const headsUpDeck = "As Kd Ah Kh 2c 7d 9s Jc 3h"

type fakeSub struct {
	id   string
	name string

	mu     sync.Mutex
	msgs   [][]byte
	full   bool
	closed bool
}

func newSub(id, name string) *fakeSub {
	return &fakeSub{id: id, name: name}
}

func (s *fakeSub) ID() string       { return s.id }
func (s *fakeSub) Username() string { return s.name }

func (s *fakeSub) Send(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full || s.closed {
		return false
	}
	s.msgs = append(s.msgs, data)
	return true
}

func (s *fakeSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *fakeSub) last(t *testing.T) codec.Envelope {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.msgs, "%s received nothing", s.name)
	env, err := codec.DecodeEnvelope(s.msgs[len(s.msgs)-1])
	require.NoError(t, err)
	return env
}

type memSink struct {
	mu      sync.Mutex
	saved   map[string][]byte
	removed map[string]bool
}

func (m *memSink) Save(_ context.Context, roomID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[roomID] = data
	return nil
}

func (m *memSink) Remove(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, roomID)
	m.removed[roomID] = true
	return nil
}

func stackedDeck(prefix string) func() *card.Deck {
	head := card.MustParse(prefix)
	used := make(map[card.Card]bool, len(head))
	for _, c := range head {
		used[c] = true
	}
	cards := append([]card.Card(nil), head...)
	for _, c := range card.All {
		if !used[c] {
			cards = append(cards, c)
		}
	}
	return func() *card.Deck { return card.NewStackedDeck(cards) }
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TurnTimeout = 0
	cfg.ShowdownDelay = 0
	cfg.SeatRelease = 0
	cfg.NewDeck = stackedDeck(headsUpDeck)
	return cfg
}

func newTestTable(t *testing.T, cfg Config, opts ...Option) *Table {
	t.Helper()
	tbl, err := New("abc", cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)
	return tbl
}

func seatTwo(t *testing.T, tbl *Table) (*fakeSub, *fakeSub) {
	t.Helper()
	a, b := newSub("a1", "A"), newSub("b1", "B")
	require.NoError(t, tbl.Join(a))
	require.NoError(t, tbl.Join(b))
	return a, b
}

func findPlayer(v holdem.StateView, name string) (holdem.PlayerView, bool) {
	for _, p := range v.Players {
		if p.Username == name {
			return p, true
		}
	}
	return holdem.PlayerView{}, false
}

func TestTable_RaiseCallBroadcastsFlop(t *testing.T) {
	tbl := newTestTable(t, testConfig())
	a, b := seatTwo(t, tbl)

	require.NoError(t, tbl.StartHand())
	require.NoError(t, tbl.Act("A", holdem.ActionRaise, 60))
	require.NoError(t, tbl.Act("B", holdem.ActionCall, 0))

	env := b.last(t)
	assert.Equal(t, codec.TypeState, env.Type)
	require.NotNil(t, env.State)
	assert.Equal(t, "flop", env.State.Street)
	assert.Equal(t, int64(120), env.State.Pot)
	assert.Len(t, env.State.CommunityCards, 3)
	for _, p := range env.State.Players {
		if p.Username == "B" {
			assert.Len(t, p.Hand, 2)
			assert.True(t, p.IsTurn)
		} else {
			assert.Empty(t, p.Hand, "opponent cards are hidden")
		}
	}

	envA := a.last(t)
	require.NotNil(t, envA.State)
	assert.Equal(t, []codec.Card{{Rank: "A", Suit: "Spades"}, {Rank: "A", Suit: "Hearts"}}, envA.State.Players[0].Hand)
}

func TestTable_RejectedActionIsNotBroadcast(t *testing.T) {
	tbl := newTestTable(t, testConfig())
	a, b := seatTwo(t, tbl)
	require.NoError(t, tbl.StartHand())

	na, nb := a.count(), b.count()
	err := tbl.Act("B", holdem.ActionCall, 0)
	assert.ErrorIs(t, err, holdem.ErrNotYourTurn)
	err = tbl.Act("A", holdem.ActionRaise, 25)
	assert.ErrorIs(t, err, holdem.ErrInvalidAction)

	assert.Equal(t, na, a.count())
	assert.Equal(t, nb, b.count())
}

func TestTable_FatalLeaveFreezesRoomForEveryone(t *testing.T) {
	cfg := testConfig()
	// hole cards only: closing preflop cannot deal the flop
	cfg.NewDeck = func() *card.Deck { return card.NewStackedDeck(card.MustParse("As Kd Qh Ah Kh Qd")) }
	tbl := newTestTable(t, cfg)
	a, b := seatTwo(t, tbl)
	c := newSub("c1", "C")
	require.NoError(t, tbl.Join(c))

	require.NoError(t, tbl.StartHand())
	require.NoError(t, tbl.Act("A", holdem.ActionCall, 0))
	require.NoError(t, tbl.Act("B", holdem.ActionCall, 0))

	// C is the big blind on turn; leaving folds and closes the street
	err := tbl.Leave("C")
	var fe *holdem.FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, holdem.KindFatal, holdem.KindOf(err))

	for _, sub := range []*fakeSub{a, b} {
		env := sub.last(t)
		require.NotNil(t, env.State, sub.name)
		assert.True(t, env.State.Frozen, "%s sees the frozen room", sub.name)
		assert.Equal(t, "waiting", env.State.Street)
		for _, p := range env.State.Players {
			assert.Equal(t, int64(1000), p.Chips, "stacks restored for %s", p.Username)
		}
	}
	require.Eventually(t, c.isClosed, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, tbl.StartHand(), holdem.ErrRoomFrozen)
}

func TestTable_TurnTimeoutFolds(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 20 * time.Millisecond
	ended := make(chan HandEndInfo, 1)
	tbl := newTestTable(t, cfg, WithHandEndHook(func(info HandEndInfo) { ended <- info }))
	seatTwo(t, tbl)

	require.NoError(t, tbl.StartHand())

	select {
	case info := <-ended:
		assert.Equal(t, "abc", info.RoomID)
		assert.Equal(t, 1, info.HandNumber)
		require.NotNil(t, info.Result)
		assert.Equal(t, []string{"B"}, info.Result.Winners())
	case <-time.After(2 * time.Second):
		t.Fatal("hand did not end on timeout")
	}

	require.Eventually(t, func() bool {
		return tbl.View("").Street == holdem.StreetWaiting
	}, time.Second, 5*time.Millisecond)
	v := tbl.View("")
	pa, _ := findPlayer(v, "A")
	pb, _ := findPlayer(v, "B")
	assert.Equal(t, int64(990), pa.Chips)
	assert.Equal(t, int64(1010), pb.Chips)
}

func TestTable_StaleTimeoutIgnored(t *testing.T) {
	tbl := newTestTable(t, testConfig())
	seatTwo(t, tbl)
	require.NoError(t, tbl.StartHand())

	require.NoError(t, tbl.SubmitEvent(Event{Type: EventTimeout, Seq: 12345}))

	v := tbl.View("")
	assert.Equal(t, holdem.StreetPreflop, v.Street)
	pa, _ := findPlayer(v, "A")
	assert.Equal(t, holdem.StatusActive, pa.Status)
	assert.True(t, pa.IsTurn)
}

func TestTable_DisconnectOnTurnActsAtOnce(t *testing.T) {
	tbl := newTestTable(t, testConfig())
	_, b := seatTwo(t, tbl)
	require.NoError(t, tbl.StartHand())

	require.NoError(t, tbl.Disconnect("a1", "A"))

	require.Eventually(t, func() bool {
		v := tbl.View("")
		return v.HandNumber == 1 && v.Street == holdem.StreetWaiting
	}, 2*time.Second, 5*time.Millisecond)

	pa, ok := findPlayer(tbl.View(""), "A")
	require.True(t, ok, "away players keep their seat")
	assert.True(t, pa.Away)
	assert.Equal(t, holdem.StatusSittingOut, pa.Status)
	assert.Equal(t, codec.TypeState, b.last(t).Type)

	// reconnecting clears the away flag and resends the state
	a2 := newSub("a2", "A")
	require.NoError(t, tbl.Join(a2))
	pa, _ = findPlayer(tbl.View(""), "A")
	assert.False(t, pa.Away)
	assert.Equal(t, codec.TypeState, a2.last(t).Type)
}

func TestTable_ReconnectReplacesConnection(t *testing.T) {
	tbl := newTestTable(t, testConfig())
	a, _ := seatTwo(t, tbl)

	a2 := newSub("a2", "A")
	require.NoError(t, tbl.Reconnect(a2))
	assert.Eventually(t, a.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, tbl.Info().Watchers)

	err := tbl.Reconnect(newSub("z1", "Z"))
	assert.ErrorIs(t, err, holdem.ErrNotSeated)
}

func TestTable_SlowSubscriberDropped(t *testing.T) {
	tbl := newTestTable(t, testConfig())
	a, b := seatTwo(t, tbl)

	slow := &fakeSub{id: "c1", name: "C", full: true}
	require.NoError(t, tbl.Subscribe(slow))
	assert.Eventually(t, slow.isClosed, time.Second, 5*time.Millisecond)

	require.NoError(t, tbl.StartHand())
	assert.Equal(t, 2, tbl.Info().Watchers)
	assert.False(t, a.isClosed())
	assert.False(t, b.isClosed())
}

func TestTable_Chat(t *testing.T) {
	tbl := newTestTable(t, testConfig())
	a, b := seatTwo(t, tbl)

	require.NoError(t, tbl.Chat("A", "gl hf"))
	for _, s := range []*fakeSub{a, b} {
		env := s.last(t)
		assert.Equal(t, codec.TypeChat, env.Type)
		assert.Equal(t, "A", env.Username)
		assert.Equal(t, "gl hf", env.Message)
	}

	assert.ErrorIs(t, tbl.Chat("Z", "hello"), holdem.ErrNotSeated)
}

func TestTable_ShowdownHeldUntilNextStart(t *testing.T) {
	cfg := testConfig()
	cfg.ShowdownDelay = time.Hour
	tbl := newTestTable(t, cfg)
	_, b := seatTwo(t, tbl)

	require.NoError(t, tbl.StartHand())
	require.NoError(t, tbl.Act("A", holdem.ActionFold, 0))

	env := b.last(t)
	assert.Equal(t, codec.TypeShowdown, env.Type)
	require.NotNil(t, env.Results)
	assert.Equal(t, []string{"B"}, env.Results.Winners)
	assert.Equal(t, holdem.StreetShowdown, tbl.View("").Street)

	assert.ErrorIs(t, tbl.Act("B", holdem.ActionCheck, 0), holdem.ErrNotYourTurn)

	require.NoError(t, tbl.StartHand())
	v := tbl.View("")
	assert.Equal(t, 2, v.HandNumber)
	assert.Equal(t, holdem.StreetPreflop, v.Street)
}

func TestTable_SeatReleasedAfterAway(t *testing.T) {
	cfg := testConfig()
	cfg.SeatRelease = 10 * time.Millisecond
	tbl := newTestTable(t, cfg)
	seatTwo(t, tbl)

	require.NoError(t, tbl.Disconnect("b1", "B"))
	require.Eventually(t, func() bool {
		_, ok := findPlayer(tbl.View(""), "B")
		return !ok
	}, 3*time.Second, 20*time.Millisecond)

	assert.ErrorIs(t, tbl.StartHand(), holdem.ErrNotEnoughPlayers)
}

func TestTable_IdleRoomCloses(t *testing.T) {
	idle := make(chan string, 4)
	tbl := newTestTable(t, testConfig(), WithIdleCallback(func(id string) { idle <- id }))

	a := newSub("a1", "A")
	require.NoError(t, tbl.Join(a))
	assert.False(t, tbl.CloseIfIdle())

	require.NoError(t, tbl.Leave("A"))
	select {
	case id := <-idle:
		assert.Equal(t, "abc", id)
	case <-time.After(time.Second):
		t.Fatal("idle callback not called")
	}
	assert.Eventually(t, a.isClosed, time.Second, 5*time.Millisecond)

	assert.True(t, tbl.CloseIfIdle())
	assert.True(t, tbl.IsClosed())

	err := tbl.Join(newSub("b1", "B"))
	assert.ErrorIs(t, err, ErrTableClosed)
	assert.Equal(t, holdem.KindState, holdem.KindOf(err))
	assert.Equal(t, "room_not_found", codec.ErrorCode(err))
}

func TestTable_SnapshotSink(t *testing.T) {
	sink := &memSink{saved: map[string][]byte{}, removed: map[string]bool{}}
	tbl, err := New("abc", testConfig(), WithSnapshotSink(sink))
	require.NoError(t, err)
	seatTwo(t, tbl)

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		data, ok := sink.saved["abc"]
		if !ok {
			return false
		}
		env, err := codec.DecodeEnvelope(data)
		return err == nil && env.State != nil && len(env.State.Players) == 2
	}, time.Second, 5*time.Millisecond)

	tbl.Stop()
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.removed["abc"]
	}, time.Second, 5*time.Millisecond)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 1
	_, err := New("bad", cfg)
	assert.Error(t, err)
}
