package lobby

import (
	"errors"
	"sort"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/rs/zerolog/log"

	"pokerverse/holdem"
	"pokerverse/internal/logging"
	"pokerverse/internal/metrics"
	"pokerverse/internal/table"
)

var logger = log.With().Str("logger_name", "lobby::registry").Logger()

// joinAttempts bounds retries when a join races the eviction of its room.
const joinAttempts = 3

// Lobby maps room IDs to live tables. The first join creates a room; a
// room is evicted once nobody is seated or watching.
type Lobby struct {
	rooms cmap.ConcurrentMap
	cfg   table.Config
	opts  []table.Option
}

// New creates a lobby whose tables use cfg and opts.
func New(cfg table.Config, opts ...table.Option) *Lobby {
	l := &Lobby{
		rooms: cmap.New(),
		cfg:   cfg,
	}
	l.opts = append(append([]table.Option(nil), opts...), table.WithIdleCallback(func(id string) { l.Release(id) }))
	return l
}

// GetOrCreate returns the live table for roomID, creating it when absent.
// At most one table is created per room ID.
func (l *Lobby) GetOrCreate(roomID string) (*table.Table, error) {
	var createErr error
	created := false
	v := l.rooms.Upsert(roomID, nil, func(exist bool, inMap interface{}, _ interface{}) interface{} {
		if exist {
			if t, ok := inMap.(*table.Table); ok && !t.IsClosed() {
				return t
			}
		}
		t, err := table.New(roomID, l.cfg, l.opts...)
		if err != nil {
			createErr = err
			return nil
		}
		created = true
		return t
	})
	if createErr != nil {
		l.rooms.RemoveCb(roomID, func(_ string, v interface{}, exists bool) bool {
			return exists && v == nil
		})
		return nil, createErr
	}
	if created {
		metrics.Metrics.SetRoomsActive(l.rooms.Count())
		logger.Info().Str(logging.RoomKey, roomID).Msg("Room created")
	}
	return v.(*table.Table), nil
}

// Get returns an existing live table.
func (l *Lobby) Get(roomID string) (*table.Table, error) {
	v, ok := l.rooms.Get(roomID)
	if !ok {
		return nil, holdem.ErrRoomNotFound
	}
	t, ok := v.(*table.Table)
	if !ok || t.IsClosed() {
		return nil, holdem.ErrRoomNotFound
	}
	return t, nil
}

// Join seats sub in roomID, creating the room if needed. A room closed
// between lookup and join is recreated.
func (l *Lobby) Join(roomID string, sub table.Subscriber) (*table.Table, error) {
	var lastErr error
	for i := 0; i < joinAttempts; i++ {
		t, err := l.GetOrCreate(roomID)
		if err != nil {
			return nil, err
		}
		err = t.Join(sub)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, table.ErrTableClosed) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Release evicts roomID if its table is idle, stopping the table in the
// same step. It reports whether the room was removed.
func (l *Lobby) Release(roomID string) bool {
	removed := l.rooms.RemoveCb(roomID, func(_ string, v interface{}, exists bool) bool {
		if !exists {
			return false
		}
		t, ok := v.(*table.Table)
		return !ok || t.CloseIfIdle()
	})
	if removed {
		metrics.Metrics.SetRoomsActive(l.rooms.Count())
		logger.Info().Str(logging.RoomKey, roomID).Msg("Room released")
	}
	return removed
}

func (l *Lobby) Count() int {
	return l.rooms.Count()
}

// Rooms lists live rooms ordered by ID.
func (l *Lobby) Rooms() []table.Info {
	out := make([]table.Info, 0, l.rooms.Count())
	l.rooms.IterCb(func(_ string, v interface{}) {
		if t, ok := v.(*table.Table); ok && !t.IsClosed() {
			out = append(out, t.Info())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown stops every table.
func (l *Lobby) Shutdown() {
	for _, key := range l.rooms.Keys() {
		if v, ok := l.rooms.Pop(key); ok {
			if t, ok := v.(*table.Table); ok {
				t.Stop()
			}
		}
	}
	metrics.Metrics.SetRoomsActive(0)
}
