package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pokerverse/card"
	"pokerverse/holdem"
	"pokerverse/internal/logging"
)

var logger = log.With().Str("logger_name", "table::actor").Logger()

// Table is one room: a holdem.Game driven by a single actor goroutine.
// Every mutation goes through the event channel, so actions for a room
// apply in arrival order.
type Table struct {
	ID     string
	Config Config

	mu       sync.RWMutex
	game     *holdem.Game
	subs     map[string]Subscriber // connID -> subscriber
	closed   bool
	stopOnce sync.Once

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	// turn timer; turnSeq identifies the turn a timer was armed for
	turnSeq   uint64
	turnKey   turnKey
	step      uint64
	turnTimer *time.Timer

	settledHand int
	finishTimer *time.Timer
	awaySince   map[string]time.Time

	handEndHooks []HandEndHook
	snapshots    SnapshotSink
	snapCh       chan []byte
	onIdle       func(roomID string)

	log zerolog.Logger
}

// Config contains table settings.
type Config struct {
	MaxPlayers    int
	SmallBlind    int64
	StartingChips int64
	// TurnTimeout is how long a player may think (0 disables the timer).
	TurnTimeout time.Duration
	// ShowdownDelay keeps a settled hand on display before the room returns to waiting.
	ShowdownDelay time.Duration
	// SeatRelease frees the seat of a player away for this long.
	SeatRelease time.Duration
	// NewDeck overrides the shuffled deck; tests only.
	NewDeck func() *card.Deck
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:    9,
		SmallBlind:    10,
		StartingChips: 1000,
		TurnTimeout:   30 * time.Second,
		ShowdownDelay: 3 * time.Second,
		SeatRelease:   60 * time.Second,
	}
}

// Subscriber receives the room's broadcasts. Send must not block: it
// returns false when the message could not be queued.
type Subscriber interface {
	ID() string
	Username() string
	Send(data []byte) bool
	Close()
}

// SnapshotSink stores the latest public state of a room.
type SnapshotSink interface {
	Save(ctx context.Context, roomID string, data []byte) error
	Remove(ctx context.Context, roomID string) error
}

// Event types for the actor message queue
type EventType int

const (
	EventJoin EventType = iota
	EventReconnect
	EventSubscribe
	EventUnsubscribe
	EventLeave
	EventDisconnect
	EventStartHand
	EventAction
	EventChat
	EventTimeout
	EventFinishHand
	EventClose
)

var eventNames = map[EventType]string{
	EventJoin:        "join",
	EventReconnect:   "reconnect",
	EventSubscribe:   "subscribe",
	EventUnsubscribe: "unsubscribe",
	EventLeave:       "leave",
	EventDisconnect:  "disconnect",
	EventStartHand:   "start_hand",
	EventAction:      "action",
	EventChat:        "chat",
	EventTimeout:     "timeout",
	EventFinishHand:  "finish_hand",
	EventClose:       "close",
}

func (e EventType) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Event represents a message to the table actor
type Event struct {
	Type       EventType
	Username   string
	ConnID     string
	Subscriber Subscriber
	Action     holdem.Action
	Amount     int64
	Message    string
	Seq        uint64
	Timestamp  time.Time
	Response   chan error
}

// HandEndInfo is emitted when a hand is settled.
type HandEndInfo struct {
	RoomID     string
	HandNumber int
	PlayedAt   time.Time
	Result     *holdem.Result
}

// HandEndHook is a post-settlement callback. Hooks run off the actor.
type HandEndHook func(info HandEndInfo)

type Option func(*Table)

func WithHandEndHook(h HandEndHook) Option {
	return func(t *Table) { t.handEndHooks = append(t.handEndHooks, h) }
}

func WithSnapshotSink(s SnapshotSink) Option {
	return func(t *Table) { t.snapshots = s }
}

// WithIdleCallback is called (in its own goroutine) when the room has no
// players, no subscribers and no hand in progress.
func WithIdleCallback(fn func(roomID string)) Option {
	return func(t *Table) { t.onIdle = fn }
}

// ErrTableClosed is returned for events sent to a stopped table.
var ErrTableClosed = &holdem.Error{
	Kind: holdem.KindState,
	Code: holdem.ErrRoomNotFound.Code,
	Err:  errors.New("table closed"),
}

const housekeepingInterval = time.Second

// New creates a table and starts its actor.
func New(id string, cfg Config, opts ...Option) (*Table, error) {
	game, err := holdem.NewGame(id, holdem.Config{
		MaxPlayers: cfg.MaxPlayers,
		MinPlayers: 2,
		SmallBlind: cfg.SmallBlind,
		NewDeck:    cfg.NewDeck,
	})
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", id, err)
	}

	t := &Table{
		ID:        id,
		Config:    cfg,
		game:      game,
		subs:      make(map[string]Subscriber),
		events:    make(chan Event, 256),
		done:      make(chan struct{}),
		awaySince: make(map[string]time.Time),
		log:       logger.With().Str(logging.RoomKey, id).Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.snapshots != nil {
		t.snapCh = make(chan []byte, 1)
		go t.snapshotLoop()
	}

	go t.run()

	t.log.Info().Int("max", cfg.MaxPlayers).Int64("sb", cfg.SmallBlind).Msg("Created")
	return t, nil
}

// run is the main actor loop
func (t *Table) run() {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			t.log.Info().Msg("Actor stopped")
			return
		}
	}
}

func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventJoin:
		return t.handleJoin(e.Subscriber, false)
	case EventReconnect:
		return t.handleJoin(e.Subscriber, true)
	case EventSubscribe:
		return t.handleSubscribe(e.Subscriber)
	case EventUnsubscribe:
		delete(t.subs, e.ConnID)
		t.checkIdleLocked()
		return nil
	case EventLeave:
		return t.handleLeave(e.Username)
	case EventDisconnect:
		return t.handleDisconnect(e.ConnID, e.Username, e.Timestamp)
	case EventStartHand:
		return t.handleStartHand()
	case EventAction:
		return t.handleAction(e.Username, e.Action, e.Amount)
	case EventChat:
		return t.handleChat(e.Username, e.Message)
	case EventTimeout:
		return t.handleTimeout(e.Seq)
	case EventFinishHand:
		if int(e.Seq) == t.settledHand && t.game.Street() == holdem.StreetShowdown {
			t.finishHandLocked()
		}
		return nil
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

// SubmitEvent queues e and waits for the actor's answer.
func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Join seats sub's user with the starting stack and subscribes the
// connection. A user who is already seated is reconnected instead.
func (t *Table) Join(sub Subscriber) error {
	return t.SubmitEvent(Event{Type: EventJoin, Subscriber: sub, Username: sub.Username()})
}

// Reconnect resumes a seated user on a new connection.
func (t *Table) Reconnect(sub Subscriber) error {
	return t.SubmitEvent(Event{Type: EventReconnect, Subscriber: sub, Username: sub.Username()})
}

// Subscribe adds a spectator connection.
func (t *Table) Subscribe(sub Subscriber) error {
	return t.SubmitEvent(Event{Type: EventSubscribe, Subscriber: sub, Username: sub.Username()})
}

func (t *Table) Unsubscribe(connID string) error {
	return t.SubmitEvent(Event{Type: EventUnsubscribe, ConnID: connID})
}

func (t *Table) Leave(username string) error {
	return t.SubmitEvent(Event{Type: EventLeave, Username: username})
}

// Disconnect drops a connection; its user is marked away when it was
// their last one.
func (t *Table) Disconnect(connID, username string) error {
	return t.SubmitEvent(Event{Type: EventDisconnect, ConnID: connID, Username: username})
}

func (t *Table) StartHand() error {
	return t.SubmitEvent(Event{Type: EventStartHand})
}

func (t *Table) Act(username string, action holdem.Action, amount int64) error {
	return t.SubmitEvent(Event{Type: EventAction, Username: username, Action: action, Amount: amount})
}

func (t *Table) Chat(username, message string) error {
	return t.SubmitEvent(Event{Type: EventChat, Username: username, Message: message})
}

// View returns the state as seen by username.
func (t *Table) View(username string) holdem.StateView {
	return t.game.View(username)
}

// Info summarises the room for listings.
type Info struct {
	ID         string `json:"id"`
	Players    int    `json:"players"`
	Watchers   int    `json:"watchers"`
	Street     string `json:"street"`
	HandNumber int    `json:"hand_number"`
}

func (t *Table) Info() Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Info{
		ID:         t.ID,
		Players:    t.game.SeatedCount(),
		Watchers:   len(t.subs),
		Street:     t.game.Street().String(),
		HandNumber: t.game.HandNumber(),
	}
}

func (t *Table) AddHandEndHook(hook HandEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handEndHooks = append(t.handEndHooks, hook)
}

// Stop shuts the actor down.
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// CloseIfIdle stops the table when nobody is seated or subscribed and no
// hand is in progress. It reports whether the table is closed.
func (t *Table) CloseIfIdle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return true
	}
	if len(t.subs) > 0 || t.game.SeatedCount() > 0 || t.game.InProgress() {
		return false
	}
	t.stopLocked()
	return true
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

func (t *Table) stopLocked() {
	if t.closed {
		return
	}
	t.closed = true
	t.stopTimersLocked()
	for id, sub := range t.subs {
		delete(t.subs, id)
		go sub.Close()
	}
	t.stopOnce.Do(func() {
		close(t.done)
	})
	t.log.Info().Msg("Closed")
}

func (t *Table) stopTimersLocked() {
	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
	if t.finishTimer != nil {
		t.finishTimer.Stop()
		t.finishTimer = nil
	}
}

// checkIdleLocked hands an empty room back to its owner. The callback
// runs outside the actor so it may take registry locks and call CloseIfIdle.
func (t *Table) checkIdleLocked() {
	if t.onIdle == nil || len(t.subs) > 0 || t.game.SeatedCount() > 0 || t.game.InProgress() {
		return
	}
	go t.onIdle(t.ID)
}
