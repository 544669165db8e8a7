package table

import (
	"context"
	"time"

	"pokerverse/internal/codec"
	"pokerverse/internal/logging"
	"pokerverse/internal/metrics"
)

const snapshotTimeout = 2 * time.Second

// awayActDelay is how long the timer waits before acting for a
// disconnected player. Zero would race the broadcast of their turn.
const awayActDelay = 50 * time.Millisecond

type turnKey struct {
	hand   int
	player string
	step   uint64
}

// publishLocked sends every subscriber its own view of the room.
func (t *Table) publishLocked() {
	views := make(map[string][]byte, len(t.subs))
	for id, sub := range t.subs {
		name := sub.Username()
		data, ok := views[name]
		if !ok {
			data = t.encodeViewLocked(name)
			views[name] = data
		}
		t.sendLocked(id, sub, data)
	}
}

func (t *Table) encodeViewLocked(viewer string) []byte {
	data, err := codec.EncodeState(t.game.View(viewer))
	if err != nil {
		t.log.Error().Err(err).Str(logging.PlayerKey, viewer).Msg("Failed to encode state")
		return nil
	}
	return data
}

// sendLocked never blocks: a subscriber that cannot keep up is dropped.
func (t *Table) sendLocked(id string, sub Subscriber, data []byte) {
	if data == nil {
		return
	}
	if sub.Send(data) {
		return
	}
	delete(t.subs, id)
	metrics.Metrics.SubscriberDropped()
	t.log.Warn().Str(logging.ConnKey, id).Str(logging.PlayerKey, sub.Username()).Msg("Dropping slow subscriber")
	go sub.Close()
}

func encodeChat(username, message string) ([]byte, error) {
	return codec.EncodeChat(username, message)
}

// armTurnTimerLocked starts the timer for the pending turn. It does
// nothing when the same turn is already timed unless force is set.
func (t *Table) armTurnTimerLocked(force bool) {
	name, away, ok := t.game.Turn()
	key := turnKey{hand: t.game.HandNumber(), player: name, step: t.step}
	if !ok {
		key = turnKey{}
	}
	if !force && key == t.turnKey {
		return
	}
	t.turnKey = key

	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
	t.turnSeq++
	if !ok {
		return
	}

	d := t.Config.TurnTimeout
	if away {
		d = awayActDelay
	}
	if d <= 0 {
		return
	}
	seq := t.turnSeq
	t.turnTimer = time.AfterFunc(d, func() {
		_ = t.SubmitEvent(Event{Type: EventTimeout, Seq: seq})
	})
}

// saveSnapshotLocked queues the public view for the snapshot store,
// replacing any snapshot not yet written.
func (t *Table) saveSnapshotLocked() {
	if t.snapCh == nil {
		return
	}
	data := t.encodeViewLocked("")
	if data == nil {
		return
	}
	for {
		select {
		case t.snapCh <- data:
			return
		default:
		}
		select {
		case <-t.snapCh:
		default:
		}
	}
}

func (t *Table) snapshotLoop() {
	for {
		select {
		case data := <-t.snapCh:
			ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
			if err := t.snapshots.Save(ctx, t.ID, data); err != nil {
				t.log.Warn().Err(err).Msg("Failed to save snapshot")
			}
			cancel()
		case <-t.done:
			ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
			if err := t.snapshots.Remove(ctx, t.ID); err != nil {
				t.log.Warn().Err(err).Msg("Failed to remove snapshot")
			}
			cancel()
			return
		}
	}
}
