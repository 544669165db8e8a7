package table

import (
	"errors"
	"time"

	"pokerverse/holdem"
	"pokerverse/internal/logging"
	"pokerverse/internal/metrics"
)

func (t *Table) handleJoin(sub Subscriber, mustBeSeated bool) error {
	name := sub.Username()

	if t.game.Seated(name) {
		t.resumeLocked(sub)
	} else {
		if mustBeSeated {
			return holdem.ErrNotSeated
		}
		seat, err := t.game.Join(name, t.Config.StartingChips)
		if err != nil {
			return err
		}
		t.subs[sub.ID()] = sub
		t.log.Info().Str(logging.PlayerKey, name).Int(logging.SeatKey, seat).Msg("Joined")
	}

	t.publishLocked()
	t.armTurnTimerLocked(false)
	t.saveSnapshotLocked()
	return nil
}

// resumeLocked attaches sub to an already seated user. Older connections
// of the same user are replaced.
func (t *Table) resumeLocked(sub Subscriber) {
	name := sub.Username()
	for id, old := range t.subs {
		if id != sub.ID() && old.Username() == name {
			delete(t.subs, id)
			go old.Close()
		}
	}
	t.subs[sub.ID()] = sub
	delete(t.awaySince, name)
	if err := t.game.SetAway(name, false); err != nil {
		t.log.Warn().Err(err).Str(logging.PlayerKey, name).Msg("Failed to clear away flag")
	}
	t.log.Info().Str(logging.PlayerKey, name).Msg("Reconnected")
}

func (t *Table) handleSubscribe(sub Subscriber) error {
	if t.game.Seated(sub.Username()) {
		t.resumeLocked(sub)
		t.publishLocked()
		t.armTurnTimerLocked(false)
		return nil
	}
	t.subs[sub.ID()] = sub
	t.sendLocked(sub.ID(), sub, t.encodeViewLocked(sub.Username()))
	return nil
}

func (t *Table) handleLeave(username string) error {
	removed, err := t.game.Leave(username)
	var fe *holdem.FatalError
	if err != nil && !errors.As(err, &fe) {
		return err
	}
	t.step++
	if removed {
		delete(t.awaySince, username)
	}
	for id, sub := range t.subs {
		if sub.Username() == username {
			delete(t.subs, id)
			go sub.Close()
		}
	}
	t.log.Info().Str(logging.PlayerKey, username).Bool("removed", removed).Msg("Left")

	if fe != nil {
		// the aborted hand already freed the seat
		delete(t.awaySince, username)
		err = t.checkFatalLocked(err)
		t.checkIdleLocked()
		return err
	}
	t.afterMutationLocked()
	t.checkIdleLocked()
	return nil
}

func (t *Table) handleDisconnect(connID, username string, at time.Time) error {
	if sub, ok := t.subs[connID]; ok {
		username = sub.Username()
		delete(t.subs, connID)
	}
	for _, sub := range t.subs {
		if sub.Username() == username {
			return nil
		}
	}

	if t.game.Seated(username) {
		if err := t.game.SetAway(username, true); err != nil {
			return err
		}
		if _, ok := t.awaySince[username]; !ok {
			t.awaySince[username] = at
		}
		t.log.Info().Str(logging.PlayerKey, username).Msg("Away")
		t.publishLocked()
		// the away player's turn is played by the timer at once
		if turn, _, ok := t.game.Turn(); ok && turn == username {
			t.armTurnTimerLocked(true)
		}
		t.saveSnapshotLocked()
	}
	t.checkIdleLocked()
	return nil
}

func (t *Table) handleStartHand() error {
	if t.game.Street() == holdem.StreetShowdown {
		t.finishHandLocked()
	}
	if err := t.game.StartHand(); err != nil {
		return t.checkFatalLocked(err)
	}
	t.step++
	metrics.Metrics.HandStarted()
	t.log.Info().Int(logging.HandKey, t.game.HandNumber()).Int("players", t.game.SeatedCount()).Msg("Hand started")

	t.afterMutationLocked()
	return nil
}

func (t *Table) handleAction(username string, action holdem.Action, amount int64) error {
	err := t.game.Act(username, action, amount)
	metrics.Metrics.Action(action.String(), resultLabel(err))
	if err != nil {
		return t.checkFatalLocked(err)
	}
	t.step++
	t.log.Debug().
		Int(logging.HandKey, t.game.HandNumber()).
		Str(logging.PlayerKey, username).
		Str("action", action.String()).
		Int64("amount", amount).
		Msg("Action")

	t.afterMutationLocked()
	return nil
}

func (t *Table) handleTimeout(seq uint64) error {
	if seq != t.turnSeq {
		return nil
	}
	t.turnTimer = nil

	name, action, err := t.game.TimeoutAction()
	if errors.Is(err, holdem.ErrRoundNotActive) {
		return nil
	}
	if err != nil {
		return t.checkFatalLocked(err)
	}
	t.step++
	metrics.Metrics.TimeoutAction()
	t.log.Info().
		Int(logging.HandKey, t.game.HandNumber()).
		Str(logging.PlayerKey, name).
		Str("action", action.String()).
		Msg("Turn timed out")

	t.afterMutationLocked()
	return nil
}

func (t *Table) handleChat(username, message string) error {
	subscribed := false
	for _, sub := range t.subs {
		if sub.Username() == username {
			subscribed = true
			break
		}
	}
	if !subscribed {
		return holdem.ErrNotSeated
	}

	data, err := encodeChat(username, message)
	if err != nil {
		return err
	}
	for id, sub := range t.subs {
		t.sendLocked(id, sub, data)
	}
	metrics.Metrics.ChatMessage()
	return nil
}

// afterMutationLocked publishes the new state and drives what follows
// from it: hand settlement, the turn timer and the snapshot.
func (t *Table) afterMutationLocked() {
	t.publishLocked()
	if t.game.Street() == holdem.StreetShowdown && t.game.HandNumber() != t.settledHand {
		t.onHandSettledLocked()
	}
	t.armTurnTimerLocked(false)
	t.saveSnapshotLocked()
}

func (t *Table) onHandSettledLocked() {
	hand := t.game.HandNumber()
	t.settledHand = hand
	result := t.game.LastResult()
	metrics.Metrics.HandCompleted()
	if result != nil {
		t.log.Info().Int(logging.HandKey, hand).Strs("winners", result.Winners()).Msg("Hand settled")
		t.dispatchHandEndHooks(HandEndInfo{
			RoomID:     t.ID,
			HandNumber: hand,
			PlayedAt:   time.Now(),
			Result:     result,
		})
	}

	if t.Config.ShowdownDelay <= 0 {
		t.finishHandLocked()
		return
	}
	if t.finishTimer != nil {
		t.finishTimer.Stop()
	}
	t.finishTimer = time.AfterFunc(t.Config.ShowdownDelay, func() {
		_ = t.SubmitEvent(Event{Type: EventFinishHand, Seq: uint64(hand)})
	})
}

// finishHandLocked clears a settled hand and returns the room to waiting.
func (t *Table) finishHandLocked() {
	if t.finishTimer != nil {
		t.finishTimer.Stop()
		t.finishTimer = nil
	}
	if err := t.game.FinishHand(); err != nil {
		t.log.Warn().Err(err).Msg("Finish hand")
		return
	}
	for name := range t.awaySince {
		if !t.game.Seated(name) {
			delete(t.awaySince, name)
		}
	}
	t.publishLocked()
	t.saveSnapshotLocked()
	t.checkIdleLocked()
}

// checkFatalLocked surfaces a conservation failure to the whole room.
// Other errors are returned unchanged.
func (t *Table) checkFatalLocked(err error) error {
	var fe *holdem.FatalError
	if !errors.As(err, &fe) {
		return err
	}
	metrics.Metrics.FatalError()
	t.log.Error().
		Int(logging.HandKey, fe.HandNumber).
		Int64("expected", fe.Expected).
		Int64("actual", fe.Actual).
		Str("detail", fe.Detail).
		Msg("Invariant violated, room frozen")
	t.stopTimersLocked()
	t.publishLocked()
	t.saveSnapshotLocked()
	return err
}

func (t *Table) dispatchHandEndHooks(info HandEndInfo) {
	for _, hook := range t.handEndHooks {
		h := hook
		go func() {
			defer func() {
				if r := recover(); r != nil {
					t.log.Error().Interface("panic", r).Msg("Hand end hook panic")
				}
			}()
			h(info)
		}()
	}
}

// tick releases the seats of players who stayed away too long.
func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.Config.SeatRelease <= 0 || len(t.awaySince) == 0 {
		return
	}

	now := time.Now()
	changed := false
	for name, since := range t.awaySince {
		if now.Sub(since) < t.Config.SeatRelease {
			continue
		}
		removed, err := t.game.Leave(name)
		var fe *holdem.FatalError
		switch {
		case errors.Is(err, holdem.ErrNotSeated):
			delete(t.awaySince, name)
			continue
		case errors.As(err, &fe):
			delete(t.awaySince, name)
			t.step++
			t.log.Info().Str(logging.PlayerKey, name).Msg("Seat released")
			_ = t.checkFatalLocked(err)
			t.checkIdleLocked()
			return
		case err != nil:
			t.log.Warn().Err(err).Str(logging.PlayerKey, name).Msg("Failed to release seat")
			continue
		}
		changed = true
		if removed {
			delete(t.awaySince, name)
		}
		t.log.Info().Str(logging.PlayerKey, name).Bool("removed", removed).Msg("Seat released")
	}
	if changed {
		t.step++
		t.afterMutationLocked()
	}
	t.checkIdleLocked()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch holdem.KindOf(err) {
	case holdem.KindValidation:
		return "rejected"
	case holdem.KindFatal:
		return "fatal"
	default:
		return "error"
	}
}
