package holdem

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors for the transport layer.
type ErrorKind byte

const (
	KindValidation ErrorKind = 1
	KindState      ErrorKind = 2
	KindFatal      ErrorKind = 3
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Error is a classified engine error. Code is the stable wire identifier.
type Error struct {
	Kind ErrorKind
	Code string
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Err: errors.New(msg)}
}

var (
	ErrNotYourTurn       = newError(KindValidation, "not_your_turn", "not your turn")
	ErrRoundNotActive    = newError(KindValidation, "round_not_active", "no betting round in progress")
	ErrInvalidAction     = newError(KindValidation, "invalid_action", "invalid action")
	ErrInsufficientChips = newError(KindValidation, "insufficient_chips", "insufficient chips")

	ErrRoomFull          = newError(KindState, "room_full", "room is full")
	ErrAlreadySeated     = newError(KindState, "already_seated", "player already seated")
	ErrNotSeated         = newError(KindState, "not_seated", "player not seated")
	ErrNotEnoughPlayers  = newError(KindState, "not_enough_players", "not enough players")
	ErrAlreadyInProgress = newError(KindState, "already_in_progress", "hand already in progress")
	ErrRoomNotFound      = newError(KindState, "room_not_found", "room not found")
	ErrRoomFrozen        = newError(KindState, "room_frozen", "room is frozen after an internal error")
)

// invalidAction wraps ErrInvalidAction with a reason, keeping errors.Is/As working.
func invalidAction(format string, args ...interface{}) error {
	return &Error{
		Kind: KindValidation,
		Code: ErrInvalidAction.Code,
		Err:  fmt.Errorf("%w: %s", ErrInvalidAction, fmt.Sprintf(format, args...)),
	}
}

// KindOf returns the kind of an engine error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var fe *FatalError
	if errors.As(err, &fe) {
		return KindFatal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// FatalError reports a broken invariant. The hand it happened in was aborted.
type FatalError struct {
	RoomID     string
	HandNumber int
	Expected   int64
	Actual     int64
	Detail     string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: room %s hand %d: %s (expected %d, got %d)",
		e.RoomID, e.HandNumber, e.Detail, e.Expected, e.Actual)
}

// Is lets errors.Is(err, ErrRoomFrozen) match the error that froze the room.
func (e *FatalError) Is(target error) bool {
	return target == ErrRoomFrozen
}
