package holdem

import "fmt"

// NoSeat marks "nobody", e.g. the turn outside a betting street.
const NoSeat = -1

// Street is the phase of a hand.
type Street byte

const (
	StreetWaiting  Street = 0
	StreetPreflop  Street = 1
	StreetFlop     Street = 2
	StreetTurn     Street = 3
	StreetRiver    Street = 4
	StreetShowdown Street = 5
)

var streetNames = map[Street]string{
	StreetWaiting:  "waiting",
	StreetPreflop:  "preflop",
	StreetFlop:     "flop",
	StreetTurn:     "turn",
	StreetRiver:    "river",
	StreetShowdown: "showdown",
}

func (s Street) String() string {
	if n, ok := streetNames[s]; ok {
		return n
	}
	return fmt.Sprintf("street(%d)", s)
}

// Betting reports whether players act on this street.
func (s Street) Betting() bool {
	return s >= StreetPreflop && s <= StreetRiver
}

// boardSize is the number of community cards once the street is dealt.
func (s Street) boardSize() int {
	switch s {
	case StreetFlop:
		return 3
	case StreetTurn:
		return 4
	case StreetRiver, StreetShowdown:
		return 5
	}
	return 0
}

// Action is a betting decision.
type Action byte

const (
	ActionNone  Action = 0
	ActionFold  Action = 1
	ActionCheck Action = 2
	ActionCall  Action = 3
	ActionRaise Action = 4
	ActionBlind Action = 5
)

var actionNames = map[Action]string{
	ActionNone:  "none",
	ActionFold:  "fold",
	ActionCheck: "check",
	ActionCall:  "call",
	ActionRaise: "raise",
	ActionBlind: "blind",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", a)
}

// ParseAction maps the client action names fold/check/call/raise.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "fold":
		return ActionFold, true
	case "check":
		return ActionCheck, true
	case "call":
		return ActionCall, true
	case "raise":
		return ActionRaise, true
	}
	return ActionNone, false
}

// Status is a player's standing in the current hand.
type Status byte

const (
	StatusActive     Status = 0
	StatusFolded     Status = 1
	StatusAllIn      Status = 2
	StatusSittingOut Status = 3
)

var statusNames = map[Status]string{
	StatusActive:     "active",
	StatusFolded:     "folded",
	StatusAllIn:      "all-in",
	StatusSittingOut: "sitting-out",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", s)
}

// inHand reports whether the player still contests the pot.
func (s Status) inHand() bool {
	return s == StatusActive || s == StatusAllIn
}
