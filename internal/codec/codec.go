package codec

import (
	"errors"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"pokerverse/card"
	"pokerverse/holdem"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server message types.
const (
	TypeState    = "state"
	TypeShowdown = "showdown"
	TypeChat     = "chat_message"
	TypeError    = "error"
)

// Client actions besides the betting ones.
const (
	ActionStartGame = "start_game"
	ActionChat      = "chat"
	ActionLeave     = "leave"
)

const maxChatLen = 500

// Envelope is every server to client message.
type Envelope struct {
	Type     string      `json:"type"`
	State    *TableState `json:"state,omitempty"`
	Username string      `json:"username,omitempty"`
	Message  string      `json:"message,omitempty"`
	Code     string      `json:"code,omitempty"`
	Error    string      `json:"error,omitempty"`
	Results  *HandResult `json:"results,omitempty"`
}

type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

type PlayerState struct {
	Username   string `json:"username"`
	Seat       int    `json:"seat"`
	Chips      int64  `json:"chips"`
	Bet        int64  `json:"bet"`
	Status     string `json:"status"`
	LastAction string `json:"last_action,omitempty"`
	Away       bool   `json:"away,omitempty"`
	IsTurn     bool   `json:"is_turn"`
	Hand       []Card `json:"hand,omitempty"`
}

type TableState struct {
	RoomID         string        `json:"room_id"`
	Street         string        `json:"street"`
	HandNumber     int           `json:"hand_number"`
	Button         int           `json:"button"`
	Pot            int64         `json:"pot"`
	CurrentBet     int64         `json:"current_bet"`
	MinRaise       int64         `json:"min_raise,omitempty"`
	CommunityCards []Card        `json:"community_cards"`
	Players        []PlayerState `json:"players"`
	Frozen         bool          `json:"frozen,omitempty"`
	// LegalActions is only sent to the player on turn.
	LegalActions *LegalActions `json:"legal_actions,omitempty"`
}

type LegalActions struct {
	Actions    []string `json:"actions"`
	ToCall     int64    `json:"to_call"`
	MinRaiseTo int64    `json:"min_raise_to,omitempty"`
	MaxRaiseTo int64    `json:"max_raise_to,omitempty"`
}

type PotResult struct {
	Amount   int64   `json:"amount"`
	Eligible []int   `json:"eligible"`
	Winners  []int   `json:"winners"`
	Shares   []int64 `json:"shares"`
}

type PlayerResult struct {
	Username string `json:"username"`
	Seat     int    `json:"seat"`
	Won      int64  `json:"won"`
	Net      int64  `json:"net"`
	Chips    int64  `json:"chips"`
	Hand     []Card `json:"hand,omitempty"`
	Best     []Card `json:"best,omitempty"`
	Rank     string `json:"rank,omitempty"`
}

type HandResult struct {
	HandNumber int            `json:"hand_number"`
	Winners    []string       `json:"winners"`
	Pots       []PotResult    `json:"pots"`
	Players    []PlayerResult `json:"players"`
}

// StateToWire converts a per-viewer view to its wire form.
func StateToWire(v holdem.StateView) *TableState {
	ts := &TableState{
		RoomID:         v.RoomID,
		Street:         v.Street.String(),
		HandNumber:     v.HandNumber,
		Button:         v.Button,
		Pot:            v.Pot,
		CurrentBet:     v.CurrentBet,
		MinRaise:       v.MinRaiseTo,
		CommunityCards: CardsToWire(v.Board),
		Players:        make([]PlayerState, 0, len(v.Players)),
		Frozen:         v.Frozen,
	}
	if o := v.Options; o != nil {
		la := &LegalActions{
			Actions:    make([]string, 0, len(o.Actions)),
			ToCall:     o.ToCall,
			MinRaiseTo: o.MinRaiseTo,
			MaxRaiseTo: o.MaxRaiseTo,
		}
		for _, a := range o.Actions {
			la.Actions = append(la.Actions, a.String())
		}
		ts.LegalActions = la
	}
	for _, p := range v.Players {
		ps := PlayerState{
			Username: p.Username,
			Seat:     p.Seat,
			Chips:    p.Chips,
			Bet:      p.Bet,
			Status:   p.Status.String(),
			Away:     p.Away,
			IsTurn:   p.IsTurn,
			Hand:     CardsToWire(p.Hand),
		}
		if p.LastAction != holdem.ActionNone {
			ps.LastAction = p.LastAction.String()
		}
		if len(ps.Hand) == 0 {
			ps.Hand = nil
		}
		ts.Players = append(ts.Players, ps)
	}
	return ts
}

// ResultToWire converts a settlement; unrevealed players carry no cards.
func ResultToWire(r *holdem.Result) *HandResult {
	if r == nil {
		return nil
	}
	hr := &HandResult{
		HandNumber: r.HandNumber,
		Winners:    r.Winners(),
		Pots:       make([]PotResult, 0, len(r.Pots)),
		Players:    make([]PlayerResult, 0, len(r.Players)),
	}
	for _, p := range r.Pots {
		hr.Pots = append(hr.Pots, PotResult{
			Amount:   p.Amount,
			Eligible: p.Eligible,
			Winners:  p.Winners,
			Shares:   p.Shares,
		})
	}
	for _, p := range r.Players {
		pr := PlayerResult{
			Username: p.Username,
			Seat:     p.Seat,
			Won:      p.Won,
			Net:      p.Net,
			Chips:    p.Chips,
		}
		if p.Revealed {
			pr.Hand = CardsToWire(p.Hole)
			pr.Best = CardsToWire(p.Best)
			pr.Rank = p.Hand.String()
		}
		hr.Players = append(hr.Players, pr)
	}
	return hr
}

func CardToWire(c card.Card) Card {
	return Card{Rank: c.RankName(), Suit: c.Suit().Name()}
}

func CardsToWire(cards []card.Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardToWire(c))
	}
	return out
}

// EncodeState builds the "state" message, or "showdown" with results
// while a settled hand is on display.
func EncodeState(v holdem.StateView) ([]byte, error) {
	env := Envelope{Type: TypeState, State: StateToWire(v)}
	if v.Street == holdem.StreetShowdown && v.Result != nil {
		env.Type = TypeShowdown
		env.Results = ResultToWire(v.Result)
	}
	return json.Marshal(env)
}

func EncodeChat(username, message string) ([]byte, error) {
	return json.Marshal(Envelope{Type: TypeChat, Username: username, Message: message})
}

// EncodeError builds the connection-scoped error message for err.
func EncodeError(err error) []byte {
	data, mErr := json.Marshal(Envelope{Type: TypeError, Code: ErrorCode(err), Error: err.Error()})
	if mErr != nil {
		return []byte(`{"type":"error","code":"internal","error":"internal error"}`)
	}
	return data
}

// ErrorCode maps an error to its stable wire code.
func ErrorCode(err error) string {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return "protocol_error"
	}
	var fe *holdem.FatalError
	if errors.As(err, &fe) {
		return "fatal"
	}
	var he *holdem.Error
	if errors.As(err, &he) {
		return he.Code
	}
	return "internal"
}

// DecodeEnvelope parses a server message. Used by clients and tests.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

// ProtocolError is a malformed or unknown client message.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }

func protocolErrorf(format string, args ...interface{}) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// CommandKind is what a client message asks for.
type CommandKind byte

const (
	CommandAct CommandKind = iota + 1
	CommandStartGame
	CommandChat
	CommandLeave
)

// Command is a validated client message.
type Command struct {
	Kind    CommandKind
	Action  holdem.Action
	Amount  int64
	Message string
}

type clientMessage struct {
	Action  string   `json:"action"`
	Amount  *float64 `json:"amount,omitempty"`
	Message string   `json:"message,omitempty"`
}

// DecodeCommand parses {action, amount?, message?}.
func DecodeCommand(data []byte) (Command, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Command{}, protocolErrorf("malformed message: %v", err)
	}

	switch action := strings.ToLower(strings.TrimSpace(msg.Action)); action {
	case "":
		return Command{}, protocolErrorf("missing action")
	case ActionStartGame:
		return Command{Kind: CommandStartGame}, nil
	case ActionLeave:
		return Command{Kind: CommandLeave}, nil
	case ActionChat:
		text := strings.TrimSpace(msg.Message)
		if text == "" {
			return Command{}, protocolErrorf("empty chat message")
		}
		if len(text) > maxChatLen {
			return Command{}, protocolErrorf("chat message longer than %d bytes", maxChatLen)
		}
		return Command{Kind: CommandChat, Message: text}, nil
	default:
		a, ok := holdem.ParseAction(action)
		if !ok {
			return Command{}, protocolErrorf("unknown action %q", msg.Action)
		}
		cmd := Command{Kind: CommandAct, Action: a}
		if msg.Amount != nil {
			amt := *msg.Amount
			if amt < 0 || amt != math.Trunc(amt) || amt > math.MaxInt32*1e6 {
				return Command{}, protocolErrorf("invalid amount %v", amt)
			}
			cmd.Amount = int64(amt)
		}
		if a == holdem.ActionRaise && msg.Amount == nil {
			return Command{}, protocolErrorf("raise requires an amount")
		}
		return cmd, nil
	}
}
