package holdem

import "pokerverse/card"

// PlayerView is the public part of a seat plus, when visible to the
// viewer, the hole cards.
type PlayerView struct {
	Username   string
	Seat       int
	Chips      int64
	Bet        int64
	Status     Status
	LastAction Action
	Away       bool
	IsTurn     bool
	Hand       []card.Card
}

// StateView is an immutable projection of the game for one viewer.
type StateView struct {
	RoomID     string
	Street     Street
	HandNumber int
	Button     int
	Pot        int64
	CurrentBet int64
	MinRaiseTo int64
	Board      []card.Card
	Players    []PlayerView
	Result     *Result
	Frozen     bool
	// Options is set only for the viewer who is on turn.
	Options *TurnOptions
}

// View projects the state for viewer. Hole cards are shown to their owner
// and, at showdown, for every player whose hand was shown down. An empty
// viewer gets the public projection.
func (g *Game) View(viewer string) StateView {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := StateView{
		RoomID:     g.roomID,
		Street:     g.street,
		HandNumber: g.handNumber,
		Button:     g.button,
		Pot:        g.pot,
		Board:      append([]card.Card(nil), g.board...),
		Players:    make([]PlayerView, 0, len(g.byName)),
		Frozen:     g.frozen != nil,
	}
	if g.round != nil {
		v.CurrentBet = g.round.highBet
		v.MinRaiseTo = g.minRaiseToLocked()
	}
	if g.street == StreetShowdown {
		v.Result = g.lastResult
	}

	for _, p := range g.seats {
		if p == nil {
			continue
		}
		pv := PlayerView{
			Username:   p.Username,
			Seat:       p.Seat,
			Chips:      p.chips,
			Bet:        p.bet,
			Status:     p.status,
			LastAction: p.lastAction,
			Away:       p.away,
			IsTurn:     g.turn == p.Seat,
		}
		if viewer != "" && p.Username == viewer && g.turn == p.Seat && g.round != nil {
			opts := g.turnOptionsLocked(p)
			v.Options = &opts
		}
		showdown := g.street == StreetShowdown && p.revealed
		if (viewer != "" && p.Username == viewer) || showdown {
			pv.Hand = p.Hole()
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
