package holdem

import "pokerverse/card"

type Player struct {
	Username string
	Seat     int

	chips int64
	bet   int64 // this street
	total int64 // this hand

	status     Status
	away       bool
	leaving    bool
	revealed   bool
	lastAction Action

	hole []card.Card
}

func (p *Player) Chips() int64       { return p.chips }
func (p *Player) Bet() int64         { return p.bet }
func (p *Player) Total() int64       { return p.total }
func (p *Player) Status() Status     { return p.status }
func (p *Player) Away() bool         { return p.away }
func (p *Player) LastAction() Action { return p.lastAction }

// Hole returns a copy of the player's hole cards.
func (p *Player) Hole() []card.Card {
	if len(p.hole) == 0 {
		return nil
	}
	out := make([]card.Card, len(p.hole))
	copy(out, p.hole)
	return out
}

// canAct reports whether the player still has decisions this hand.
func (p *Player) canAct() bool {
	return p.status == StatusActive
}

func (p *Player) resetForHand() {
	p.bet = 0
	p.total = 0
	p.revealed = false
	p.lastAction = ActionNone
	p.hole = nil
	if p.away || p.chips == 0 {
		p.status = StatusSittingOut
	} else {
		p.status = StatusActive
	}
}

// placeBet moves up to amount from the stack into the street bet and
// returns what was actually moved. Running out of chips means all-in.
func (p *Player) placeBet(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if p.chips <= amount {
		amount = p.chips
		p.status = StatusAllIn
	}
	p.chips -= amount
	p.bet += amount
	p.total += amount
	return amount
}

// collectBet empties the street bet into the caller's pot.
func (p *Player) collectBet() int64 {
	b := p.bet
	p.bet = 0
	return b
}
