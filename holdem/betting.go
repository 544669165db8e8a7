package holdem

// bettingRound tracks one street: the high-water bet and who still owes
// a decision. Street bets live on the players. It is discarded when the
// street closes.
type bettingRound struct {
	highBet int64
	toAct   map[int]bool
}

func newBettingRound(actors []int) *bettingRound {
	r := &bettingRound{
		toAct: make(map[int]bool, len(actors)),
	}
	for _, seat := range actors {
		r.toAct[seat] = true
	}
	return r
}

// commit moves chips from p into the street and keeps the high-water mark.
func (r *bettingRound) commit(p *Player, amount int64) int64 {
	moved := p.placeBet(amount)
	if p.bet > r.highBet {
		r.highBet = p.bet
	}
	if p.status == StatusAllIn {
		delete(r.toAct, p.Seat)
	}
	return moved
}

func (r *bettingRound) toCall(p *Player) int64 {
	if d := r.highBet - p.bet; d > 0 {
		return d
	}
	return 0
}

// acted records that seat has answered the current bet.
func (r *bettingRound) acted(seat int) {
	delete(r.toAct, seat)
}

// reopen is called after a bet above the previous high: everyone else
// who can still act owes a decision again.
func (r *bettingRound) reopen(raiser int, actors []int) {
	for _, seat := range actors {
		if seat != raiser {
			r.toAct[seat] = true
		}
	}
	delete(r.toAct, raiser)
}

func (r *bettingRound) needsAction(seat int) bool {
	return r.toAct[seat]
}

func (r *bettingRound) pending() int {
	return len(r.toAct)
}

