package holdem

import "pokerverse/card"

type PotResult struct {
	Amount   int64
	Eligible []int
	Winners  []int
	Shares   []int64
}

// PlayerResult is one dealt-in player's outcome. Hole, Best and Hand are
// only filled for players whose cards were shown down.
type PlayerResult struct {
	Seat     int
	Username string
	Revealed bool
	Hole     []card.Card
	Best     []card.Card
	Hand     HandValue
	Won      int64
	Net      int64
	Chips    int64
}

type Result struct {
	HandNumber int
	Board      []card.Card
	Pots       []PotResult
	Players    []PlayerResult
}

// Winners lists the usernames that won chips, in seat order.
func (r *Result) Winners() []string {
	out := make([]string, 0, 1)
	for _, p := range r.Players {
		if p.Won > 0 {
			out = append(out, p.Username)
		}
	}
	return out
}

// settleLocked pays every pot. A pot whose contributors all folded or
// left goes to the players still in the hand.
func (g *Game) settleLocked() (*Result, *FatalError) {
	dealt := make([]*Player, 0, len(g.handStartChips))
	for _, p := range g.seats {
		if p == nil {
			continue
		}
		if _, ok := g.handStartChips[p.Username]; ok {
			dealt = append(dealt, p)
		}
	}

	contribs := make([]Contribution, 0, len(dealt))
	inHand := make([]int, 0, len(dealt))
	for _, p := range dealt {
		contribs = append(contribs, Contribution{Seat: p.Seat, Amount: p.total, Folded: !p.status.inHand()})
		if p.status.inHand() {
			inHand = append(inHand, p.Seat)
		}
	}
	contenders := len(inHand)
	pots := BuildPots(contribs)
	if total := potsTotal(pots); total != g.pot {
		return nil, &FatalError{Expected: g.pot, Actual: total, Detail: "side pots do not add up to the pot"}
	}

	// cards are only shown when at least two players reach showdown
	values := make(map[int]HandValue, contenders)
	best := make(map[int][]card.Card, contenders)
	if contenders >= 2 {
		for _, p := range dealt {
			if !p.status.inHand() {
				continue
			}
			all := make([]card.Card, 0, 7)
			all = append(all, p.hole...)
			all = append(all, g.board...)
			values[p.Seat], best[p.Seat] = EvaluateBest(all...)
			p.revealed = true
		}
	}

	won := make(map[int]int64, len(dealt))
	res := &Result{
		HandNumber: g.handNumber,
		Board:      append([]card.Card(nil), g.board...),
		Pots:       make([]PotResult, 0, len(pots)),
	}
	for _, pot := range pots {
		if len(pot.Eligible) == 0 {
			pot.Eligible = inHand
		}
		winners := g.potWinnersLocked(pot, values)
		if len(winners) == 0 {
			return nil, &FatalError{Expected: pot.Amount, Actual: 0, Detail: "pot without a winner"}
		}
		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))

		pr := PotResult{Amount: pot.Amount, Eligible: pot.Eligible, Winners: winners}
		for i, seat := range winners {
			amt := share
			if i == 0 {
				// odd chips go to the earliest seat
				amt += remainder
			}
			g.seats[seat].chips += amt
			won[seat] += amt
			pr.Shares = append(pr.Shares, amt)
		}
		g.pot -= pot.Amount
		res.Pots = append(res.Pots, pr)
	}

	for _, p := range dealt {
		pr := PlayerResult{
			Seat:     p.Seat,
			Username: p.Username,
			Revealed: p.revealed,
			Won:      won[p.Seat],
			Net:      p.chips - g.handStartChips[p.Username],
			Chips:    p.chips,
		}
		if p.revealed {
			pr.Hole = p.Hole()
			pr.Best = best[p.Seat]
			pr.Hand = values[p.Seat]
		}
		res.Players = append(res.Players, pr)
	}
	return res, nil
}

// potWinnersLocked returns the eligible seats holding the best hand, in
// seat order. Without a showdown the only eligible seat takes the pot.
func (g *Game) potWinnersLocked(pot Pot, values map[int]HandValue) []int {
	if len(pot.Eligible) == 1 {
		return []int{pot.Eligible[0]}
	}
	var top HandValue
	winners := make([]int, 0, 2)
	for _, seat := range pot.Eligible {
		v, ok := values[seat]
		if !ok {
			continue
		}
		switch {
		case v > top:
			top = v
			winners = append(winners[:0], seat)
		case v == top:
			winners = append(winners, seat)
		}
	}
	return winners
}
