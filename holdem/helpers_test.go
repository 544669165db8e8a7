package holdem

import (
	"testing"

	"pokerverse/card"
)

// stackedDeck deals the given cards first, then the rest of the deck in
// suit order. Hole cards go out one at a time starting from the small
// blind, then flop, turn and river with no burns.
func stackedDeck(prefix string) func() *card.Deck {
	head := card.MustParse(prefix)
	used := make(map[card.Card]bool, len(head))
	for _, c := range head {
		used[c] = true
	}
	cards := append([]card.Card(nil), head...)
	for _, c := range card.All {
		if !used[c] {
			cards = append(cards, c)
		}
	}
	return func() *card.Deck { return card.NewStackedDeck(cards) }
}

func newTestGame(t *testing.T, cfg Config, deck string, players ...string) *Game {
	t.Helper()
	if deck != "" {
		cfg.NewDeck = stackedDeck(deck)
	}
	g, err := NewGame("test", cfg)
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}
	for _, name := range players {
		if _, err := g.Join(name, 1000); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
	return g
}

func mustAct(t *testing.T, g *Game, username string, action Action, amount int64) {
	t.Helper()
	if err := g.Act(username, action, amount); err != nil {
		t.Fatalf("%s %v %d: %v", username, action, amount, err)
	}
}

func turnOf(g *Game) string {
	name, _, _ := g.Turn()
	return name
}

func playerView(v StateView, username string) PlayerView {
	for _, p := range v.Players {
		if p.Username == username {
			return p
		}
	}
	return PlayerView{Seat: NoSeat}
}

// chipTotal is Σ chips + pot + Σ bets over the players dealt into the hand.
func chipTotal(g *Game) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	sum := g.pot
	for _, p := range g.seats {
		if p != nil {
			sum += p.chips + p.bet
		}
	}
	return sum
}
