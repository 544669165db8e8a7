package holdem

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerverse/card"
)

func TestView_HoleCardsOnlyForOwnerBeforeShowdown(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), headsUpDeck, "A", "B")
	require.NoError(t, g.StartHand())

	for g.Street().Betting() {
		for _, viewer := range []string{"A", "B", "spectator", ""} {
			v := g.View(viewer)
			for _, p := range v.Players {
				if p.Username == viewer {
					assert.Len(t, p.Hand, 2, "%s sees own cards on %v", viewer, v.Street)
				} else {
					assert.Nil(t, p.Hand, "%s must not see %s's cards on %v", viewer, p.Username, v.Street)
				}
			}
		}
		// call doubles as check, so the hand reaches showdown
		mustAct(t, g, turnOf(g), ActionCall, 0)
	}
	assert.Equal(t, StreetShowdown, g.Street())
}

func TestView_ShowdownRevealsContestingHands(t *testing.T) {
	// deal order B, C, A; B folds preflop and stays hidden
	deck := "Qc Kd As Qd Kh Ah 2c 7d 9s Jc 3h"
	g := newTestGame(t, DefaultConfig(), deck, "A", "B", "C")
	require.NoError(t, g.StartHand())

	mustAct(t, g, "A", ActionCall, 0)
	mustAct(t, g, "B", ActionFold, 0)
	mustAct(t, g, "C", ActionCheck, 0)
	for g.Street() != StreetShowdown {
		mustAct(t, g, "C", ActionCheck, 0)
		mustAct(t, g, "A", ActionCheck, 0)
	}

	want := map[string][]card.Card{
		"A": card.MustParse("As Ah"),
		"C": card.MustParse("Kd Kh"),
	}
	for _, viewer := range []string{"A", "B", "C", ""} {
		v := g.View(viewer)
		got := map[string][]card.Card{}
		for _, p := range v.Players {
			if p.Hand != nil {
				got[p.Username] = p.Hand
			}
		}
		if viewer == "B" {
			want["B"] = card.MustParse("Qc Qd")
		} else {
			delete(want, "B")
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("viewer %q hands mismatch (-want +got):\n%s", viewer, diff)
		}
	}

	res := g.View("").Result
	require.NotNil(t, res)
	for _, p := range res.Players {
		if p.Username == "B" {
			assert.False(t, p.Revealed)
			assert.Nil(t, p.Hole)
		} else {
			assert.True(t, p.Revealed)
			assert.Len(t, p.Best, 5)
		}
	}
	assert.Equal(t, []string{"A"}, res.Winners())

	require.NoError(t, g.FinishHand())
	for _, p := range g.View("").Players {
		assert.Nil(t, p.Hand, "hands are cleared after the hand")
	}
}

func TestView_OptionsOnlyForPlayerOnTurn(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), headsUpDeck, "A", "B")
	require.NoError(t, g.StartHand())

	v := g.View("A")
	require.NotNil(t, v.Options)
	assert.Equal(t, []Action{ActionFold, ActionCall, ActionRaise}, v.Options.Actions)
	assert.Equal(t, int64(10), v.Options.ToCall)
	assert.Nil(t, g.View("B").Options)
	assert.Nil(t, g.View("").Options)

	mustAct(t, g, "A", ActionCall, 0)
	assert.Nil(t, g.View("A").Options)
	opts := g.View("B").Options
	require.NotNil(t, opts)
	assert.Equal(t, []Action{ActionFold, ActionCheck, ActionRaise}, opts.Actions)
}
