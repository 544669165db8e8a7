package card

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck_IsPermutationOfAllCards(t *testing.T) {
	d := NewDeck()
	require.Equal(t, 52, d.Remaining())

	cards, err := d.Draw(52)
	require.NoError(t, err)
	seen := make(map[Card]bool, 52)
	for _, c := range cards {
		require.True(t, c.Valid(), "invalid card %v", c)
		require.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
	}
	assert.Equal(t, 0, d.Remaining())
}

func TestDeck_DrawExhausted(t *testing.T) {
	d := NewDeckWithSource(rand.NewSource(1))
	_, err := d.Draw(50)
	require.NoError(t, err)

	_, err = d.Draw(3)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 2, d.Remaining(), "failed draw must not consume cards")
}

func TestDeck_SameSourceSameOrder(t *testing.T) {
	a, _ := NewDeckWithSource(rand.NewSource(42)).Draw(52)
	b, _ := NewDeckWithSource(rand.NewSource(42)).Draw(52)
	assert.Equal(t, a, b)
}

func TestNewDeck_ShufflesDiffer(t *testing.T) {
	a, _ := NewDeck().Draw(52)
	b, _ := NewDeck().Draw(52)
	assert.NotEqual(t, a, b, "two crypto shuffles should practically never match")
}

func TestStackedDeck_DealsInOrder(t *testing.T) {
	d := NewStackedDeck(MustParse("As Kd 10h"))
	got, err := d.Draw(2)
	require.NoError(t, err)
	assert.Equal(t, []Card{New(Spade, 1), New(Diamond, 13)}, got)
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Card
	}{
		{"As", New(Spade, 1)},
		{"Td", New(Diamond, 10)},
		{"10h", New(Heart, 10)},
		{"2c", New(Club, 2)},
		{"kS", New(Spade, 13)},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "A", "1s", "Ax", "11h"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestWireNames(t *testing.T) {
	tenH, aceC, twoD, aceS := New(Heart, 10), New(Club, 1), New(Diamond, 2), New(Spade, 1)
	assert.Equal(t, "10", tenH.RankName())
	assert.Equal(t, "A", aceC.RankName())
	assert.Equal(t, "Hearts", tenH.Suit().Name())
	assert.Equal(t, "Diamonds", twoD.Suit().Name())
	assert.Equal(t, 14, aceS.HighRank())
	assert.Equal(t, 0x3d, int(New(Diamond, 13)), "suit in the high nibble, rank in the low")
}
