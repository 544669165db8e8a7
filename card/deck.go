package card

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
)

// ErrExhausted is returned when a draw asks for more cards than remain.
var ErrExhausted = errors.New("deck exhausted")

// All lists the 52 cards in suit order.
var All = func() []Card {
	out := make([]Card, 0, 52)
	for s := Spade; s <= Diamond; s++ {
		for r := byte(1); r <= 13; r++ {
			out = append(out, New(s, r))
		}
	}
	return out
}()

// Deck is an ordered stack of cards; Draw takes from the top.
type Deck struct {
	cards []Card
}

// NewDeck returns a full deck shuffled with a crypto/rand backed source.
func NewDeck() *Deck {
	return NewDeckWithSource(cryptoSource{})
}

// NewDeckWithSource shuffles a full deck with src. Deterministic sources are for tests.
func NewDeckWithSource(src rand.Source) *Deck {
	d := &Deck{cards: make([]Card, len(All))}
	copy(d.cards, All)
	// rand.Shuffle is Fisher-Yates with unbiased bounded draws.
	rand.New(src).Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// NewStackedDeck returns a deck that deals cards in the given order.
func NewStackedDeck(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Remaining is the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Draw removes and returns the top n cards.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, ErrExhausted
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// cryptoSource adapts crypto/rand to math/rand.Source64.
type cryptoSource struct{}

func (cryptoSource) Seed(int64) {}

func (s cryptoSource) Int63() int64 {
	return int64(s.Uint64() & (1<<63 - 1))
}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("card: crypto/rand unavailable: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}
