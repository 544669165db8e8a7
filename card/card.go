package card

import (
	"fmt"
	"strings"
)

// Card is a single playing card.
//
// Encoding:
// - high nibble: suit (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - low nibble: rank (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

// Invalid is the zero card.
const Invalid Card = 0

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return fmt.Sprintf("%s%s", c.Suit(), shortRank(c.Rank()))
}

// Rank returns the face value 1-13 (A=1, K=13), or 0 for an invalid card.
func (c Card) Rank() byte {
	if !c.Valid() {
		return 0
	}
	return byte(c & 0x0F)
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

// Valid reports whether c encodes one of the 52 cards.
func (c Card) Valid() bool {
	r := c & 0x0F
	return r >= 1 && r <= 13 && c>>4 <= Card(Diamond)
}

// HighRank returns the rank used for comparisons: A counts as 14.
func (c Card) HighRank() int {
	r := int(c & 0x0F)
	if r == 1 {
		return 14
	}
	return r
}

// RankName is the rank as sent to clients: "2".."10", "J", "Q", "K", "A".
func (c Card) RankName() string {
	switch r := c.Rank(); r {
	case 1:
		return "A"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", r)
	}
}

// New builds a card from a suit and a rank (A=1 .. K=13).
func New(s Suit, rank byte) Card {
	return Card(byte(s)<<4 | rank&0x0F)
}

func shortRank(r byte) string {
	switch r {
	case 1:
		return "A"
	case 10:
		return "T"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	}
	return fmt.Sprintf("%d", r)
}

// Parse converts strings such as "As", "Td" or "10h" into a Card.
func Parse(s string) (Card, error) {
	if len(s) < 2 {
		return Invalid, fmt.Errorf("invalid card string: %s", s)
	}

	var suit Suit
	switch s[len(s)-1] {
	case 's', 'S':
		suit = Spade
	case 'h', 'H':
		suit = Heart
	case 'c', 'C':
		suit = Club
	case 'd', 'D':
		suit = Diamond
	default:
		return Invalid, fmt.Errorf("invalid suit: %c", s[len(s)-1])
	}

	var rank byte
	switch r := strings.ToUpper(s[:len(s)-1]); r {
	case "A":
		rank = 1
	case "T", "10":
		rank = 10
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		if len(r) != 1 || r[0] < '2' || r[0] > '9' {
			return Invalid, fmt.Errorf("invalid rank: %s", r)
		}
		rank = r[0] - '0'
	}
	return New(suit, rank), nil
}

// MustParse parses a space separated list of cards and panics on error.
// Intended for fixtures.
func MustParse(s string) []Card {
	fields := strings.Fields(s)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := Parse(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// Format renders cards as "♠A ♥T" for logs.
func Format(cs []Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
