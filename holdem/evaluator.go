package holdem

import (
	"fmt"
	"sort"

	"pokerverse/card"
)

// HandCategory is the class of a five-card hand.
type HandCategory byte

const (
	HandHighCard      HandCategory = iota + 1 // high card
	HandOnePair                               // one pair
	HandTwoPair                               // two pair
	HandThreeOfKind                           // three of a kind
	HandStraight                              // straight
	HandFlush                                 // flush
	HandFullHouse                             // full house
	HandFourOfKind                            // four of a kind
	HandStraightFlush                         // straight flush, royal included
)

var categoryNames = map[HandCategory]string{
	HandHighCard:      "High Card",
	HandOnePair:       "One Pair",
	HandTwoPair:       "Two Pair",
	HandThreeOfKind:   "Three of a Kind",
	HandStraight:      "Straight",
	HandFlush:         "Flush",
	HandFullHouse:     "Full House",
	HandFourOfKind:    "Four of a Kind",
	HandStraightFlush: "Straight Flush",
}

func (c HandCategory) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "Unknown"
}

// HandValue orders hands: a greater value wins, equal values tie.
//
// Layout: category in bits 20-23, then up to five tie-break ranks (2..14)
// one nibble each from most to least significant.
type HandValue uint32

func (v HandValue) Category() HandCategory {
	return HandCategory(v >> 20)
}

func (v HandValue) String() string {
	if v.Category() == HandStraightFlush && (v>>16)&0xF == 14 {
		return "Royal Flush"
	}
	return v.Category().String()
}

// Evaluate returns the value of the best five-card hand among 5 to 7 cards.
func Evaluate(cards ...card.Card) HandValue {
	v, _ := EvaluateBest(cards...)
	return v
}

// EvaluateBest is Evaluate plus the five cards that make the hand.
func EvaluateBest(cards ...card.Card) (HandValue, []card.Card) {
	n := len(cards)
	if n < 5 || n > 7 {
		panic(fmt.Sprintf("holdem: Evaluate needs 5-7 cards, got %d", n))
	}

	var (
		best     HandValue
		bestIdx  [5]int
		idx      [5]int
		five     [5]card.Card
		walkComb func(start, depth int)
	)
	// every 5-card combination: C(7,5) = 21 at most
	walkComb = func(start, depth int) {
		if depth == 5 {
			for i, j := range idx {
				five[i] = cards[j]
			}
			if v := eval5(five); v > best {
				best = v
				bestIdx = idx
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			idx[depth] = i
			walkComb(i+1, depth+1)
		}
	}
	walkComb(0, 0)

	out := make([]card.Card, 5)
	for i, j := range bestIdx {
		out[i] = cards[j]
	}
	return best, out
}

func eval5(cs [5]card.Card) HandValue {
	var counts [15]int
	flush := true
	for i, c := range cs {
		counts[c.HighRank()]++
		if i > 0 && c.Suit() != cs[0].Suit() {
			flush = false
		}
	}

	// distinct ranks ordered by multiplicity, then rank, both descending
	groups := make([]int, 0, 5)
	for r := 14; r >= 2; r-- {
		if counts[r] > 0 {
			groups = append(groups, r)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return counts[groups[i]] > counts[groups[j]]
	})

	straightHigh := 0
	if len(groups) == 5 {
		switch {
		case groups[0]-groups[4] == 4:
			straightHigh = groups[0]
		case groups[0] == 14 && groups[1] == 5:
			straightHigh = 5 // wheel
		}
	}

	var cat HandCategory
	switch {
	case straightHigh > 0 && flush:
		return makeValue(HandStraightFlush, straightHigh)
	case counts[groups[0]] == 4:
		cat = HandFourOfKind
	case counts[groups[0]] == 3 && counts[groups[1]] == 2:
		cat = HandFullHouse
	case flush:
		cat = HandFlush
	case straightHigh > 0:
		return makeValue(HandStraight, straightHigh)
	case counts[groups[0]] == 3:
		cat = HandThreeOfKind
	case counts[groups[0]] == 2 && counts[groups[1]] == 2:
		cat = HandTwoPair
	case counts[groups[0]] == 2:
		cat = HandOnePair
	default:
		cat = HandHighCard
	}
	return makeValue(cat, groups...)
}

func makeValue(cat HandCategory, ranks ...int) HandValue {
	v := HandValue(cat) << 20
	for i, r := range ranks {
		if i == 5 {
			break
		}
		v |= HandValue(r) << (16 - 4*uint(i))
	}
	return v
}
