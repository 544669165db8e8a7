package card

type Suit byte

const (
	Spade Suit = iota // ♠️
	Heart             // ♥️
	Club              // ♣️
	Diamond           // ♦️
)

var suitNames = [...]string{
	Spade:   "Spades",
	Heart:   "Hearts",
	Club:    "Clubs",
	Diamond: "Diamonds",
}

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦️"
	case Club:
		return "♣️"
	case Heart:
		return "♥️"
	case Spade:
		return "♠️"
	}
	return "?"
}

// Name is the suit as sent to clients, e.g. "Hearts".
func (s Suit) Name() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return "?"
}
