package holdem

import (
	"fmt"

	"pokerverse/card"
)

type Config struct {
	// Table
	MaxPlayers int
	MinPlayers int

	// Blinds. BigBlind defaults to 2x SmallBlind.
	SmallBlind int64
	BigBlind   int64

	// NewDeck returns the deck for the next hand (nil => card.NewDeck).
	NewDeck func() *card.Deck
}

// DefaultConfig is a nine-seat 10/20 table.
func DefaultConfig() Config {
	return Config{
		MaxPlayers: 9,
		MinPlayers: 2,
		SmallBlind: 10,
		BigBlind:   20,
	}
}

func (c *Config) normalize() {
	if c.MinPlayers == 0 {
		c.MinPlayers = 2
	}
	if c.BigBlind == 0 {
		c.BigBlind = 2 * c.SmallBlind
	}
	if c.NewDeck == nil {
		c.NewDeck = card.NewDeck
	}
}

func (c Config) validate() error {
	if c.MaxPlayers < 2 || c.MaxPlayers > 23 {
		return fmt.Errorf("MaxPlayers must be in [2, 23], got %d", c.MaxPlayers)
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("MinPlayers must be >= 2")
	}
	if c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("MinPlayers must be <= MaxPlayers")
	}
	if c.SmallBlind <= 0 || c.BigBlind < c.SmallBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	return nil
}
