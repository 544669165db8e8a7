package ledger

import (
	"context"
	"time"

	"pokerverse/card"
	"pokerverse/internal/table"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

// HandRecord is one settled hand as persisted and published.
type HandRecord struct {
	ID         string         `json:"id"`
	RoomID     string         `json:"room_id"`
	HandNumber int            `json:"hand_number"`
	Board      string         `json:"board"`
	Pot        int64          `json:"pot"`
	Winners    []string       `json:"winners"`
	PlayedAt   time.Time      `json:"played_at"`
	Players    []PlayerRecord `json:"players"`
}

type PlayerRecord struct {
	Username string `json:"username" db:"username"`
	Seat     int    `json:"seat" db:"seat"`
	Net      int64  `json:"net" db:"net"`
	Won      int64  `json:"won" db:"won"`
}

// Standing is a leaderboard row.
type Standing struct {
	Username    string `json:"username" db:"username"`
	HandsPlayed int64  `json:"hands_played" db:"hands_played"`
	HandsWon    int64  `json:"hands_won" db:"hands_won"`
	ChipsWon    int64  `json:"chips_won" db:"chips_won"`
	Net         int64  `json:"net" db:"net"`
}

// Service stores hand results and serves the leaderboard.
type Service interface {
	RecordHand(ctx context.Context, rec HandRecord) error
	// Leaderboard returns players ordered by chips won.
	Leaderboard(ctx context.Context, limit int) ([]Standing, error)
	RecentHands(ctx context.Context, roomID string, limit int) ([]HandRecord, error)
	Close() error
}

// NewHandRecord converts a settled hand.
func NewHandRecord(id string, info table.HandEndInfo) HandRecord {
	rec := HandRecord{
		ID:         id,
		RoomID:     info.RoomID,
		HandNumber: info.HandNumber,
		PlayedAt:   info.PlayedAt.UTC(),
		Winners:    []string{},
	}
	if info.Result == nil {
		return rec
	}
	rec.Board = card.Format(info.Result.Board)
	rec.Winners = info.Result.Winners()
	for _, p := range info.Result.Pots {
		rec.Pot += p.Amount
	}
	for _, p := range info.Result.Players {
		rec.Players = append(rec.Players, PlayerRecord{
			Username: p.Username,
			Seat:     p.Seat,
			Net:      p.Net,
			Won:      p.Won,
		})
	}
	return rec
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		return maxLeaderboardLimit
	}
	return limit
}
