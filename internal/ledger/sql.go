package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const queryTimeout = 5 * time.Second

// SQLService persists results in sqlite or postgres through sqlx.
type SQLService struct {
	db *sqlx.DB
}

// NewSQLService uses db, which must carry the store schema.
func NewSQLService(db *sqlx.DB) *SQLService {
	return &SQLService{db: db}
}

// RecordHand stores the hand and folds it into the leaderboard. A hand
// already recorded is ignored.
func (s *SQLService) RecordHand(ctx context.Context, rec HandRecord) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
INSERT INTO hands (id, room_id, hand_number, board, pot, winners, played_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`),
		rec.ID, rec.RoomID, rec.HandNumber, rec.Board, rec.Pot, strings.Join(rec.Winners, ","), rec.PlayedAt.UnixMilli())
	if err != nil {
		return errors.Wrapf(err, "insert hand %s", rec.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	nowMs := time.Now().UTC().UnixMilli()
	for _, p := range rec.Players {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
INSERT INTO hand_players (hand_id, username, seat, net, won)
VALUES (?, ?, ?, ?, ?)`), rec.ID, p.Username, p.Seat, p.Net, p.Won); err != nil {
			return errors.Wrapf(err, "insert hand player %s", p.Username)
		}

		won := int64(0)
		if p.Won > 0 {
			won = 1
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
INSERT INTO leaderboard (username, hands_played, hands_won, chips_won, net, updated_at_ms)
VALUES (?, 1, ?, ?, ?, ?)
ON CONFLICT (username) DO UPDATE SET
    hands_played = leaderboard.hands_played + 1,
    hands_won = leaderboard.hands_won + excluded.hands_won,
    chips_won = leaderboard.chips_won + excluded.chips_won,
    net = leaderboard.net + excluded.net,
    updated_at_ms = excluded.updated_at_ms`),
			p.Username, won, maxInt64(p.Won, 0), p.Net, nowMs); err != nil {
			return errors.Wrapf(err, "update leaderboard for %s", p.Username)
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}

func (s *SQLService) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out := []Standing{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
SELECT username, hands_played, hands_won, chips_won, net
FROM leaderboard
ORDER BY chips_won DESC, username ASC
LIMIT ?`), clampLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "select leaderboard")
	}
	return out, nil
}

type handRow struct {
	ID         string `db:"id"`
	RoomID     string `db:"room_id"`
	HandNumber int    `db:"hand_number"`
	Board      string `db:"board"`
	Pot        int64  `db:"pot"`
	Winners    string `db:"winners"`
	PlayedAtMs int64  `db:"played_at_ms"`
}

func (s *SQLService) RecentHands(ctx context.Context, roomID string, limit int) ([]HandRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []handRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
SELECT id, room_id, hand_number, board, pot, winners, played_at_ms
FROM hands
WHERE room_id = ?
ORDER BY hand_number DESC, played_at_ms DESC
LIMIT ?`), roomID, clampLimit(limit))
	if err != nil {
		return nil, errors.Wrapf(err, "select hands of %s", roomID)
	}

	out := make([]HandRecord, 0, len(rows))
	for _, r := range rows {
		rec := HandRecord{
			ID:         r.ID,
			RoomID:     r.RoomID,
			HandNumber: r.HandNumber,
			Board:      r.Board,
			Pot:        r.Pot,
			Winners:    []string{},
			PlayedAt:   time.UnixMilli(r.PlayedAtMs).UTC(),
		}
		if r.Winners != "" {
			rec.Winners = strings.Split(r.Winners, ",")
		}
		err := s.db.SelectContext(ctx, &rec.Players, s.db.Rebind(`
SELECT username, seat, net, won
FROM hand_players
WHERE hand_id = ?
ORDER BY seat`), r.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "select players of hand %s", r.ID)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close is a no-op: the database is shared and closed by its owner.
func (s *SQLService) Close() error { return nil }

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
