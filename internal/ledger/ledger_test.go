package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerverse/card"
	"pokerverse/holdem"
	"pokerverse/internal/store"
	"pokerverse/internal/table"
)

func services(t *testing.T) map[string]Service {
	db, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Service{
		"memory": NewMemoryService(),
		"sqlite": NewSQLService(db),
	}
}

func hand(id, room string, number int, players ...PlayerRecord) HandRecord {
	rec := HandRecord{
		ID:         id,
		RoomID:     room,
		HandNumber: number,
		Board:      "As Kd 2c",
		Pot:        120,
		Winners:    []string{},
		PlayedAt:   time.UnixMilli(int64(number) * 1000).UTC(),
		Players:    players,
	}
	for _, p := range players {
		if p.Won > 0 {
			rec.Winners = append(rec.Winners, p.Username)
		}
	}
	return rec
}

func TestService_LeaderboardOrdersByChipsWon(t *testing.T) {
	for name, svc := range services(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, svc.RecordHand(ctx, hand("h1", "abc", 1,
				PlayerRecord{Username: "A", Seat: 0, Net: 60, Won: 120},
				PlayerRecord{Username: "B", Seat: 1, Net: -60},
			)))
			require.NoError(t, svc.RecordHand(ctx, hand("h2", "abc", 2,
				PlayerRecord{Username: "A", Seat: 0, Net: -20},
				PlayerRecord{Username: "B", Seat: 1, Net: 20, Won: 40},
			)))
			// duplicates are ignored
			require.NoError(t, svc.RecordHand(ctx, hand("h2", "abc", 2,
				PlayerRecord{Username: "B", Seat: 1, Net: 20, Won: 40},
			)))

			board, err := svc.Leaderboard(ctx, 10)
			require.NoError(t, err)
			assert.Equal(t, []Standing{
				{Username: "A", HandsPlayed: 2, HandsWon: 1, ChipsWon: 120, Net: 40},
				{Username: "B", HandsPlayed: 2, HandsWon: 1, ChipsWon: 40, Net: -40},
			}, board)

			board, err = svc.Leaderboard(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, board, 1)
		})
	}
}

func TestService_RecentHandsNewestFirst(t *testing.T) {
	for name, svc := range services(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"h1", "h2", "h3"} {
				require.NoError(t, svc.RecordHand(ctx, hand(id, "abc", i+1,
					PlayerRecord{Username: "A", Seat: 0, Net: 10, Won: 20},
					PlayerRecord{Username: "B", Seat: 1, Net: -10},
				)))
			}
			require.NoError(t, svc.RecordHand(ctx, hand("x1", "other", 1)))

			hands, err := svc.RecentHands(ctx, "abc", 2)
			require.NoError(t, err)
			require.Len(t, hands, 2)
			assert.Equal(t, "h3", hands[0].ID)
			assert.Equal(t, "h2", hands[1].ID)
			assert.Equal(t, []string{"A"}, hands[0].Winners)
			assert.Equal(t, []PlayerRecord{
				{Username: "A", Seat: 0, Net: 10, Won: 20},
				{Username: "B", Seat: 1, Net: -10},
			}, hands[0].Players)
		})
	}
}

type capturePublisher struct {
	mu   sync.Mutex
	recs []HandRecord
}

func (p *capturePublisher) Publish(rec HandRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
	return nil
}

func (p *capturePublisher) Close() {}

func TestRecorder_HandEnded(t *testing.T) {
	svc := NewMemoryService()
	pub := &capturePublisher{}
	r := NewRecorder(svc, pub)

	r.HandEnded(table.HandEndInfo{
		RoomID:     "abc",
		HandNumber: 7,
		PlayedAt:   time.Now(),
		Result: &holdem.Result{
			HandNumber: 7,
			Board:      card.MustParse("As Kd 2c 7h 9s"),
			Pots:       []holdem.PotResult{{Amount: 40, Eligible: []int{0, 1}, Winners: []int{1}, Shares: []int64{40}}},
			Players: []holdem.PlayerResult{
				{Seat: 0, Username: "A", Net: -20},
				{Seat: 1, Username: "B", Won: 40, Net: 20},
			},
		},
	})

	hands, err := svc.RecentHands(context.Background(), "abc", 10)
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Equal(t, int64(40), hands[0].Pot)
	assert.Equal(t, []string{"B"}, hands[0].Winners)
	assert.NotEmpty(t, hands[0].ID)
	assert.Equal(t, card.Format(card.MustParse("As Kd 2c 7h 9s")), hands[0].Board)

	require.Len(t, pub.recs, 1)
	assert.Equal(t, hands[0].ID, pub.recs[0].ID)
}

func TestHTTP_Leaderboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewMemoryService()
	require.NoError(t, svc.RecordHand(context.Background(), hand("h1", "abc", 1,
		PlayerRecord{Username: "A", Net: 10, Won: 20},
	)))
	r := gin.New()
	NewHTTPHandler(svc).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"players":[{"username":"A","hands_played":1,"hands_won":1,"chips_won":20,"net":10}]}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/abc/hands", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"h1"`)
}

func TestNATSPublisher_UnreachableServer(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "pokerverse.hands")
	assert.Error(t, err)
}
