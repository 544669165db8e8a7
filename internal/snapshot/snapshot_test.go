package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerverse/holdem"
	"pokerverse/internal/codec"
)

func encodedRoom(t *testing.T, id string, players ...string) []byte {
	t.Helper()
	v := holdem.StateView{RoomID: id, Street: holdem.StreetWaiting}
	for i, name := range players {
		v.Players = append(v.Players, holdem.PlayerView{Username: name, Seat: i, Chips: 1000})
	}
	data, err := codec.EncodeState(v)
	require.NoError(t, err)
	return data
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, "b", []byte("2")))
	require.NoError(t, s.Save(ctx, "a", []byte("1")))
	require.NoError(t, s.Save(ctx, "a", []byte("3")))

	rooms, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("3"), "b": []byte("2")}, rooms)
	assert.Equal(t, []string{"a", "b"}, sortedIDs(rooms))

	require.NoError(t, s.Remove(ctx, "a"))
	rooms, _ = s.List(ctx)
	assert.Len(t, rooms, 1)
}

func TestHTTP_Rooms(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, "zed", encodedRoom(t, "zed", "A")))
	require.NoError(t, s.Save(ctx, "abc", encodedRoom(t, "abc", "A", "B")))
	require.NoError(t, s.Save(ctx, "bad", []byte("not json")))

	r := gin.New()
	NewHTTPHandler(s).RegisterRoutes(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rooms":[
		{"room_id":"abc","street":"waiting","hand_number":0,"players":2,"pot":0},
		{"room_id":"zed","street":"waiting","hand_number":0,"players":1,"pot":0}
	]}`, w.Body.String())
}

func TestRedisStore_Unreachable(t *testing.T) {
	s := NewRedisStore("127.0.0.1:1", "", 0)
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, s.Ping(ctx))
	assert.Error(t, s.Save(ctx, "abc", []byte("{}")))
}
