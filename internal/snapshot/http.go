package snapshot

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pokerverse/internal/codec"
)

var logger = log.With().Str("logger_name", "snapshot::http").Logger()

type roomSummary struct {
	RoomID     string `json:"room_id"`
	Street     string `json:"street"`
	HandNumber int    `json:"hand_number"`
	Players    int    `json:"players"`
	Pot        int64  `json:"pot"`
	Frozen     bool   `json:"frozen,omitempty"`
}

type HTTPHandler struct {
	store Store
}

func NewHTTPHandler(store Store) *HTTPHandler {
	return &HTTPHandler{store: store}
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/rooms", h.handleRooms)
}

func (h *HTTPHandler) handleRooms(c *gin.Context) {
	rooms, err := h.store.List(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Room listing failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "room listing unavailable"})
		return
	}

	out := make([]roomSummary, 0, len(rooms))
	for _, id := range sortedIDs(rooms) {
		env, err := codec.DecodeEnvelope(rooms[id])
		if err != nil || env.State == nil {
			logger.Warn().Err(err).Str("room", id).Msg("Skipping unreadable snapshot")
			continue
		}
		out = append(out, roomSummary{
			RoomID:     id,
			Street:     env.State.Street,
			HandNumber: env.State.HandNumber,
			Players:    len(env.State.Players),
			Pot:        env.State.Pot,
			Frozen:     env.State.Frozen,
		})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}
