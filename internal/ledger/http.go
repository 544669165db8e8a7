package ledger

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type HTTPHandler struct {
	service Service
}

func NewHTTPHandler(service Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/leaderboard", h.handleLeaderboard)
	r.GET("/rooms/:room/hands", h.handleRecentHands)
}

func (h *HTTPHandler) handleLeaderboard(c *gin.Context) {
	standings, err := h.service.Leaderboard(c.Request.Context(), queryLimit(c))
	if err != nil {
		logger.Error().Err(err).Msg("Leaderboard query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": standings})
}

func (h *HTTPHandler) handleRecentHands(c *gin.Context) {
	hands, err := h.service.RecentHands(c.Request.Context(), c.Param("room"), queryLimit(c))
	if err != nil {
		logger.Error().Err(err).Msg("Hand history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hand history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hands": hands})
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}
