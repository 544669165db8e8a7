package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"pokerverse/internal/auth"
	"pokerverse/internal/gateway"
	"pokerverse/internal/ledger"
	"pokerverse/internal/snapshot"
)

var logger = log.With().Str("logger_name", "server::http").Logger()

// NewRouter mounts every HTTP surface of the server.
func NewRouter(gw *gateway.Gateway, authSvc auth.Service, ledgerSvc ledger.Service, snapshots snapshot.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	gw.RegisterRoutes(r)
	auth.NewHTTPHandler(authSvc).RegisterRoutes(r)
	ledger.NewHTTPHandler(ledgerSvc).RegisterRoutes(r)
	snapshot.NewHTTPHandler(snapshots).RegisterRoutes(r)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("Request")
	}
}
