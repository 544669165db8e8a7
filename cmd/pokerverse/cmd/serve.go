package cmd

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pokerverse/internal/config"
	"pokerverse/internal/logging"
	"pokerverse/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load func() (config.Config, error)) *cobra.Command {
	var listen string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides listen_addr)")
	return serveCmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log.Logger = *logging.GetZeroLogger("pokerverse", os.Stdout)
	lvl := logging.SetLevel(cfg.LogLevel)
	if lvl > 0 {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		cfg.Auth.JWTSecret = secret
		log.Warn().Msg("No auth.jwt_secret configured; issued tokens will not survive a restart")
	}

	app, err := server.New(cfg)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Str("store", cfg.Store.Driver).
			Bool("redis", cfg.Redis.Addr != "").
			Bool("nats", cfg.NATS.URL != "").
			Msg("Starting server")
		errCh <- app.HTTP.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		app.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
