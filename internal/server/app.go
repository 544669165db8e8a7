package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pokerverse/internal/auth"
	"pokerverse/internal/config"
	"pokerverse/internal/gateway"
	"pokerverse/internal/ledger"
	"pokerverse/internal/lobby"
	"pokerverse/internal/snapshot"
	"pokerverse/internal/store"
	"pokerverse/internal/table"
)

// App is a fully wired server.
type App struct {
	HTTP *http.Server

	db        *sqlx.DB
	auth      auth.Service
	ledger    ledger.Service
	publisher ledger.Publisher
	snapshots snapshot.Store
	lobby     *lobby.Lobby
	gateway   *gateway.Gateway
}

// TableConfig converts the table section of cfg.
func TableConfig(cfg config.TableConfig) table.Config {
	return table.Config{
		MaxPlayers:    cfg.MaxPlayers,
		SmallBlind:    cfg.SmallBlind,
		StartingChips: cfg.StartingChips,
		TurnTimeout:   cfg.TurnTimeout,
		ShowdownDelay: cfg.ShowdownDelay,
		SeatRelease:   cfg.SeatRelease,
	}
}

// New builds every component from cfg. Optional backends (redis, nats)
// are used only when configured.
func New(cfg config.Config) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	db, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	app.db = db

	if app.auth, err = auth.NewService(cfg.Auth, db); err != nil {
		return nil, errors.Wrap(err, "init auth")
	}

	if db == nil {
		app.ledger = ledger.NewMemoryService()
	} else {
		app.ledger = ledger.NewSQLService(db)
	}
	if cfg.NATS.URL != "" {
		pub, err := ledger.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, err
		}
		app.publisher = pub
	}

	if cfg.Redis.Addr != "" {
		rs := snapshot.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rs.Ping(ctx)
		cancel()
		if err != nil {
			rs.Close()
			return nil, err
		}
		app.snapshots = rs
	} else {
		app.snapshots = snapshot.NewMemoryStore()
	}

	recorder := ledger.NewRecorder(app.ledger, app.publisher)
	app.lobby = lobby.New(TableConfig(cfg.Table),
		table.WithHandEndHook(recorder.HandEnded),
		table.WithSnapshotSink(app.snapshots),
	)
	app.gateway = gateway.New(app.lobby, app.auth, cfg.Gateway)

	app.HTTP = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(app.gateway, app.auth, app.ledger, app.snapshots),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ok = true
	return app, nil
}

// Shutdown stops accepting requests, then closes rooms and backends.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.HTTP.Shutdown(ctx)
	a.Close()
	return err
}

// Close releases everything except the HTTP listener.
func (a *App) Close() {
	if a.gateway != nil {
		a.gateway.CloseAll()
	}
	if a.lobby != nil {
		a.lobby.Shutdown()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			logger.Warn().Err(err).Msg("Close snapshot store")
		}
	}
	if a.ledger != nil {
		a.ledger.Close()
	}
	if a.auth != nil {
		a.auth.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn().Err(err).Msg("Close database")
		}
	}
}
