package auth

import (
	"github.com/jmoiron/sqlx"

	"pokerverse/internal/config"
)

// NewService builds the auth service on db, or on an in-memory store
// when db is nil.
func NewService(cfg config.AuthConfig, db *sqlx.DB) (Service, error) {
	var accounts AccountStore
	if db == nil {
		accounts = NewMemoryStore()
	} else {
		accounts = NewSQLStore(db)
	}
	return NewManager(accounts, cfg.JWTSecret, cfg.TokenTTL, cfg.CacheSize)
}
