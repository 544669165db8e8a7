package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pokerverse/internal/store"
)

const queryTimeout = 5 * time.Second

// SQLStore keeps accounts in sqlite or postgres through sqlx.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore uses db, which must carry the store schema.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type accountRow struct {
	ID            int64         `db:"id"`
	Username      string        `db:"username"`
	PasswordHash  string        `db:"password_hash"`
	CreatedAtMs   int64         `db:"created_at_ms"`
	LastLoginAtMs sql.NullInt64 `db:"last_login_at_ms"`
}

func (r accountRow) account() Account {
	acct := Account{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: []byte(r.PasswordHash),
		CreatedAt:    time.UnixMilli(r.CreatedAtMs).UTC(),
	}
	if r.LastLoginAtMs.Valid {
		acct.LastLoginAt = time.UnixMilli(r.LastLoginAtMs.Int64).UTC()
	}
	return acct
}

func (s *SQLStore) CreateAccount(ctx context.Context, acct Account) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}
	query := s.db.Rebind(`
INSERT INTO accounts (username, password_hash, created_at_ms)
VALUES (?, ?, ?)
RETURNING id`)
	err := s.db.GetContext(ctx, &acct.ID, query, acct.Username, string(acct.PasswordHash), acct.CreatedAt.UnixMilli())
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Account{}, ErrUsernameTaken
		}
		return Account{}, errors.Wrap(err, "insert account")
	}
	return acct, nil
}

func (s *SQLStore) AccountByUsername(ctx context.Context, username string) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row accountRow
	query := s.db.Rebind(`
SELECT id, username, password_hash, created_at_ms, last_login_at_ms
FROM accounts
WHERE lower(username) = ?`)
	if err := s.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, errors.Wrapf(err, "load account %s", username)
	}
	return row.account(), nil
}

func (s *SQLStore) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.db.Rebind(`UPDATE accounts SET last_login_at_ms = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, at.UnixMilli(), id)
	if err != nil {
		return errors.Wrap(err, "update last login")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Close is a no-op: the database is shared and closed by its owner.
func (s *SQLStore) Close() error { return nil }
