package auth

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	perrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var logger = log.With().Str("logger_name", "auth::manager").Logger()

const defaultCacheSize = 4096

type cachedAccount struct {
	acct      Account
	expiresAt time.Time
}

// Manager implements Service: bcrypt credentials in an AccountStore and
// stateless JWT bearer tokens. Resolved tokens are kept in an LRU so the
// gateway does not hit the store on every connect.
type Manager struct {
	store  AccountStore
	tokens *tokenSigner
	cache  *lru.Cache[string, cachedAccount]
	cost   int
}

// NewManager builds a Manager. cacheSize <= 0 selects the default.
func NewManager(store AccountStore, secret string, ttl time.Duration, cacheSize int) (*Manager, error) {
	if secret == "" {
		return nil, perrors.New("empty jwt secret")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, cachedAccount](cacheSize)
	if err != nil {
		return nil, perrors.Wrap(err, "Unable to initialize token cache")
	}
	return &Manager{
		store:  store,
		tokens: newTokenSigner(secret, ttl),
		cache:  cache,
		cost:   bcrypt.DefaultCost,
	}, nil
}

// Register creates a new account.
func (m *Manager) Register(ctx context.Context, username, password string) (Account, error) {
	if err := validateUsername(username); err != nil {
		return Account{}, err
	}
	if err := validatePassword(password); err != nil {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return Account{}, perrors.Wrap(err, "hash password")
	}
	acct, err := m.store.CreateAccount(ctx, Account{
		Username:     normalizeUsername(username),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Account{}, err
	}
	logger.Info().Str("username", acct.Username).Int64("account", acct.ID).Msg("Registered")
	return acct, nil
}

// Login validates credentials and returns a fresh bearer token.
func (m *Manager) Login(ctx context.Context, username, password string) (string, Account, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return "", Account{}, ErrInvalidCredentials
	}

	acct, err := m.store.AccountByUsername(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", Account{}, ErrInvalidCredentials
		}
		return "", Account{}, err
	}
	if bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)) != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := m.store.TouchLogin(ctx, acct.ID, now); err != nil {
		logger.Warn().Err(err).Int64("account", acct.ID).Msg("Failed to record login")
	}
	acct.LastLoginAt = now

	token, exp, err := m.tokens.Issue(acct.Username)
	if err != nil {
		return "", Account{}, perrors.Wrap(err, "sign token")
	}
	m.cache.Add(token, cachedAccount{acct: acct, expiresAt: exp})
	return token, acct, nil
}

// Authenticate resolves a bearer token.
func (m *Manager) Authenticate(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrInvalidToken
	}
	now := m.tokens.now()
	if c, ok := m.cache.Get(token); ok {
		if now.Before(c.expiresAt) {
			return c.acct, nil
		}
		m.cache.Remove(token)
		return Account{}, ErrInvalidToken
	}

	username, exp, err := m.tokens.Verify(token)
	if err != nil {
		return Account{}, err
	}
	acct, err := m.store.AccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrInvalidToken
		}
		return Account{}, err
	}
	m.cache.Add(token, cachedAccount{acct: acct, expiresAt: exp})
	return acct, nil
}

func (m *Manager) Close() error {
	m.cache.Purge()
	return m.store.Close()
}
