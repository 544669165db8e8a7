package auth

import "context"

// Service is the account/token contract consumed by the gateway and HTTP handlers.
type Service interface {
	Register(ctx context.Context, username, password string) (Account, error)
	// Login checks credentials and issues a bearer token.
	Login(ctx context.Context, username, password string) (token string, acct Account, err error)
	// Authenticate resolves a bearer token to its account.
	Authenticate(ctx context.Context, token string) (Account, error)
	Close() error
}
