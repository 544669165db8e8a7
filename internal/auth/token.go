package auth

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

const (
	defaultTokenTTL = 24 * time.Hour
	tokenIssuer     = "pokerverse"
)

// tokenSigner issues and verifies HS256 bearer tokens whose subject is
// the normalized username.
type tokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenSigner(secret string, ttl time.Duration) *tokenSigner {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &tokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *tokenSigner) Issue(username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.StandardClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  now.Unix(),
		ExpiresAt: exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify returns the subject and expiry of a valid token.
func (s *tokenSigner) Verify(raw string) (string, time.Time, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", time.Time{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Issuer != tokenIssuer {
		return "", time.Time{}, ErrInvalidToken
	}
	return claims.Subject, time.Unix(claims.ExpiresAt, 0), nil
}
