// Package auth guards admin operations with a shared secret. A successful
// login yields a short-lived HS256 token signed with that secret.
package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/okian/skillhub/pkg/metrics"
)

const (
	issuer       = "skillhub"
	adminSubject = "admin"
	defaultTTL   = 12 * time.Hour
)

// Token is an issued admin credential.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Gate authenticates admins against one configured secret.
type Gate struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithTTL sets how long issued tokens stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithClock overrides the issuing clock.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate returns a Gate for secret. An empty secret disables admin access.
func NewGate(secret string, opts ...Option) *Gate {
	g := &Gate{secret: []byte(secret), ttl: defaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured reports whether a secret is set.
func (g *Gate) Configured() bool { return len(g.secret) > 0 }

// Authenticate checks supplied against the secret and issues a token.
func (g *Gate) Authenticate(supplied string) (Token, error) {
	if !g.Configured() {
		metrics.RecordAuthAttempt("unconfigured")
		return Token{}, ErrNotConfigured
	}
	if !g.matchesSecret(supplied) {
		metrics.RecordAuthAttempt("rejected")
		return Token{}, ErrUnauthorized
	}

	now := g.now()
	exp := now.Add(g.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	metrics.RecordAuthAttempt("accepted")
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Verify accepts a token issued by Authenticate that has not expired, or the
// raw secret itself for scripted access.
func (g *Gate) Verify(credential string) error {
	if !g.Configured() {
		return ErrNotConfigured
	}
	if credential == "" {
		return ErrUnauthorized
	}
	if g.matchesSecret(credential) {
		return nil
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !tok.Valid {
		return ErrUnauthorized
	}
	if claims.Subject != adminSubject || !claims.VerifyIssuer(issuer, true) {
		return ErrUnauthorized
	}
	return nil
}

func (g *Gate) matchesSecret(s string) bool {
	return subtle.ConstantTimeCompare([]byte(s), g.secret) == 1
}
