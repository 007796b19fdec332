// Package auth is the session gate in front of the app: it resolves the
// stored identity token at startup and exposes the signed-in user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andy/invoicer/internal/crypto"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrInvalidToken     = errors.New("invalid identity token")
)

// Identity is the signed-in user. ID scopes every owned row.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// Session holds the current identity. It starts in the loading state until
// Init has looked for a stored token.
type Session struct {
	mu      sync.RWMutex
	user    *Identity
	loading bool

	keyring crypto.Keyring
	issuer  *TokenIssuer
	logger  *zap.Logger
}

// NewSession creates a session in the loading state
func NewSession(keyring crypto.Keyring, issuer *TokenIssuer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{keyring: keyring, issuer: issuer, logger: logger, loading: true}
}

// State returns the current user (nil when signed out) and whether the
// session is still resolving
func (s *Session) State() (*Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.loading
}

// CurrentUser returns the signed-in user or ErrNotAuthenticated
func (s *Session) CurrentUser() (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, ErrNotAuthenticated
	}
	return s.user, nil
}

// Init restores the stored token. A missing token leaves the session signed
// out; an invalid one is discarded.
func (s *Session) Init(ctx context.Context) error {
	defer s.setLoading(false)

	if err := ctx.Err(); err != nil {
		return err
	}

	token, err := s.keyring.Get(crypto.KeySessionToken)
	if err != nil {
		if errors.Is(err, crypto.ErrSecretNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read session token: %w", err)
	}

	user, err := s.issuer.Verify(token)
	if err != nil {
		s.logger.Warn("discarding stored session token", zap.Error(err))
		_ = s.keyring.Delete(crypto.KeySessionToken)
		return nil
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// SignIn verifies token, stores it and makes its identity current
func (s *Session) SignIn(ctx context.Context, token string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	if err := s.keyring.Set(crypto.KeySessionToken, token); err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.loading = false
	s.mu.Unlock()

	s.logger.Info("signed in", zap.String("user_id", user.ID))
	return user, nil
}

// SignInWithEmail issues a local token for email and signs in with it
func (s *Session) SignInWithEmail(ctx context.Context, email, name string) (*Identity, error) {
	token, err := s.issuer.Issue(email, name)
	if err != nil {
		return nil, err
	}
	return s.SignIn(ctx, token)
}

// SignOut forgets the current identity and its stored token
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.user = nil
	s.loading = false
	s.mu.Unlock()

	if err := s.keyring.Delete(crypto.KeySessionToken); err != nil && !errors.Is(err, crypto.ErrSecretNotFound) {
		return fmt.Errorf("failed to remove session token: %w", err)
	}
	return nil
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}
