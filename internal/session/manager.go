// Package session reads the authenticated user record kept in durable storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/golang-jwt/jwt/v5"
)

// Profile is the customer identity used for orders and address seeding.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Session is the persisted login record.
type Session struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

type sessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Manager exposes the session record. The core only reads it; Save and Clear exist for the login hand-off.
type Manager struct {
	store sessionStore
	key   string
	logg  *logger.Logger
	now   func() time.Time
}

// NewManager builds a session manager over store.
func NewManager(store sessionStore, key string, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("session key required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{store: store, key: key, logg: logg, now: time.Now}, nil
}

// Current returns the stored session. ok is false when none is stored or the record is unreadable.
func (m *Manager) Current(ctx context.Context) (Session, bool) {
	raw, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logg.WarnErr(ctx, "session read failed", err)
		}
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		m.logg.WarnErr(ctx, "session record is malformed", err)
		return Session{}, false
	}
	s.Token = strings.TrimSpace(s.Token)
	return s, s.Token != ""
}

// Authenticated reports whether a non-expired token is stored.
func (m *Manager) Authenticated(ctx context.Context) bool {
	s, ok := m.Current(ctx)
	return ok && !m.expired(s.Token)
}

// Profile returns the user profile of an authenticated session.
func (m *Manager) Profile(ctx context.Context) (Profile, bool) {
	s, ok := m.Current(ctx)
	if !ok || m.expired(s.Token) {
		return Profile{}, false
	}
	return s.User, true
}

// Token implements backend.TokenSource. An absent or expired session yields an empty token.
func (m *Manager) Token(ctx context.Context) (string, error) {
	s, ok := m.Current(ctx)
	if !ok || m.expired(s.Token) {
		return "", nil
	}
	return s.Token, nil
}

// Save stores the session handed over after a backend login.
func (m *Manager) Save(ctx context.Context, s Session) error {
	if strings.TrimSpace(s.Token) == "" {
		return fmt.Errorf("session token required")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return m.store.Set(ctx, m.key, string(payload))
}

// Clear removes the stored session.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Delete(ctx, m.key)
}

// expired inspects the exp claim without verifying the signature; only the backend holds the key.
// Tokens that are not JWTs are opaque and never considered expired here.
func (m *Manager) expired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(m.now())
}
