package auth

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common session errors, named in the style of the teacher's JWT service.
var (
	ErrInvalidToken        = errors.New("auth: invalid session token")
	ErrExpiredToken        = errors.New("auth: session token expired")
	ErrInvalidSecretLength = errors.New("auth: session secret must be at least 32 bytes")
)

// SessionConfig configures token issuance.
type SessionConfig struct {
	// Secret is the HMAC signing key, at least 32 bytes.
	Secret string
	// Issuer is the token issuer claim. Default: "yeetbox".
	Issuer string
	// TokenDuration is the session lifetime. Default: 1 hour.
	TokenDuration time.Duration
	// AllowAnonymous permits requests from peers with no session to
	// proceed as an anonymous identity rather than being rejected with
	// unauthenticated (spec.md §4.5).
	AllowAnonymous bool
}

// claims is the JWT payload for a session token.
type claims struct {
	jwt.RegisteredClaims
	AuthcID   string `json:"authcid"`
	Anonymous bool   `json:"anonymous"`
}

// SessionManager issues and resolves session tokens, and maps connected
// peer addresses to the session negotiated for them — mirroring
// spec.md §4.5's "keyed by peer network address + port" resolution.
type SessionManager struct {
	config SessionConfig

	mu       sync.RWMutex
	byPeer   map[string]Identity
}

// NewSessionManager validates config and returns a SessionManager.
func NewSessionManager(config SessionConfig) (*SessionManager, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if config.Issuer == "" {
		config.Issuer = "yeetbox"
	}
	if config.TokenDuration == 0 {
		config.TokenDuration = time.Hour
	}
	return &SessionManager{config: config, byPeer: make(map[string]Identity)}, nil
}

// IssueToken mints a signed session token for identity.
func (m *SessionManager) IssueToken(identity Identity) (string, error) {
	now := time.Now()
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   identity.AuthcID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenDuration)),
		},
		AuthcID:   identity.AuthcID,
		Anonymous: identity.Anonymous,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token, returning the
// Identity it carries.
func (m *SessionManager) ValidateToken(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	return Identity{AuthcID: c.AuthcID, Anonymous: c.Anonymous}, nil
}

// BindPeer associates identity with the connection's remote address for
// the lifetime of that connection, so later RPCs on the same peer don't
// need to re-send the session token.
func (m *SessionManager) BindPeer(peer net.Addr, identity Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPeer[peer.String()] = identity
}

// UnbindPeer removes a peer's bound identity when its connection closes.
func (m *SessionManager) UnbindPeer(peer net.Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byPeer, peer.String())
}

// Resolve looks up the session bound to peer. If absent and
// AllowAnonymous is configured, returns an anonymous identity instead of
// an error (spec.md §4.5: "absent session is either rejected
// (unauthenticated) or permitted as an anonymous session, depending on
// configuration").
func (m *SessionManager) Resolve(peer net.Addr) (Identity, error) {
	m.mu.RLock()
	identity, ok := m.byPeer[peer.String()]
	m.mu.RUnlock()
	if ok {
		return identity, nil
	}
	if m.config.AllowAnonymous {
		return Identity{Anonymous: true}, nil
	}
	return Identity{}, ErrUnauthenticated
}

// ErrUnauthenticated is returned by Resolve when no session is bound to
// the peer and anonymous access is not configured.
var ErrUnauthenticated = errors.New("auth: no session for peer")
