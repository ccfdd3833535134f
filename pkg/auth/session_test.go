package auth

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(s string) net.Addr {
	addr, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		panic(err)
	}
	return addr
}

func TestNewSessionManagerRejectsShortSecret(t *testing.T) {
	_, err := NewSessionManager(SessionConfig{Secret: "too-short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestNewSessionManagerAppliesDefaults(t *testing.T) {
	m, err := NewSessionManager(SessionConfig{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "yeetbox", m.config.Issuer)
	assert.Equal(t, time.Hour, m.config.TokenDuration)
}

func TestIssueAndValidateToken(t *testing.T) {
	m, err := NewSessionManager(SessionConfig{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	token, err := m.IssueToken(Identity{AuthcID: "alice"})
	require.NoError(t, err)

	identity, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.AuthcID)
	assert.False(t, identity.Anonymous)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m1, err := NewSessionManager(SessionConfig{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	m2, err := NewSessionManager(SessionConfig{Secret: "fedcba9876543210fedcba9876543210"})
	require.NoError(t, err)

	token, err := m1.IssueToken(Identity{AuthcID: "alice"})
	require.NoError(t, err)

	_, err = m2.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpiredToken(t *testing.T) {
	m, err := NewSessionManager(SessionConfig{
		Secret:        "0123456789abcdef0123456789abcdef",
		TokenDuration: time.Millisecond,
	})
	require.NoError(t, err)

	token, err := m.IssueToken(Identity{AuthcID: "alice"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestBindResolveUnbindPeer(t *testing.T) {
	m, err := NewSessionManager(SessionConfig{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	peer := testAddr("127.0.0.1:5555")
	m.BindPeer(peer, Identity{AuthcID: "alice"})

	identity, err := m.Resolve(peer)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.AuthcID)

	m.UnbindPeer(peer)
	_, err = m.Resolve(peer)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveUnboundPeerAllowsAnonymousWhenConfigured(t *testing.T) {
	m, err := NewSessionManager(SessionConfig{
		Secret:         "0123456789abcdef0123456789abcdef",
		AllowAnonymous: true,
	})
	require.NoError(t, err)

	identity, err := m.Resolve(testAddr("127.0.0.1:6666"))
	require.NoError(t, err)
	assert.True(t, identity.Anonymous)
}

func TestResolveUnboundPeerRejectsWithoutAnonymous(t *testing.T) {
	m, err := NewSessionManager(SessionConfig{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	_, err = m.Resolve(testAddr("127.0.0.1:7777"))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
