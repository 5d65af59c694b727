package pasetotoken

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorweb/mentorweb_backend/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := &config.Config{}
	cfg.Authentication.Paseto.LocalKeyHex = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"
	cfg.Authentication.Paseto.AccessTTLMinutes = 15

	m, err := NewManager(cfg)
	require.NoError(t, err)
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager(t)
	userID := uuid.New()

	token, claims, err := m.IssueAccess(userID, "mentor")
	require.NoError(t, err)
	require.NotEmpty(t, claims.TokenID)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, got.Type)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "mentor", got.Role)
	assert.Equal(t, claims.TokenID, got.TokenID)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Verify("v4.local.not-a-real-token")
	require.Error(t, err)
	var invalid ErrInvalidToken
	assert.ErrorAs(t, err, &invalid)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	m := newTestManager(t)

	other := &config.Config{}
	other.Authentication.Paseto.LocalKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	m2, err := NewManager(other)
	require.NoError(t, err)

	token, _, err := m2.IssueAccess(uuid.New(), "student")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestRefreshTokenType(t *testing.T) {
	m := newTestManager(t)

	token, claims, err := m.IssueRefresh(uuid.New(), "student")
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, got.Type)
}

func TestInvalidKeyHex(t *testing.T) {
	cfg := &config.Config{}
	cfg.Authentication.Paseto.LocalKeyHex = "short"
	_, err := NewManager(cfg)
	assert.Error(t, err)
}
