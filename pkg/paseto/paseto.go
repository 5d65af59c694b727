// Package pasetotoken issues and verifies PASETO v4.local access tokens.
package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/config"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the app-facing token payload.
type Claims struct {
	Type TokenType

	UserID uuid.UUID
	Role   string

	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Manager struct {
	key        paseto.V4SymmetricKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     paseto.Parser
}

// NewManager builds a Manager from central config. The symmetric key is a
// 64-char hex string.
func NewManager(cfg *config.Config) (*Manager, error) {
	pc := cfg.Authentication.Paseto

	key, err := paseto.V4SymmetricKeyFromHex(pc.LocalKeyHex)
	if err != nil {
		return nil, fmt.Errorf("paseto: invalid local key: %w", err)
	}

	issuer := pc.Issuer
	if issuer == "" {
		issuer = "mentorweb"
	}
	audience := pc.Audience
	if audience == "" {
		audience = "mentorweb-api"
	}

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(issuer))
	p.AddRule(paseto.ForAudience(audience))
	p.AddRule(paseto.NotExpired())

	m := &Manager{
		key:        key,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  time.Duration(pc.AccessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(pc.RefreshTTLMinutes) * time.Minute,
		parser:     p,
	}
	if m.accessTTL <= 0 {
		m.accessTTL = 15 * time.Minute
	}
	if m.refreshTTL <= 0 {
		m.refreshTTL = 30 * 24 * time.Hour
	}
	return m, nil
}

func (m *Manager) IssueAccess(userID uuid.UUID, role string) (string, *Claims, error) {
	return m.issue(TokenTypeAccess, userID, role, m.accessTTL)
}

func (m *Manager) IssueRefresh(userID uuid.UUID, role string) (string, *Claims, error) {
	return m.issue(TokenTypeRefresh, userID, role, m.refreshTTL)
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	tok, err := m.parser.ParseV4Local(m.key, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := extractClaims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	return claims, nil
}

func (m *Manager) issue(tt TokenType, userID uuid.UUID, role string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	jti := randHex(16)
	expires := now.Add(ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetAudience(m.audience)
	tok.SetJti(jti)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(expires)
	tok.SetSubject(userID.String())

	tok.SetString("typ", string(tt))
	tok.SetString("uid", userID.String())
	tok.SetString("role", role)

	claims := &Claims{
		Type:      tt,
		UserID:    userID,
		Role:      role,
		TokenID:   jti,
		IssuedAt:  now,
		ExpiresAt: expires,
	}
	return tok.V4Encrypt(m.key, nil), claims, nil
}

func extractClaims(tok *paseto.Token) (*Claims, error) {
	jti, err := tok.GetJti()
	if err != nil {
		return nil, err
	}
	iat, err := tok.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	exp, err := tok.GetExpiration()
	if err != nil {
		return nil, err
	}
	typ, err := tok.GetString("typ")
	if err != nil {
		return nil, err
	}
	uidStr, err := tok.GetString("uid")
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(uidStr)
	if err != nil {
		return nil, err
	}
	role, err := tok.GetString("role")
	if err != nil {
		return nil, err
	}

	return &Claims{
		Type:      TokenType(typ),
		UserID:    uid,
		Role:      role,
		TokenID:   jti,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
