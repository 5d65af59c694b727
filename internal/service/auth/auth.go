// Package auth handles login, token refresh and session revocation. Tokens
// are PASETO v4.local; each token's jti doubles as the Redis session key so
// logout revokes immediately instead of waiting for expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/config"
	"github.com/mentorweb/mentorweb_backend/internal/model"
	pasetotoken "github.com/mentorweb/mentorweb_backend/pkg/paseto"
	"github.com/mentorweb/mentorweb_backend/pkg/password"
)

func redisKeySession(tokenID string) string { return "session:" + tokenID }

type LoginRequest struct {
	Email    string
	Password string
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until the access token expires
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	// Logout revokes the session behind an access token. Unknown sessions
	// are not an error; the client's goal is already met.
	Logout(ctx context.Context, tokenID string) error
	// VerifySession checks the token and that its session is still live.
	VerifySession(ctx context.Context, token string) (*pasetotoken.Claims, error)
}

type authService struct {
	db     *gorm.DB
	rdb    *goredis.Client
	paseto *pasetotoken.Manager
	cfg    *config.Config
}

func New(db *gorm.DB, rdb *goredis.Client, paseto *pasetotoken.Manager, cfg *config.Config) Service {
	return &authService{db: db, rdb: rdb, paseto: paseto, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := password.Verify(req.Password, u.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if u.Status != model.UserActive {
		return nil, ErrAccountInactive
	}

	return s.issueTokens(ctx, &u)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	if err := s.rdb.Get(ctx, redisKeySession(claims.TokenID)).Err(); err == goredis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var u model.User
	err = s.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Status != model.UserActive {
		return nil, ErrAccountInactive
	}

	// The old refresh token's session dies; the caller keeps one live pair.
	_ = s.rdb.Del(ctx, redisKeySession(claims.TokenID)).Err()

	return s.issueTokens(ctx, &u)
}

func (s *authService) Logout(ctx context.Context, tokenID string) error {
	if err := s.rdb.Del(ctx, redisKeySession(tokenID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *authService) VerifySession(ctx context.Context, token string) (*pasetotoken.Claims, error) {
	claims, err := s.paseto.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeAccess {
		return nil, ErrInvalidToken
	}

	if err := s.rdb.Get(ctx, redisKeySession(claims.TokenID)).Err(); err == goredis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return claims, nil
}

func (s *authService) issueTokens(ctx context.Context, u *model.User) (*AuthTokens, error) {
	access, accessClaims, err := s.paseto.IssueAccess(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshClaims, err := s.paseto.IssueRefresh(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	ttl := time.Duration(s.cfg.Authentication.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Until(refreshClaims.ExpiresAt)
	}

	// Both tokens anchor a live session entry.
	if err := s.rdb.Set(ctx, redisKeySession(accessClaims.TokenID), u.ID.String(), time.Until(accessClaims.ExpiresAt)).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeySession(refreshClaims.TokenID), u.ID.String(), ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessClaims.ExpiresAt).Seconds()),
	}, nil
}
