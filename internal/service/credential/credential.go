package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/mentorweb/mentorweb_backend/config"
	"github.com/mentorweb/mentorweb_backend/pkg/crypto"
)

// Provider identifies which external calendar backs a credential.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderICS    Provider = "ics"
)

// Credential is the decrypted calendar link for one user. For Google it
// carries OAuth tokens, for ICS feeds only the feed URL.
type Credential struct {
	UserID       uuid.UUID `json:"user_id"`
	Provider     Provider  `json:"provider"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	FeedURL      string    `json:"feed_url,omitempty"`
}

type Service interface {
	// Credential returns the user's calendar credential, refreshing Google
	// tokens when expired. ErrNotLinked when the user has no calendar.
	Credential(ctx context.Context, userID uuid.UUID) (*Credential, error)
	LinkGoogle(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error
	LinkICS(ctx context.Context, userID uuid.UUID, feedURL string) error
	Unlink(ctx context.Context, userID uuid.UUID) error
}

type credentialService struct {
	rdb   *goredis.Client
	key   []byte
	oauth *oauth2.Config
}

func New(cfg *config.Config, rdb *goredis.Client) (Service, error) {
	key, err := crypto.KeyFromHex(cfg.Authentication.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("credential encryption key: %w", err)
	}

	google := cfg.Calendar.Google
	return &credentialService{
		rdb: rdb,
		key: key,
		oauth: &oauth2.Config{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
	}, nil
}

func redisKey(userID uuid.UUID) string {
	return "cred:" + userID.String()
}

func (s *credentialService) Credential(ctx context.Context, userID uuid.UUID) (*Credential, error) {
	encoded, err := s.rdb.Get(ctx, redisKey(userID)).Result()
	if err == goredis.Nil {
		return nil, ErrNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	plaintext, err := crypto.Decrypt(s.key, encoded)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}

	if cred.Provider == ProviderGoogle {
		if err := s.refreshIfNeeded(ctx, &cred); err != nil {
			return nil, err
		}
	}
	return &cred, nil
}

// refreshIfNeeded swaps an expired Google access token for a fresh one and
// re-stores the credential so the next caller skips the round trip.
func (s *credentialService) refreshIfNeeded(ctx context.Context, cred *Credential) error {
	if cred.AccessToken != "" && time.Until(cred.Expiry) > time.Minute {
		return nil
	}

	src := s.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	})
	tok, err := src.Token()
	if err != nil {
		return fmt.Errorf("refresh google token: %w", err)
	}

	cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	cred.Expiry = tok.Expiry

	return s.store(ctx, cred)
}

func (s *credentialService) LinkGoogle(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error {
	return s.store(ctx, &Credential{
		UserID:       userID,
		Provider:     ProviderGoogle,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	})
}

func (s *credentialService) LinkICS(ctx context.Context, userID uuid.UUID, feedURL string) error {
	u, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "webcal") || u.Host == "" {
		return ErrBadFeed
	}

	return s.store(ctx, &Credential{
		UserID:   userID,
		Provider: ProviderICS,
		FeedURL:  feedURL,
	})
}

func (s *credentialService) Unlink(ctx context.Context, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("unlink credential: %w", err)
	}
	return nil
}

func (s *credentialService) store(ctx context.Context, cred *Credential) error {
	plaintext, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	encoded, err := crypto.Encrypt(s.key, plaintext)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(cred.UserID), encoded, 0).Err(); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}
