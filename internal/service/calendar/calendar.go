// Package calendar routes calendar operations to the provider backing a
// user's credential: Google accounts get read/write access, ICS feeds are
// read-only busy sources.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mentorweb/mentorweb_backend/config"
	"github.com/mentorweb/mentorweb_backend/internal/service/credential"
	"github.com/mentorweb/mentorweb_backend/pkg/googlecal"
	"github.com/mentorweb/mentorweb_backend/pkg/icsfeed"
	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

var ErrReadOnly = errors.New("calendar: provider does not support event creation")

// Event mirrors the fields every provider needs to create an entry.
type Event struct {
	Summary     string
	Description string
	Location    string
	Window      interval.Interval
	Attendees   []string
}

type Gateway interface {
	// BusyIntervals returns the credential owner's busy windows inside window.
	BusyIntervals(ctx context.Context, cred *credential.Credential, window interval.Interval) ([]interval.Interval, error)
	// CreateEvent returns the provider event ID, or ErrReadOnly for feeds.
	CreateEvent(ctx context.Context, cred *credential.Credential, ev Event) (string, error)
	DeleteEvent(ctx context.Context, cred *credential.Credential, eventID string) error
}

type gateway struct {
	google  *googlecal.Client
	ics     *icsfeed.Client
	timeout time.Duration
}

func New(cfg *config.Config) Gateway {
	return &gateway{
		google:  googlecal.New(cfg.Calendar.Google),
		ics:     icsfeed.New(),
		timeout: cfg.Calendar.GatewayTimeout(),
	}
}

func (g *gateway) BusyIntervals(ctx context.Context, cred *credential.Credential, window interval.Interval) ([]interval.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	switch cred.Provider {
	case credential.ProviderGoogle:
		return g.google.FreeBusy(ctx, cred.AccessToken, window.Start, window.End)
	case credential.ProviderICS:
		return g.ics.BusyWindows(ctx, cred.FeedURL, window.Start, window.End)
	default:
		return nil, fmt.Errorf("calendar: unknown provider %q", cred.Provider)
	}
}

func (g *gateway) CreateEvent(ctx context.Context, cred *credential.Credential, ev Event) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	switch cred.Provider {
	case credential.ProviderGoogle:
		return g.google.InsertEvent(ctx, cred.AccessToken, googlecal.Event{
			Summary:     ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			Start:       ev.Window.Start,
			End:         ev.Window.End,
			Attendees:   ev.Attendees,
		})
	case credential.ProviderICS:
		return "", ErrReadOnly
	default:
		return "", fmt.Errorf("calendar: unknown provider %q", cred.Provider)
	}
}

func (g *gateway) DeleteEvent(ctx context.Context, cred *credential.Credential, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	switch cred.Provider {
	case credential.ProviderGoogle:
		err := g.google.DeleteEvent(ctx, cred.AccessToken, eventID)
		if errors.Is(err, googlecal.ErrNotFound) {
			return nil // already gone
		}
		return err
	case credential.ProviderICS:
		return ErrReadOnly
	default:
		return fmt.Errorf("calendar: unknown provider %q", cred.Provider)
	}
}
