// Package icsfeed fetches published iCalendar feeds and extracts busy windows.
package icsfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

var (
	ErrFetchFailed = errors.New("icsfeed: failed to fetch feed")
	ErrBadFeed     = errors.New("icsfeed: feed is not valid iCalendar data")
)

const (
	maxFeedSize  = 5 * 1024 * 1024 // oversized feeds are truncated, not rejected
	fetchTimeout = 30 * time.Second
)

// Client fetches read-only ICS feeds over HTTP.
type Client struct {
	httpClient *http.Client
}

func New() *Client {
	return &Client{httpClient: &http.Client{Timeout: fetchTimeout}}
}

// BusyWindows downloads the feed at feedURL and returns the event windows
// that overlap [from, to), sorted by start time. Events marked TRANSPARENT
// and zero-length events are skipped. Recurrence rules are not expanded;
// feeds that publish expanded instances (the common case for exported
// calendars) are fully covered.
func (c *Client) BusyWindows(ctx context.Context, feedURL string, from, to time.Time) ([]interval.Interval, error) {
	window, err := interval.New(from, to)
	if err != nil {
		return nil, fmt.Errorf("icsfeed: bad window: %w", err)
	}

	body, err := c.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	cal, err := ical.ParseCalendar(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFeed, err)
	}

	var out []interval.Interval
	for _, ev := range cal.Events() {
		if isTransparent(ev) {
			continue
		}

		start, err := ev.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ev.GetEndAt()
		if err != nil || !end.After(start) {
			continue
		}

		iv, err := interval.New(start, end)
		if err != nil {
			continue
		}
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	// webcal is https with a different scheme
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, maxFeedSize),
		Closer: resp.Body,
	}, nil
}

func isTransparent(ev *ical.VEvent) bool {
	p := ev.GetProperty(ical.ComponentPropertyTransp)
	return p != nil && strings.EqualFold(p.Value, "TRANSPARENT")
}
