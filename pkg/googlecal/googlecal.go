// Package googlecal provides a minimal HTTP client for the Google Calendar v3 API.
package googlecal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mentorweb/mentorweb_backend/config"
	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

var (
	ErrUnauthorized       = errors.New("googlecal: access token rejected")
	ErrNotFound           = errors.New("googlecal: resource not found")
	ErrUnexpectedResponse = errors.New("googlecal: unexpected response from calendar API")
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client is a lightweight Google Calendar v3 HTTP client. Access tokens are
// supplied per call so one client serves every linked account.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client from config. cfg.BaseURL overrides the production
// endpoint, which the tests use to point at a local server.
func New(cfg config.GoogleCalendarConfig) *Client {
	baseURL := defaultBaseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Event describes a calendar event to create on the user's primary calendar.
type Event struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// FreeBusy returns the busy windows on the user's primary calendar between
// from and to. All-day and opaque events both appear as busy ranges.
func (c *Client) FreeBusy(ctx context.Context, accessToken string, from, to time.Time) ([]interval.Interval, error) {
	reqBody := map[string]any{
		"timeMin": from.UTC().Format(time.RFC3339),
		"timeMax": to.UTC().Format(time.RFC3339),
		"items":   []map[string]string{{"id": "primary"}},
	}

	var resp struct {
		Calendars map[string]struct {
			Busy []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"busy"`
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"calendars"`
	}

	if err := c.do(ctx, http.MethodPost, "/freeBusy", accessToken, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("googlecal freebusy: %w", err)
	}

	cal, ok := resp.Calendars["primary"]
	if !ok {
		return nil, ErrUnexpectedResponse
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("%w (reason=%s)", ErrUnexpectedResponse, cal.Errors[0].Reason)
	}

	out := make([]interval.Interval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		iv, err := interval.Parse(b.Start, b.End)
		if err != nil {
			return nil, fmt.Errorf("googlecal freebusy: bad busy range %q..%q: %w", b.Start, b.End, err)
		}
		out = append(out, iv)
	}
	return out, nil
}

// InsertEvent creates an event on the user's primary calendar and returns the
// event ID for later deletion.
func (c *Client) InsertEvent(ctx context.Context, accessToken string, ev Event) (string, error) {
	attendees := make([]map[string]string, 0, len(ev.Attendees))
	for _, email := range ev.Attendees {
		attendees = append(attendees, map[string]string{"email": email})
	}

	reqBody := map[string]any{
		"summary":     ev.Summary,
		"description": ev.Description,
		"location":    ev.Location,
		"start":       map[string]string{"dateTime": ev.Start.UTC().Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": ev.End.UTC().Format(time.RFC3339)},
	}
	if len(attendees) > 0 {
		reqBody["attendees"] = attendees
	}

	var resp struct {
		ID string `json:"id"`
	}

	if err := c.do(ctx, http.MethodPost, "/calendars/primary/events", accessToken, reqBody, &resp); err != nil {
		return "", fmt.Errorf("googlecal insert event: %w", err)
	}
	if resp.ID == "" {
		return "", ErrUnexpectedResponse
	}
	return resp.ID, nil
}

// DeleteEvent removes an event from the user's primary calendar. A missing
// event is reported as ErrNotFound so callers can treat it as already gone.
func (c *Client) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	path := "/calendars/primary/events/" + url.PathEscape(eventID)
	if err := c.do(ctx, http.MethodDelete, path, accessToken, nil, nil); err != nil {
		return fmt.Errorf("googlecal delete event: %w", err)
	}
	return nil
}

// do sends a JSON request to baseURL+path with a bearer token and decodes the
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return ErrNotFound
	case res.StatusCode >= 400:
		return fmt.Errorf("%w (status=%d)", ErrUnexpectedResponse, res.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
