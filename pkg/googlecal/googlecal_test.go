package googlecal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorweb/mentorweb_backend/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.GoogleCalendarConfig{BaseURL: srv.URL})
}

func TestFreeBusy(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/freeBusy", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			TimeMin string `json:"timeMin"`
			TimeMax string `json:"timeMax"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2026-03-02T00:00:00Z", req.TimeMin)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"calendars": map[string]any{
				"primary": map[string]any{
					"busy": []map[string]string{
						{"start": "2026-03-02T09:00:00Z", "end": "2026-03-02T10:30:00Z"},
						{"start": "2026-03-02T14:00:00Z", "end": "2026-03-02T15:00:00Z"},
					},
				},
			},
		})
	}))

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	busy, err := client.FreeBusy(context.Background(), "tok-123", from, from.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, busy, 2)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), busy[0].Start)
	assert.Equal(t, time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC), busy[1].End)
}

func TestFreeBusyCalendarError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"calendars": map[string]any{
				"primary": map[string]any{
					"errors": []map[string]string{{"reason": "notFound"}},
				},
			},
		})
	}))

	_, err := client.FreeBusy(context.Background(), "tok", time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestInsertEvent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendars/primary/events", r.URL.Path)

		var req struct {
			Summary string `json:"summary"`
			Start   struct {
				DateTime string `json:"dateTime"`
			} `json:"start"`
			Attendees []struct {
				Email string `json:"email"`
			} `json:"attendees"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Mentoring session", req.Summary)
		require.Len(t, req.Attendees, 1)
		assert.Equal(t, "student@example.com", req.Attendees[0].Email)

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "evt-42"})
	}))

	id, err := client.InsertEvent(context.Background(), "tok", Event{
		Summary:   "Mentoring session",
		Start:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Attendees: []string{"student@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-42", id)
}

func TestDeleteEventNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusGone)
	}))

	err := client.DeleteEvent(context.Background(), "tok", "evt-gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.FreeBusy(context.Background(), "expired", time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrUnauthorized)

	var unexpected error = ErrUnexpectedResponse
	assert.False(t, errors.Is(err, unexpected))
}
