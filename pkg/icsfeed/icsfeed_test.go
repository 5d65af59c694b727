package icsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//feed//EN
BEGIN:VEVENT
UID:busy-1@example.com
DTSTART:20260302T090000Z
DTEND:20260302T103000Z
SUMMARY:Standup
END:VEVENT
BEGIN:VEVENT
UID:free-1@example.com
DTSTART:20260302T110000Z
DTEND:20260302T120000Z
TRANSP:TRANSPARENT
SUMMARY:Focus block
END:VEVENT
BEGIN:VEVENT
UID:outside@example.com
DTSTART:20260310T090000Z
DTEND:20260310T100000Z
SUMMARY:Next week
END:VEVENT
END:VCALENDAR
`

func TestBusyWindows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	busy, err := New().BusyWindows(context.Background(), srv.URL, from, from.Add(24*time.Hour))
	require.NoError(t, err)

	// transparent and out-of-window events are excluded
	require.Len(t, busy, 1)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), busy[0].Start)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), busy[0].End)
}

func TestBusyWindowsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New().BusyWindows(context.Background(), srv.URL, time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestBusyWindowsBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("this is not a calendar"))
	}))
	defer srv.Close()

	_, err := New().BusyWindows(context.Background(), srv.URL, time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrBadFeed)
}
