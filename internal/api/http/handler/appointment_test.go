package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorweb/mentorweb_backend/internal/service/booking"
	conflictsvc "github.com/mentorweb/mentorweb_backend/internal/service/conflict"
	"github.com/mentorweb/mentorweb_backend/internal/service/quota"
)

func statusForBookingError(t *testing.T, svcErr error) int {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error { return mapBookingError(c, svcErr) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestMapBookingError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", booking.ErrNotFound, http.StatusNotFound},
		{"unknown student", booking.ErrUnknownStudent, http.StatusNotFound},
		{"already consumed", booking.ErrAlreadyConsumed, http.StatusConflict},
		{"already cancelled", booking.ErrAlreadyCancelled, http.StatusConflict},
		{"not participant", booking.ErrNotParticipant, http.StatusForbidden},
		{"empty comment", booking.ErrEmptyComment, http.StatusBadRequest},
		{"calendar conflict", &booking.ConflictError{Events: []conflictsvc.BusyEvent{{Party: conflictsvc.PartyMentor}}}, http.StatusConflict},
		{"quota exceeded", &quota.ExceededError{Window: quota.WindowDaily, Count: 2, Cap: 2}, http.StatusConflict},
		{"gateway failure", &conflictsvc.GatewayError{Party: conflictsvc.PartyStudent, Cause: errors.New("timeout")}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, statusForBookingError(t, tc.err))
		})
	}
}
