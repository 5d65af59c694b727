// Package conflict answers one question before a booking commits: does the
// candidate window collide with anything on either party's external calendar.
package conflict

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/internal/service/calendar"
	"github.com/mentorweb/mentorweb_backend/internal/service/credential"
	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

// Party labels whose calendar an overlapping event came from.
type Party string

const (
	PartyMentor  Party = "mentor"
	PartyStudent Party = "student"
)

// BusyEvent is one external calendar entry overlapping the candidate window.
type BusyEvent struct {
	Party  Party             `json:"party"`
	Window interval.Interval `json:"window"`
}

// Result lists every overlapping event found. Empty Events means the window
// is clear.
type Result struct {
	Events []BusyEvent
}

func (r Result) Clear() bool { return len(r.Events) == 0 }

// GatewayError reports that a calendar could not be consulted. Callers must
// treat it as "unknown", never as "no conflict".
type GatewayError struct {
	Party Party
	Cause error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("conflict: %s calendar unavailable: %v", e.Party, e.Cause)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

type Service interface {
	// Check collects all events on the mentor's and student's external
	// calendars that overlap candidate. A party without a linked calendar
	// contributes no events. A reachable-but-failing gateway yields a
	// *GatewayError.
	Check(ctx context.Context, mentorID, studentID uuid.UUID, candidate interval.Interval) (Result, error)
}

type conflictService struct {
	creds   credential.Service
	gateway calendar.Gateway
}

func New(creds credential.Service, gateway calendar.Gateway) Service {
	return &conflictService{creds: creds, gateway: gateway}
}

func (s *conflictService) Check(ctx context.Context, mentorID, studentID uuid.UUID, candidate interval.Interval) (Result, error) {
	var res Result

	parties := []struct {
		party  Party
		userID uuid.UUID
	}{
		{PartyMentor, mentorID},
		{PartyStudent, studentID},
	}

	for _, p := range parties {
		events, err := s.partyBusy(ctx, p.party, p.userID, candidate)
		if err != nil {
			return Result{}, err
		}
		res.Events = append(res.Events, events...)
	}
	return res, nil
}

func (s *conflictService) partyBusy(ctx context.Context, party Party, userID uuid.UUID, candidate interval.Interval) ([]BusyEvent, error) {
	cred, err := s.creds.Credential(ctx, userID)
	if errors.Is(err, credential.ErrNotLinked) {
		return nil, nil
	}
	if err != nil {
		return nil, &GatewayError{Party: party, Cause: err}
	}

	busy, err := s.gateway.BusyIntervals(ctx, cred, candidate)
	if err != nil {
		return nil, &GatewayError{Party: party, Cause: err}
	}

	var events []BusyEvent
	for _, b := range busy {
		if b.Overlaps(candidate) {
			events = append(events, BusyEvent{Party: party, Window: b})
		}
	}
	return events, nil
}
