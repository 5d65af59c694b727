package email

import (
	"fmt"
	"time"
)

// AppointmentEmailData carries everything the booking templates render.
type AppointmentEmailData struct {
	RecipientName string
	OtherParty    string
	Start         time.Time
	End           time.Time
	MeetingURL    string
	Location      string
}

func (d AppointmentEmailData) window() string {
	return fmt.Sprintf("%s – %s UTC",
		d.Start.UTC().Format("Mon, 02 Jan 2006 15:04"),
		d.End.UTC().Format("15:04"))
}

// BuildBookingConfirmation creates the email sent to both parties when a
// booking is confirmed.
func BuildBookingConfirmation(to string, d AppointmentEmailData) Message {
	name := d.RecipientName
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(`Hi %s,

Your meeting with %s is confirmed:

  %s

`, name, d.OtherParty, d.window())
	if d.MeetingURL != "" {
		text += fmt.Sprintf("Join link: %s\n", d.MeetingURL)
	}
	if d.Location != "" {
		text += fmt.Sprintf("Location: %s\n", d.Location)
	}
	text += "\nThe MentorWeb Team"

	return Message{
		To:       []string{to},
		Subject:  fmt.Sprintf("Meeting confirmed: %s", d.window()),
		TextBody: text,
	}
}

// BuildBookingCancellation creates the email sent when a booking is cancelled.
func BuildBookingCancellation(to string, d AppointmentEmailData) Message {
	name := d.RecipientName
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(`Hi %s,

Your meeting with %s scheduled for

  %s

has been cancelled. The time slot has been reopened.

The MentorWeb Team`, name, d.OtherParty, d.window())

	return Message{
		To:       []string{to},
		Subject:  fmt.Sprintf("Meeting cancelled: %s", d.window()),
		TextBody: text,
	}
}
