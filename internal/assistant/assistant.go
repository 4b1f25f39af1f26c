// Package assistant orchestrates chat-driven booking on top of the
// scheduling core. Natural-language understanding itself lives behind the
// Interpreter interface; this package only routes interpreted intents to
// availability lookups and the booking guard.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medinova/clinic-scheduling/internal/scheduling"
)

// PatientPortalChannel marks bookings that originate from the chat flow.
const PatientPortalChannel = "Patient Portal"

type IntentKind string

const (
	// KindBook carries practitioner, appointment type and date.
	KindBook IntentKind = "book"
	// KindLastAppointment asks for the patient's most recent booking.
	KindLastAppointment IntentKind = "last_appointment"
	// KindUpcoming asks for the patient's future bookings.
	KindUpcoming IntentKind = "upcoming_appointments"
	// KindReply means the interpreter needs more information; Reply holds
	// the follow-up question to show the user.
	KindReply IntentKind = "reply"
)

type Intent struct {
	Kind           IntentKind
	PractitionerID uuid.UUID
	TypeID         uuid.UUID
	Date           time.Time
	Reply          string
}

// Interpreter extracts a structured intent, or a free-text reply, from the
// user's latest message and the conversation so far. Implementations wrap
// an external language model; none lives in this repository.
type Interpreter interface {
	InterpretMessage(ctx context.Context, message string, history []string) (*Intent, error)
}

// Response is what the chat layer renders: either a list of bookable slots
// for a recognized booking intent, or a message.
type Response struct {
	Message      string
	Slots        []string
	Intent       *Intent
	Appointments []scheduling.Appointment
}

type Assistant struct {
	interp Interpreter
	sched  *scheduling.Service
	loc    *time.Location
}

func New(interp Interpreter, sched *scheduling.Service, loc *time.Location) *Assistant {
	if loc == nil {
		loc = time.UTC
	}
	return &Assistant{
		interp: interp,
		sched:  sched,
		loc:    loc,
	}
}

// HandleMessage interprets one user message and answers it. Interpretation
// failures come back as a message rather than an error so the chat surface
// never shows a bare failure.
func (a *Assistant) HandleMessage(ctx context.Context, patientID uuid.UUID, message string, history []string) (*Response, error) {
	intent, err := a.interp.InterpretMessage(ctx, message, history)
	if err != nil {
		return &Response{Message: "I had trouble interpreting that, please rephrase your request."}, nil
	}

	switch intent.Kind {
	case KindBook:
		return a.offerSlots(ctx, intent)
	case KindLastAppointment:
		return a.lastAppointment(ctx, patientID)
	case KindUpcoming:
		return a.upcomingAppointments(ctx, patientID)
	case KindReply:
		return &Response{Message: intent.Reply}, nil
	default:
		return &Response{Message: "I had trouble interpreting that, please rephrase your request."}, nil
	}
}

// BookFromChat finalizes a booking for a slot the user picked from an
// earlier offer. Conflicts propagate to the caller; a slot shown as free may
// have been claimed since it was offered.
func (a *Assistant) BookFromChat(ctx context.Context, patientID uuid.UUID, intent Intent, startTime string) (*scheduling.Appointment, error) {
	return a.sched.BookAppointment(ctx, scheduling.Draft{
		PatientID:      patientID,
		PractitionerID: intent.PractitionerID,
		TypeID:         intent.TypeID,
		Date:           intent.Date,
		StartTime:      startTime,
		BookingChannel: PatientPortalChannel,
	})
}

func (a *Assistant) offerSlots(ctx context.Context, intent *Intent) (*Response, error) {
	slots, err := a.sched.AvailableStartTimes(ctx, intent.PractitionerID, intent.Date, intent.TypeID)
	if err != nil {
		return nil, fmt.Errorf("look up slots: %w", err)
	}

	if len(slots) == 0 {
		return &Response{
			Message: fmt.Sprintf("Sorry, no slots available on %s.", intent.Date.Format("2006-01-02")),
			Intent:  intent,
		}, nil
	}

	return &Response{Slots: slots, Intent: intent}, nil
}

func (a *Assistant) lastAppointment(ctx context.Context, patientID uuid.UUID) (*Response, error) {
	appt, err := a.sched.LastAppointment(ctx, patientID)
	if err != nil {
		if errors.Is(err, scheduling.ErrAppointmentNotFound) {
			return &Response{Message: "You don't have any appointments yet."}, nil
		}
		return nil, err
	}

	return &Response{
		Message: fmt.Sprintf("Your last appointment was on %s at %s. Status: %s.",
			appt.Date.Format("2006-01-02"), appt.StartTime, appt.Status),
		Appointments: []scheduling.Appointment{*appt},
	}, nil
}

func (a *Assistant) upcomingAppointments(ctx context.Context, patientID uuid.UUID) (*Response, error) {
	now := time.Now().In(a.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	appts, err := a.sched.UpcomingAppointments(ctx, patientID, today, 0)
	if err != nil {
		return nil, err
	}

	if len(appts) == 0 {
		return &Response{Message: "You have no upcoming appointments."}, nil
	}

	return &Response{
		Message:      fmt.Sprintf("You have %d upcoming appointment(s).", len(appts)),
		Appointments: appts,
	}, nil
}
