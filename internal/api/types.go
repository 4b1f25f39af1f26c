package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	PractitionerID  string `json:"practitioner_id"`
	AppointmentType string `json:"appointment_type"`
	AppointmentDate string `json:"appointment_date"` // YYYY-MM-DD
	StartTime       string `json:"start_time"`       // HH:MM
	BookingChannel  string `json:"booking_channel,omitempty"`
}

// RescheduleAppointmentRequest carries only the fields being changed; empty
// fields keep their current values.
type RescheduleAppointmentRequest struct {
	PractitionerID  string `json:"practitioner_id,omitempty"`
	AppointmentType string `json:"appointment_type,omitempty"`
	AppointmentDate string `json:"appointment_date,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	BookingChannel  string `json:"booking_channel,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	PractitionerID  uuid.UUID `json:"practitioner_id"`
	AppointmentType uuid.UUID `json:"appointment_type"`
	AppointmentDate string    `json:"appointment_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Status          string    `json:"status"`
	BookingChannel  string    `json:"booking_channel"`
	CreatedAt       time.Time `json:"created_at"`
}

type AvailabilityResponse struct {
	AvailableSlots []string `json:"available_slots"`
}

type SweepResponse struct {
	Updated int `json:"updated"`
}

type ErrorResponse struct {
	Error         string `json:"error"`
	Details       string `json:"details,omitempty"`
	ConflictingID string `json:"conflicting_appointment_id,omitempty"`
}
