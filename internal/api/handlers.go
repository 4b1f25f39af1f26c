package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisclient "github.com/medinova/clinic-scheduling/internal/redis"
	"github.com/medinova/clinic-scheduling/internal/scheduling"
	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

func availabilityHandler(svc *scheduling.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		practitionerID, err := uuid.Parse(q.Get("practitioner"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner", "practitioner must be a valid UUID")
			return
		}

		typeID, err := uuid.Parse(q.Get("appointment_type"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_type", "appointment_type must be a valid UUID")
			return
		}

		date, err := timegrid.ParseDate(q.Get("date"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableStartTimes(r.Context(), practitionerID, date, typeID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{AvailableSlots: slots})
	}
}

func createAppointmentHandler(svc *scheduling.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		draft, ok := draftFromCreate(w, req, loc)
		if !ok {
			return
		}

		appt, err := svc.BookAppointment(r.Context(), draft)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *scheduling.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		draft, ok := draftFromReschedule(w, req, loc)
		if !ok {
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, draft)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionHandler(transition func(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := transition(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func patientAppointmentsHandler(svc *scheduling.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		if r.URL.Query().Get("scope") == "last" {
			appt, err := svc.LastAppointment(r.Context(), patientID)
			if err != nil {
				handleLookupError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, []AppointmentResponse{toAppointmentResponse(appt)})
			return
		}

		now := time.Now().In(loc)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		appts, err := svc.UpcomingAppointments(r.Context(), patientID, today, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func sweepHandler(svc *scheduling.Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := svc.SweepPastAppointments(r.Context(), time.Now().In(loc))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "sweep_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SweepResponse{Updated: updated})
	}
}

// Request translation

func draftFromCreate(w http.ResponseWriter, req CreateAppointmentRequest, loc *time.Location) (scheduling.Draft, bool) {
	var draft scheduling.Draft

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
		return draft, false
	}

	practitionerID, err := uuid.Parse(req.PractitionerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
		return draft, false
	}

	typeID, err := uuid.Parse(req.AppointmentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_type", "appointment_type must be a valid UUID")
		return draft, false
	}

	date, err := timegrid.ParseDate(req.AppointmentDate, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "appointment_date must be YYYY-MM-DD")
		return draft, false
	}

	draft = scheduling.Draft{
		PatientID:      patientID,
		PractitionerID: practitionerID,
		TypeID:         typeID,
		Date:           date,
		StartTime:      req.StartTime,
		BookingChannel: req.BookingChannel,
	}
	return draft, true
}

func draftFromReschedule(w http.ResponseWriter, req RescheduleAppointmentRequest, loc *time.Location) (scheduling.Draft, bool) {
	var draft scheduling.Draft

	if req.PractitionerID != "" {
		id, err := uuid.Parse(req.PractitionerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return draft, false
		}
		draft.PractitionerID = id
	}

	if req.AppointmentType != "" {
		id, err := uuid.Parse(req.AppointmentType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_type", "appointment_type must be a valid UUID")
			return draft, false
		}
		draft.TypeID = id
	}

	if req.AppointmentDate != "" {
		date, err := timegrid.ParseDate(req.AppointmentDate, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "appointment_date must be YYYY-MM-DD")
			return draft, false
		}
		draft.Date = date
	}

	draft.StartTime = req.StartTime
	draft.BookingChannel = req.BookingChannel
	return draft, true
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		PractitionerID:  a.PractitionerID,
		AppointmentType: a.TypeID,
		AppointmentDate: a.Date.Format("2006-01-02"),
		StartTime:       a.StartTime.String(),
		EndTime:         a.EndTime.String(),
		Status:          string(a.Status),
		BookingChannel:  a.BookingChannel,
		CreatedAt:       a.CreatedAt,
	}
}

// Error mapping

func handleBookingError(w http.ResponseWriter, err error) {
	if conflictingID, ok := scheduling.IsConflict(err); ok {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:         "booking_conflict",
			Details:       err.Error(),
			ConflictingID: conflictingID.String(),
		})
		return
	}

	switch {
	case errors.Is(err, timegrid.ErrUnparseableTime), errors.Is(err, timegrid.ErrUnparseableDate):
		writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
	case errors.Is(err, scheduling.ErrMissingFields):
		writeError(w, http.StatusUnprocessableEntity, "missing_fields", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrScheduleBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "schedule_busy", "schedule is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound),
		errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
