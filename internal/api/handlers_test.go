package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medinova/clinic-scheduling/internal/scheduling"
	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

type localLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *localLocker) WithScheduleLock(ctx context.Context, practitionerID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	key := fmt.Sprintf("%s:%s", practitionerID, date.Format("2006-01-02"))
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

type apiFixture struct {
	handler        http.Handler
	repo           *scheduling.MemoryRepository
	practitionerID uuid.UUID
	patientID      uuid.UUID
	typeID         uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	repo := scheduling.NewMemoryRepository()
	svc := scheduling.NewService(repo, &localLocker{})

	f := &apiFixture{
		repo:           repo,
		practitionerID: uuid.New(),
		patientID:      uuid.New(),
		typeID:         uuid.New(),
	}

	start, _ := timegrid.Parse("09:00")
	end, _ := timegrid.Parse("12:00")
	repo.AddPractitioner(scheduling.Practitioner{ID: f.practitionerID, Name: "Dr. Varga"})
	repo.AddScheduleEntry(scheduling.ScheduleEntry{
		PractitionerID: f.practitionerID,
		DayOfWeek:      time.Monday,
		StartTime:      start,
		EndTime:        end,
	})
	repo.AddAppointmentType(scheduling.AppointmentType{ID: f.typeID, Name: "General Consultation", DefaultDurationMins: 30})

	f.handler = NewRouter(RouterConfig{
		Service:  svc,
		Env:      "test",
		Version:  "test",
		Location: time.UTC,
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) createRequest(start string) CreateAppointmentRequest {
	return CreateAppointmentRequest{
		PatientID:       f.patientID.String(),
		PractitionerID:  f.practitionerID.String(),
		AppointmentType: f.typeID.String(),
		AppointmentDate: "2026-03-02", // a Monday
		StartTime:       start,
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestAvailabilityEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	path := fmt.Sprintf("/availability?practitioner=%s&appointment_type=%s&date=2026-03-02",
		f.practitionerID, f.typeID)
	rec := f.do(t, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[AvailabilityResponse](t, rec)
	if len(resp.AvailableSlots) != 11 {
		t.Fatalf("slots = %v, want 11 for an empty 09:00-12:00 day", resp.AvailableSlots)
	}
	if resp.AvailableSlots[0] != "09:00" {
		t.Errorf("first slot = %s, want 09:00", resp.AvailableSlots[0])
	}
}

func TestAvailabilityEndpoint_BadInput(t *testing.T) {
	f := newAPIFixture(t)

	cases := []struct {
		name string
		path string
	}{
		{"bad practitioner", fmt.Sprintf("/availability?practitioner=nope&appointment_type=%s&date=2026-03-02", f.typeID)},
		{"bad type", fmt.Sprintf("/availability?practitioner=%s&appointment_type=nope&date=2026-03-02", f.practitionerID)},
		{"bad date", fmt.Sprintf("/availability?practitioner=%s&appointment_type=%s&date=03/02/2026", f.practitionerID, f.typeID)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tc.path, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/appointments", f.createRequest("10:00"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[AppointmentResponse](t, rec)
	if resp.EndTime != "10:30" {
		t.Errorf("end_time = %s, want 10:30", resp.EndTime)
	}
	if resp.Status != "Booked" {
		t.Errorf("status = %s, want Booked", resp.Status)
	}
	if resp.BookingChannel != scheduling.DefaultBookingChannel {
		t.Errorf("booking_channel = %s, want %s", resp.BookingChannel, scheduling.DefaultBookingChannel)
	}
}

func TestCreateAppointmentEndpoint_ConflictCarriesID(t *testing.T) {
	f := newAPIFixture(t)

	first := f.do(t, http.MethodPost, "/appointments", f.createRequest("10:00"))
	if first.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d", first.Code)
	}
	existing := decodeBody[AppointmentResponse](t, first)

	second := f.do(t, http.MethodPost, "/appointments", f.createRequest("10:15"))
	if second.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", second.Code, second.Body.String())
	}

	resp := decodeBody[ErrorResponse](t, second)
	if resp.ConflictingID != existing.ID.String() {
		t.Errorf("conflicting_appointment_id = %s, want %s", resp.ConflictingID, existing.ID)
	}
}

func TestCreateAppointmentEndpoint_Validation(t *testing.T) {
	f := newAPIFixture(t)

	badTime := f.createRequest("ten")
	rec := f.do(t, http.MethodPost, "/appointments", badTime)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad time: status = %d, want 400", rec.Code)
	}

	missing := f.createRequest("")
	rec = f.do(t, http.MethodPost, "/appointments", missing)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing start: status = %d, want 422", rec.Code)
	}
}

func TestTransitionEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeBody[AppointmentResponse](t, f.do(t, http.MethodPost, "/appointments", f.createRequest("10:00")))

	rec := f.do(t, http.MethodPost, "/appointments/"+created.ID.String()+"/confirm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[AppointmentResponse](t, rec).Status; got != "Confirmed" {
		t.Errorf("status = %s, want Confirmed", got)
	}

	// Confirming again is a conflict, not a repeat.
	rec = f.do(t, http.MethodPost, "/appointments/"+created.ID.String()+"/confirm", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("double confirm status = %d, want 409", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/appointments/"+uuid.NewString()+"/cancel", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cancel unknown status = %d, want 404", rec.Code)
	}
}

func TestRescheduleEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeBody[AppointmentResponse](t, f.do(t, http.MethodPost, "/appointments", f.createRequest("10:00")))

	rec := f.do(t, http.MethodPatch, "/appointments/"+created.ID.String(),
		RescheduleAppointmentRequest{StartTime: "11:00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[AppointmentResponse](t, rec)
	if resp.StartTime != "11:00" || resp.EndTime != "11:30" {
		t.Errorf("times = %s-%s, want 11:00-11:30", resp.StartTime, resp.EndTime)
	}
}

func TestPatientAppointmentsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeBody[AppointmentResponse](t, f.do(t, http.MethodPost, "/appointments", f.createRequest("10:00")))

	rec := f.do(t, http.MethodGet, "/patients/"+f.patientID.String()+"/appointments?scope=last", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	list := decodeBody[[]AppointmentResponse](t, rec)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("last appointment list = %+v, want the created booking", list)
	}

	rec = f.do(t, http.MethodGet, "/patients/"+uuid.NewString()+"/appointments?scope=last", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown patient status = %d, want 404", rec.Code)
	}
}

func TestSweepEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	// Book a week in the past so the sweep sees it as finished regardless of
	// when the test runs.
	req := f.createRequest("10:00")
	req.AppointmentDate = time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	created := decodeBody[AppointmentResponse](t, f.do(t, http.MethodPost, "/appointments", req))

	rec := f.do(t, http.MethodPost, "/sweep", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[SweepResponse](t, rec)
	if resp.Updated != 1 {
		t.Fatalf("updated = %d, want 1", resp.Updated)
	}

	got := decodeBody[AppointmentResponse](t, f.do(t, http.MethodGet, "/appointments/"+created.ID.String(), nil))
	if got.Status != "Completed" {
		t.Errorf("status = %s, want Completed after sweep", got.Status)
	}
}
