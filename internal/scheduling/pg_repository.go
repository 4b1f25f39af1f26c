package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PgRepository)(nil)

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

// Postgres time columns come back as pgtype.Time (microseconds since
// midnight); the domain works in minutes.
func todFromPg(t pgtype.Time) timegrid.TimeOfDay {
	return timegrid.FromMinutes(int(t.Microseconds / int64(time.Minute/time.Microsecond)))
}

func pgFromTod(t timegrid.TimeOfDay) pgtype.Time {
	return pgtype.Time{
		Microseconds: int64(t.Minutes()) * int64(time.Minute/time.Microsecond),
		Valid:        true,
	}
}

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	var specialty *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&specialty,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPractitionerNotFound
		}
		return nil, err
	}

	p.Specialty = specialty
	return &p, nil
}

func scanAppointmentType(row pgx.Row) (*AppointmentType, error) {
	var t AppointmentType

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.DefaultDurationMins,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTypeNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, end pgtype.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PractitionerID,
		&a.TypeID,
		&a.Date,
		&start,
		&end,
		&a.Status,
		&a.BookingChannel,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.StartTime = todFromPg(start)
	a.EndTime = todFromPg(end)
	return &a, nil
}

const appointmentColumns = `id, patient_id, practitioner_id, type_id, appointment_date, start_time, end_time, status, booking_channel, created_at, updated_at`

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`, id)
	return scanPractitioner(row)
}

func (r *PgRepository) GetPractitionerSchedule(ctx context.Context, practitionerID uuid.UUID) ([]ScheduleEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT practitioner_id, day_of_week, start_time, end_time
		FROM practitioner_schedules
		WHERE practitioner_id = $1
		ORDER BY day_of_week
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		var day int
		var start, end pgtype.Time

		if err := rows.Scan(&e.PractitionerID, &day, &start, &end); err != nil {
			return nil, err
		}
		e.DayOfWeek = time.Weekday(day)
		e.StartTime = todFromPg(start)
		e.EndTime = todFromPg(end)
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetAppointmentTypeByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, default_duration_mins, created_at, updated_at
		FROM appointment_types
		WHERE id = $1
	`, id)
	return scanAppointmentType(row)
}

func (r *PgRepository) ListBookings(ctx context.Context, practitionerID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE practitioner_id = $1
		  AND appointment_date = $2
		  AND status <> 'Cancelled'
		ORDER BY start_time
	`, practitionerID, date)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, practitioner_id, type_id, appointment_date, start_time, end_time, status, booking_channel, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.PractitionerID, a.TypeID, a.Date, pgFromTod(a.StartTime), pgFromTod(a.EndTime), a.Status, a.BookingChannel)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentTimes(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET practitioner_id  = $2,
		    type_id          = $3,
		    appointment_date = $4,
		    start_time       = $5,
		    end_time         = $6,
		    booking_channel  = $7,
		    updated_at       = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.PractitionerID, a.TypeID, a.Date, pgFromTod(a.StartTime), pgFromTod(a.EndTime), a.BookingChannel)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) FindPastActive(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('Booked', 'Confirmed', 'Checked-in')
		  AND appointment_date + end_time < $1
	`, now)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) ListPatientAppointments(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND appointment_date >= $2
		ORDER BY appointment_date, start_time
		LIMIT $3
	`, patientID, from, limit)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *PgRepository) GetLastPatientAppointment(ctx context.Context, patientID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, patientID)
	return scanAppointment(row)
}
