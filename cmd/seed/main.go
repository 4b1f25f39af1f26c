package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinova/clinic-scheduling/internal/db"
	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAppointmentTypes(context.Background(), pool); err != nil {
		log.Fatalf("seed appointment types: %v", err)
	}
	if err := seedPractitioners(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func pgTime(hhmm string) pgtype.Time {
	tod, err := timegrid.Parse(hhmm)
	if err != nil {
		log.Fatalf("bad seed time %q: %v", hhmm, err)
	}
	return pgtype.Time{
		Microseconds: int64(tod.Minutes()) * 60 * 1_000_000,
		Valid:        true,
	}
}

func seedAppointmentTypes(ctx context.Context, pool *pgxpool.Pool) error {
	types := []struct {
		name     string
		duration int
	}{
		{"General Consultation", 30},
		{"Follow-up Visit", 15},
		{"Dental Cleanup", 45},
		{"Physiotherapy Session", 60},
		{"Vaccination", 15},
		{"Annual Physical", 45},
	}

	log.Printf("seeding %d appointment types", len(types))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, t := range types {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointment_types (id, name, default_duration_mins, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), t.name, t.duration)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d practitioners", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	// A few realistic working-hour shapes; each practitioner gets one per
	// weekday they work.
	shifts := []struct{ start, end string }{
		{"09:00", "17:00"},
		{"08:30", "12:30"},
		{"13:00", "19:00"},
		{"10:00", "16:00"},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return err
		}

		// Monday through Friday, occasionally skipping a day.
		for day := 1; day <= 5; day++ {
			if gofakeit.Number(0, 9) == 0 {
				continue
			}
			shift := shifts[gofakeit.Number(0, len(shifts)-1)]
			_, err := tx.Exec(ctx, `
				INSERT INTO practitioner_schedules (practitioner_id, day_of_week, start_time, end_time)
				VALUES ($1, $2, $3, $4)
			`, id, day, pgTime(shift.start), pgTime(shift.end))
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("practitioners seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
