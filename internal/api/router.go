package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/medinova/clinic-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service  *scheduling.Service
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
	Location *time.Location
}

func NewRouter(cfg RouterConfig) http.Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability
	r.Get("/availability", availabilityHandler(cfg.Service, loc))

	// Appointment lifecycle
	r.Post("/appointments", createAppointmentHandler(cfg.Service, loc))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Patch("/appointments/{id}", rescheduleAppointmentHandler(cfg.Service, loc))
	r.Post("/appointments/{id}/confirm", transitionHandler(cfg.Service.Confirm))
	r.Post("/appointments/{id}/check-in", transitionHandler(cfg.Service.CheckIn))
	r.Post("/appointments/{id}/cancel", transitionHandler(cfg.Service.Cancel))

	// Patient-facing queries
	r.Get("/patients/{id}/appointments", patientAppointmentsHandler(cfg.Service, loc))

	// Operational trigger for the lifecycle sweep
	r.Post("/sweep", sweepHandler(cfg.Service, loc))

	return r
}
