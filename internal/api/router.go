package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Service       SchedulingService
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Env           string
	Version       string
	StrictDefault bool
	Logger        zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Doctor registration and working-hours templates
	r.Post("/doctors", registerDoctorHandler(cfg.Service))
	r.Put("/doctors/{id}/schedule", replaceScheduleHandler(cfg.Service))
	r.Get("/doctors/{id}/slots", availableSlotsHandler(cfg.Service))

	// Appointment lifecycle
	r.Post("/appointments", createBookingHandler(cfg.Service, cfg.StrictDefault))
	r.Post("/appointments/simplified", simplifiedBookingHandler(cfg.Service))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Put("/appointments/{id}/cancel", cancelBookingHandler(cfg.Service))
	r.Put("/appointments/{id}/status", updateStatusHandler(cfg.Service))
	r.Post("/appointments/{id}/reschedule", rescheduleHandler(cfg.Service, cfg.StrictDefault))

	return r
}
