package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterConfig carries the settings the router needs from the application config.
type RouterConfig struct {
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(cfg RouterConfig, logger *slog.Logger, attendanceHandler AttendanceHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/attendance", func(r chi.Router) {
		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Post("/events", attendanceHandler.SubmitEvent)

			r.Route("/employees/{employeeID}", func(r chi.Router) {
				r.Get("/status", attendanceHandler.GetStatus)

				r.Route("/days/{date}", func(r chi.Router) {
					r.Get("/events", attendanceHandler.ListDayEvents)
					r.Get("/summary", attendanceHandler.GetSummary)
					r.Post("/summary/recompute", attendanceHandler.RecomputeSummary)
				})
			})
		})

		r.Get("/summaries", attendanceHandler.ListSummaries)
		r.Get("/stats", attendanceHandler.GetStats)
		r.Get("/overtime", attendanceHandler.GetOvertimeReport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"Route not found"}}`))
	})

	return r
}

// NewLogger builds the ECS-formatted JSON logger shared by the router and the application.
func NewLogger(env string, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)
}
