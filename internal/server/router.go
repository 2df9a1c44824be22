package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/config"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	records handler.RecordHandler,
	reports handler.ReportHandler,
	profile handler.ProfileHandler,
	chat handler.ChatHandler,
	backups handler.BackupHandler,
	users handler.UserHandler,
	home handler.HomeHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	home.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// any authenticated user
		pr.Group(func(ar chi.Router) {
			ar.Use(RequireRole(domain.RoleMaster, domain.RoleEmployee))
			profile.RegisterRoutes(ar)
			chat.RegisterRoutes(ar)
			backups.RegisterRoutes(ar)
		})
		// employee time tracking and own reports
		pr.Group(func(er chi.Router) {
			er.Use(RequireRole(domain.RoleEmployee))
			records.RegisterRoutes(er)
			reports.RegisterRoutes(er)
		})
		// master-only administration
		pr.Group(func(mr chi.Router) {
			mr.Use(RequireRole(domain.RoleMaster))
			users.RegisterAdminRoutes(mr)
			records.RegisterAdminRoutes(mr)
			reports.RegisterAdminRoutes(mr)
			backups.RegisterAdminRoutes(mr)
		})
	})

	return r
}
