package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hireloop/hireloop-web/internal/guard"
	"github.com/hireloop/hireloop-web/internal/middleware"
	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/service"
)

// RouterConfig carries the router's collaborators.
type RouterConfig struct {
	Sessions       middleware.SessionOpener
	Readiness      *service.Readiness
	Logger         *slog.Logger
	RateLimitRPS   float64
	RateLimitBurst int
	SecureCookies  bool
}

// NewRouter builds the BFF route tree. ctx bounds background work such as the rate
// limiter's sweeper.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	authH := NewAuthHandler(cfg.Readiness)
	profileH := NewProfileHandler()
	jobH := NewJobHandler()
	notificationH := NewNotificationHandler()
	dashboardH := NewDashboardHandler()
	employerH := NewEmployerHandler()
	adminH := NewAdminHandler()

	requireRole := func(role model.Role) func(http.Handler) http.Handler {
		return guard.Require(cfg.Readiness, sessionForGuard, role)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", authH.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ClientScope(cfg.Sessions, cfg.SecureCookies))

		r.Get("/session", authH.HandleSession)
		r.Post("/logout", authH.HandleLogout)
		r.Get("/jobs", jobH.HandleSearch)
		r.Get("/jobs/{id}", jobH.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
			r.Post("/login", authH.HandleLogin)
			r.Post("/register", authH.HandleRegister)
			r.Post("/forgot-password", authH.HandleForgotPassword)
			r.Post("/reset-password/{token}", authH.HandleResetPassword)
			r.Post("/contact", authH.HandleContact)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(""))
			r.Get("/profile", profileH.HandleGet)
			r.Put("/profile", profileH.HandleUpdate)
			r.Post("/profile/photo", profileH.HandleUploadPhoto)
			r.Post("/profile/resume", profileH.HandleUploadResume)
			r.Get("/notifications", notificationH.HandleList)
			r.Post("/notifications/read-all", notificationH.HandleMarkAllRead)
			r.Post("/notifications/{id}/read", notificationH.HandleMarkRead)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleWorker))
			r.Get("/dashboard/worker", dashboardH.HandleWorker)
			r.Get("/applications", jobH.HandleListApplications)
			r.Post("/jobs/{id}/apply", jobH.HandleApply)
			r.Delete("/applications/{id}", jobH.HandleWithdraw)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleEmployer))
			r.Get("/dashboard/employer", dashboardH.HandleEmployer)
			r.Get("/employer/jobs", employerH.HandleListJobs)
			r.Post("/employer/jobs", employerH.HandleCreateJob)
			r.Put("/employer/jobs/{id}", employerH.HandleUpdateJob)
			r.Delete("/employer/jobs/{id}", employerH.HandleDeleteJob)
			r.Get("/employer/jobs/{id}/applications", employerH.HandleJobApplications)
			r.Patch("/employer/applications/{id}/status", employerH.HandleSetStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleAdmin))
			r.Get("/admin/users", adminH.HandleUsers)
			r.Delete("/admin/users/{id}", adminH.HandleDeleteUser)
			r.Get("/admin/jobs", adminH.HandleJobs)
			r.Delete("/admin/jobs/{id}", adminH.HandleDeleteJob)
			r.Get("/admin/contacts", adminH.HandleContacts)
			r.Delete("/admin/contacts/{id}", adminH.HandleDeleteContact)
			r.Get("/admin/reports", adminH.HandleReports)
			r.Get("/admin/backup", adminH.HandleBackup)
		})
	})

	return r
}

func sessionForGuard(r *http.Request) guard.Session {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return nil
	}
	return sess
}
