package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(requestLogger(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withSession)

		// Auth forms. Signed-in users are redirected away.
		r.Group(func(r chi.Router) {
			r.Use(s.publicOnly)
			r.Post("/auth/login", s.handleLogin)
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/google", s.handleGoogle)
			r.Post("/auth/forgot-password", s.handleForgotPassword)
			r.Post("/auth/reset-password", s.handleResetPassword)
		})

		// Profile completion for pending federated identities.
		r.Group(func(r chi.Router) {
			r.Use(s.requireOnboarding)
			r.Get("/auth/onboarding", s.handleOnboardingForm)
			r.Post("/auth/onboarding", s.handleOnboardingComplete)
		})

		// Session only; profile completeness not required.
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/session", s.handleSession)
		})

		// The dashboard proper.
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Use(s.requireCompleteProfile)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Post("/profile/refresh", s.handleProfileRefresh)
			r.Get("/settings", s.handleSettings)
		})
	})

	return r
}

// ConfigErrorRouter answers every route with the missing-configuration
// screen. The process stays up so the operator sees what to fix instead
// of a crash loop.
func ConfigErrorRouter(log *zap.Logger, missing []string) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":   "config_error",
			"message": "Erro de configuração: variáveis de ambiente ausentes.",
			"missing": missing,
		})
	})
	r.MethodNotAllowed(r.NotFoundHandler())

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
