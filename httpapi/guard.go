package httpapi

import (
	"net/http"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/profile"
)

// Guard messages shown by the client while it navigates.
const (
	msgSessionRequired  = "Faça login para continuar."
	msgCheckingProfile  = "Verificando seu perfil. Tente novamente em instantes."
	msgProfileRequired  = "Complete seu perfil para acessar o painel."
	msgAlreadySignedIn  = "Você já está logado."
	msgOnboardingNeeded = "Sessão de cadastro não encontrada. Entre novamente com o Google."
)

// withSession resolves the session cookie once per request and stores the
// claims in context. Unauthenticated requests pass through; the guards
// downstream decide what that means.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.sessions.Verify(r)
		if err == nil {
			r = r.WithContext(withClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession rejects unauthenticated requests with the login redirect.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := claimsFrom(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{
				Code:     "unauthenticated",
				Message:  msgSessionRequired,
				Redirect: "/login",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCompleteProfile admits only users whose profile the gate has
// classified. An unknown status triggers a synchronous refresh before the
// decision; while the answer is still unknown or in flight the request is
// told to retry, never served. An incomplete profile is sent to the
// completion flow. The error status deliberately falls through: a profile
// that cannot be read must not lock a paying user out of the dashboard.
func (s *Server) requireCompleteProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{
				Code:     "unauthenticated",
				Message:  msgSessionRequired,
				Redirect: "/login",
			})
			return
		}

		snap := s.gate.Snapshot(claims.UID)
		if snap.Status == profile.StatusUnknown {
			s.gate.Refresh(r.Context(), claims.UID)
			snap = s.gate.Snapshot(claims.UID)
		}

		switch {
		case snap.Status == profile.StatusUnknown || snap.Checking:
			writeJSON(w, http.StatusServiceUnavailable, errorBody{
				Code:    "profile_checking",
				Message: msgCheckingProfile,
				Retry:   true,
			})
		case snap.Status == profile.StatusIncomplete:
			writeJSON(w, http.StatusForbidden, errorBody{
				Code:     "profile_incomplete",
				Message:  msgProfileRequired,
				Redirect: "/complete-profile",
			})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// publicOnly keeps signed-in users off the auth forms: they get the
// dashboard redirect instead of the handler.
func (s *Server) publicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := claimsFrom(r.Context()); ok {
			writeJSON(w, http.StatusOK, map[string]string{
				"message":  msgAlreadySignedIn,
				"redirect": "/",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireOnboarding admits only requests carrying a valid pending
// onboarding cookie.
func (s *Server) requireOnboarding(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.sessions.VerifyOnboarding(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{
				Code:     "onboarding_required",
				Message:  msgOnboardingNeeded,
				Redirect: "/login",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
