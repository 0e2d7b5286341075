package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/authflow"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/identity"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/profile"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/session"
)

// Server holds the HTTP surface's collaborators.
type Server struct {
	log        *zap.Logger
	flows      *authflow.Service
	identities *identity.Service
	sessions   *session.Manager
	gate       *profile.Gate
	profiles   profile.Store
}

// NewServer wires the HTTP layer.
func NewServer(log *zap.Logger, flows *authflow.Service, identities *identity.Service, sessions *session.Manager, gate *profile.Gate, profiles profile.Store) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:        log,
		flows:      flows,
		identities: identities,
		sessions:   sessions,
		gate:       gate,
		profiles:   profiles,
	}
}

// userPayload is the identity shape exposed to the client.
type userPayload struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Provider    string `json:"provider"`
}

func toUserPayload(id identity.Identity) userPayload {
	return userPayload{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
		Provider:    string(id.Provider),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
		Remember   bool   `json:"remember"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.flows.SignIn(r.Context(), authflow.SignInParams{
		Identifier: body.Identifier,
		Password:   body.Password,
		Remember:   body.Remember,
	})
	if err != nil {
		writeFlowError(w, err)
		return
	}

	if err := s.sessions.Issue(w, res.Identity, res.Remember); err != nil {
		s.log.Error("issue session", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     toUserPayload(res.Identity),
		"redirect": res.Redirect,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		Phone           string `json:"phone"`
		DOB             string `json:"dob"`
		ReferralCode    string `json:"referralCode"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.flows.Register(r.Context(), authflow.RegisterParams{
		Username:        body.Username,
		Email:           body.Email,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
		Phone:           body.Phone,
		DOB:             body.DOB,
		ReferralCode:    body.ReferralCode,
	})
	if err != nil {
		writeFlowError(w, err)
		return
	}

	// Registration signs the user in directly.
	if err := s.sessions.Issue(w, res.Identity, false); err != nil {
		s.log.Error("issue session", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":     toUserPayload(res.Identity),
		"redirect": res.Redirect,
	})
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken  string `json:"idToken"`
		Remember bool   `json:"remember"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := s.flows.GoogleSignIn(r.Context(), body.IDToken)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	if res.Cancelled {
		writeJSON(w, http.StatusOK, map[string]any{
			"cancelled": true,
			"message":   res.Message,
			"view":      res.View,
		})
		return
	}

	if res.View == authflow.ViewOnboarding {
		// The identity has no profile yet; it is retained as pending and
		// the client is sent to the completion form.
		if err := s.sessions.IssueOnboarding(w, res.Identity); err != nil {
			s.log.Error("issue onboarding session", zap.Error(err))
			writeFlowError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"view": authflow.ViewOnboarding,
			"user": toUserPayload(res.Identity),
		})
		return
	}

	if err := s.sessions.Issue(w, res.Identity, body.Remember); err != nil {
		s.log.Error("issue session", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     toUserPayload(res.Identity),
		"redirect": res.Redirect,
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	msg, err := s.flows.ForgotPassword(r.Context(), body.Email)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	msg, err := s.flows.ResetPassword(r.Context(), body.Token, body.Password)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  msg,
		"redirect": "/login",
	})
}

func (s *Server) handleOnboardingForm(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessions.VerifyOnboarding(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Code:     "onboarding_required",
			Message:  msgOnboardingNeeded,
			Redirect: "/login",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": claims.Email})
}

func (s *Server) handleOnboardingComplete(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessions.VerifyOnboarding(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Code:     "onboarding_required",
			Message:  msgOnboardingNeeded,
			Redirect: "/login",
		})
		return
	}

	var body struct {
		Username     string `json:"username"`
		Phone        string `json:"phone"`
		DOB          string `json:"dob"`
		ReferralCode string `json:"referralCode"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	pending := identity.Identity{UID: claims.UID, Email: claims.Email}
	res, err := s.flows.CompleteOnboarding(r.Context(), pending, authflow.OnboardingParams{
		Username:     body.Username,
		Phone:        body.Phone,
		DOB:          body.DOB,
		ReferralCode: body.ReferralCode,
	})
	if err != nil {
		writeFlowError(w, err)
		return
	}

	id, err := s.identities.GetByUID(r.Context(), claims.UID)
	if err != nil {
		id = pending
	}
	if err := s.sessions.Issue(w, id, false); err != nil {
		s.log.Error("issue session", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":     toUserPayload(id),
		"redirect": res.Redirect,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"redirect": "/login"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	snap := s.gate.Snapshot(claims.UID)

	id, err := s.identities.GetByUID(r.Context(), claims.UID)
	if err != nil {
		id = identity.Identity{UID: claims.UID, Email: claims.Email}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":          toUserPayload(id),
		"profileStatus": snap.Status,
		"checking":      snap.Checking,
	})
}
