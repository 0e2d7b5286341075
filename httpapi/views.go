package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/authflow"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/identity"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/profile"
)

// recordPayload is the profile record shape exposed to the client. Phone is
// always in display format.
type recordPayload struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DOB          string `json:"dob"`
	ReferralCode string `json:"referralCode,omitempty"`
	Role         string `json:"role"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

func toRecordPayload(rec profile.Record) recordPayload {
	out := recordPayload{
		Username:     rec.Username,
		Email:        rec.Email,
		Phone:        profile.FormatPhone(rec.Phone),
		DOB:          rec.DOB,
		ReferralCode: rec.ReferralCode,
		Role:         rec.Role,
	}
	if !rec.CreatedAt.IsZero() {
		out.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	return out
}

// statusCard is one tile of the dashboard home view.
type statusCard struct {
	Title  string `json:"title"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	snap := s.gate.Snapshot(claims.UID)

	cards := []statusCard{
		{Title: "Conta", Status: "ativa", Detail: "Sua conta está em dia."},
		{Title: "Perfil", Status: string(snap.Status), Detail: "Situação do seu cadastro."},
		{Title: "Novidades", Status: "em breve", Detail: "Acompanhe as próximas atualizações."},
	}

	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	id, err := s.identities.GetByUID(r.Context(), claims.UID)
	if err != nil {
		id = identity.Identity{UID: claims.UID, Email: claims.Email}
	}

	body := map[string]any{"user": toUserPayload(id)}

	rec, err := s.profiles.Get(r.Context(), claims.UID)
	switch {
	case err == nil:
		body["profile"] = toRecordPayload(rec)
	case errors.Is(err, profile.ErrNotFound):
		// Serve the identity alone; the guard already decided admission.
	default:
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Code:    string(authflow.CodeConnectivity),
			Message: msgCheckingProfile,
			Retry:   true,
		})
		return
	}

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var body struct {
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
		Phone       string `json:"phone"`
		DOB         string `json:"dob"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	id, msg, err := s.flows.UpdateProfile(r.Context(), claims.UID, authflow.UpdateProfileParams{
		DisplayName: body.DisplayName,
		PhotoURL:    body.PhotoURL,
		Phone:       body.Phone,
		DOB:         body.DOB,
	})
	if err != nil {
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": msg,
		"user":    toUserPayload(id),
	})
}

func (s *Server) handleProfileRefresh(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	s.gate.Refresh(r.Context(), claims.UID)
	snap := s.gate.Snapshot(claims.UID)

	body := map[string]any{
		"profileStatus": snap.Status,
		"checking":      snap.Checking,
	}
	if snap.Record != nil {
		body["profile"] = toRecordPayload(*snap.Record)
	}
	writeJSON(w, http.StatusOK, body)
}

// settingsCatalogue is static: theme and notification preferences live in
// the browser, the server only describes what exists.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"settings": []map[string]string{
			{"key": "theme", "label": "Tema", "kind": "local"},
			{"key": "notifications", "label": "Notificações", "kind": "local"},
		},
	})
}
