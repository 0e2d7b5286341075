package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/authflow"
)

// errorBody is the JSON shape of every failed response. Message is the
// user-facing text the form renders inline; Redirect, when set, tells the
// client where to navigate instead.
type errorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
	Retry    bool   `json:"retry,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeFlowError maps an orchestrator error onto an HTTP status. Anything
// that is not a *FlowError is an internal failure the client only sees as
// a generic message.
func writeFlowError(w http.ResponseWriter, err error) {
	var fe *authflow.FlowError
	if !errors.As(err, &fe) {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    string(authflow.CodeUnknown),
			Message: "Erro interno. Tente novamente.",
		})
		return
	}
	writeJSON(w, statusFor(fe.Code), errorBody{Code: string(fe.Code), Message: fe.Message})
}

func statusFor(code authflow.Code) int {
	switch code {
	case authflow.CodeValidation, authflow.CodeWeakPassword, authflow.CodeInvalidEmail:
		return http.StatusBadRequest
	case authflow.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case authflow.CodeUserNotFound:
		return http.StatusNotFound
	case authflow.CodeEmailInUse, authflow.CodePartialRegistration:
		return http.StatusConflict
	case authflow.CodeExpired:
		return http.StatusGone
	case authflow.CodeConnectivity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    string(authflow.CodeValidation),
			Message: "Requisição inválida.",
		})
		return false
	}
	return true
}
