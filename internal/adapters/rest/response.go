package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
)

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError はエラー種別に応じたステータスコードでエラーを返します。
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	writeError(w, status, http.StatusText(status), err)
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, probation.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, probation.ErrState):
		return http.StatusConflict
	case errors.Is(err, probation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, probation.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, probation.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
