package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"dinero/internal/core"
	"dinero/internal/log"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps business errors onto HTTP statuses. Anything that is not a
// core.Error is a 500 and its message is not leaked to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var bizErr *core.Error
	if errors.As(err, &bizErr) {
		status := http.StatusInternalServerError
		switch bizErr.Kind {
		case core.KindNotFound:
			status = http.StatusNotFound
		case core.KindForbidden:
			status = http.StatusForbidden
		case core.KindValidation:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorBody{
			Error:   bizErr.Message,
			Code:    bizErr.Code,
			Details: bizErr.Details,
		})
		return
	}

	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err.Error(), log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.Validation(core.CodeInvalidInput, "invalid JSON body: "+err.Error())
	}
	return nil
}
