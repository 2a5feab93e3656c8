package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"sagsin/pkg/apperror"
	"sagsin/pkg/logger"
)

// errorBody is the JSON shape every non-2xx response shares.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// writeError translates err into the HTTP status its apperror.Kind
// maps to and writes a uniform JSON error body. Errors not already
// classified are treated as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err.Error())
	}

	status := appErr.HTTPStatus()
	if status >= 500 {
		logger.Error("request failed", "path", r.URL.Path, "method", r.Method, "error", appErr.Error())
	} else {
		logger.Debug("request rejected", "path", r.URL.Path, "method", r.Method, "error", appErr.Error())
	}

	writeJSON(w, status, errorBody{Error: appErr.Message, Kind: string(appErr.Kind), Field: appErr.Field})
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
