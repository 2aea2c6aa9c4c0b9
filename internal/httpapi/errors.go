package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

// apiError carries an explicit status and client-facing detail.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string { return e.detail }

func badRequest(format string, a ...any) error {
	return &apiError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, a...)}
}

func internalError(prefix string, err error) error {
	return &apiError{status: http.StatusInternalServerError, detail: fmt.Sprintf("%s: %v", prefix, err)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		status, detail := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
		}
		writeJSON(w, status, map[string]string{"detail": detail})
	}
}

func classify(err error) (int, string) {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.status, apiErr.detail
	case errors.Is(err, scan.ErrUserIDRequired), errors.Is(err, scan.ErrImageRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, scan.ErrForbidden):
		return http.StatusForbidden, "Access denied: scan belongs to another user"
	case errors.Is(err, scan.ErrNotFound):
		return http.StatusNotFound, "Scan not found"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
