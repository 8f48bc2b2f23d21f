package api

import (
	"encoding/json"
	"net/http"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/errors"
)

type errorResponse struct {
	Error string           `json:"error"`
	Code  errors.ErrorCode `json:"code"`
}

// statusFor maps error codes to HTTP status codes.
var statusFor = map[errors.ErrorCode]int{
	errors.ErrInvalidInput: http.StatusBadRequest,
	errors.ErrNotFound:     http.StatusNotFound,
	errors.ErrInvalidState: http.StatusConflict,
	errors.ErrTimeout:      http.StatusGatewayTimeout,
}

func (h *Handler) respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, message string, code errors.ErrorCode, status int) {
	h.respondJSON(w, errorResponse{Error: message, Code: code}, status)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	status, ok := statusFor[code]
	if !ok {
		status = http.StatusInternalServerError
		h.log.Error().Err(err).Msg("Request failed")
	}

	h.respondError(w, err.Error(), code, status)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
