package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joseph-ayodele/docintake/internal/common"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Service) writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Warn("http.encode.failed", "error", err)
	}
}

func (s *Service) ok(w http.ResponseWriter, r *http.Request, message string, data any) {
	s.writeJSON(w, r, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := common.LoggerFromContext(r.Context(), s.logger)
	if status >= 500 {
		logger.Error("http.request.failed", "path", r.URL.Path, "error", err)
	} else {
		logger.Warn("http.request.rejected", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, r, status, envelope{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrUnsupportedFormat),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
