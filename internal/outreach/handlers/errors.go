package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	e "github.com/gartstein/outreach/internal/outreach/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// mapServiceError maps domain or repository errors to HTTP status codes.
func (h *OutreachHandler) mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, e.ErrDuplicateName):
		return http.StatusConflict, err.Error()
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrEmptySelection):
		return http.StatusBadRequest, err.Error()
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *OutreachHandler) writeError(w http.ResponseWriter, err error) {
	code, msg := h.mapServiceError(err)
	h.writeJSON(w, code, errorResponse{Code: code, Message: msg})
}

func (h *OutreachHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
