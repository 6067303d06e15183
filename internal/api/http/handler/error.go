package handler

import (
	"errors"
	"net/http"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

// handleError maps service errors onto HTTP statuses. Policy violations get
// a specific reason string; internal failures are logged with detail and
// surfaced as a generic message, never carrying secret material.
func handleError(w http.ResponseWriter, l *logger.Logger, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Reason})
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, model.ErrLinkExpired),
		errors.Is(err, model.ErrLinkMaxUses),
		errors.Is(err, model.ErrLinkUsed),
		errors.Is(err, model.ErrPossibleClone),
		errors.Is(err, model.ErrNoCredentials),
		errors.Is(err, model.ErrVerificationFailed):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrTwoFactorRequired),
		errors.Is(err, model.ErrTokenRevoked),
		errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenMismatch):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrDuplicateCredential):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		l.Error("request failed",
			"error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
