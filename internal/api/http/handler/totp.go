package handler

import (
	"net/http"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/service"
)

// TOTP handles two-factor enrollment endpoints.
type TOTP struct {
	totp           *service.TOTP
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewTOTP(totp *service.TOTP, contextManager model.ContextManager, logger *logger.Logger) *TOTP {
	return &TOTP{totp: totp, contextManager: contextManager, logger: logger}
}

func (h *TOTP) Setup(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	setup, err := h.totp.Setup(r.Context(), employeeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Secret         string `json:"secret"`
		QRCode         string `json:"qrCode"`
		ManualEntryKey string `json:"manualEntryKey"`
	}{Secret: setup.Secret, QRCode: setup.QRCode, ManualEntryKey: setup.ManualEntryKey})
}

type totpVerifyRequest struct {
	Code   string `json:"code"`
	Secret string `json:"secret"`
}

// Verify enables two-factor after one successful code check. The pending
// secret is echoed back by the client; backup codes are returned exactly
// once.
func (h *TOTP) Verify(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req totpVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	codes, err := h.totp.Enable(r.Context(), employeeID, req.Secret, req.Code)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		BackupCodes []string `json:"backupCodes"`
	}{BackupCodes: codes})
}

type totpDisableRequest struct {
	Code     string `json:"code,omitempty"`
	Password string `json:"password,omitempty"`
}

func (h *TOTP) Disable(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req totpDisableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	proof := req.Code
	if proof == "" {
		proof = req.Password
	}

	if err := h.totp.Disable(r.Context(), employeeID, proof); err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (h *TOTP) Status(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	status, err := h.totp.Status(r.Context(), employeeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Enabled              bool `json:"enabled"`
		BackupCodesRemaining int  `json:"backupCodesRemaining"`
	}{Enabled: status.Enabled, BackupCodesRemaining: status.BackupCodesRemaining})
}
