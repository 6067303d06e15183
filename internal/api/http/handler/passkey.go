package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/service"
)

// Passkey handles WebAuthn ceremonies. Each endpoint is a stateless
// request/response pair; the challenge travels in the options response and
// is echoed back on the verify call.
type Passkey struct {
	passkey        *service.Passkey
	auth           *service.Auth
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewPasskey(passkey *service.Passkey, auth *service.Auth, contextManager model.ContextManager, logger *logger.Logger) *Passkey {
	return &Passkey{passkey: passkey, auth: auth, contextManager: contextManager, logger: logger}
}

func (h *Passkey) RegistrationOptions(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	options, err := h.passkey.BeginRegistration(r.Context(), employeeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

type registrationVerifyRequest struct {
	Challenge  string          `json:"challenge"`
	DeviceName string          `json:"deviceName,omitempty"`
	Credential json.RawMessage `json:"credential"`
}

func (h *Passkey) RegistrationVerify(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req registrationVerifyRequest
	if err := decodeJSON(r, &req); err != nil || len(req.Credential) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	passkey, err := h.passkey.FinishRegistration(r.Context(), employeeID, req.Challenge, req.DeviceName, bytes.NewReader(req.Credential))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPasskeyResponse(passkey))
}

type authenticationOptionsRequest struct {
	Email string `json:"email"`
}

func (h *Passkey) AuthenticationOptions(w http.ResponseWriter, r *http.Request) {
	var req authenticationOptionsRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	options, err := h.passkey.BeginLogin(r.Context(), req.Email)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

type authenticationVerifyRequest struct {
	Email      string          `json:"email"`
	Challenge  string          `json:"challenge"`
	Credential json.RawMessage `json:"credential"`
}

func (h *Passkey) AuthenticationVerify(w http.ResponseWriter, r *http.Request) {
	var req authenticationVerifyRequest
	if err := decodeJSON(r, &req); err != nil || len(req.Credential) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	employee, err := h.passkey.FinishLogin(r.Context(), req.Email, req.Challenge, bytes.NewReader(req.Credential))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	session, err := h.auth.IssueSession(r.Context(), employee)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		Employee:     toEmployeeResponse(session.Employee),
	})
}

type passkeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	DeviceName string     `json:"deviceName"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toPasskeyResponse(p model.Passkey) passkeyResponse {
	return passkeyResponse{
		ID:         p.ID,
		DeviceName: p.DeviceName,
		LastUsedAt: p.LastUsedAt,
		CreatedAt:  p.CreatedAt,
	}
}

func (h *Passkey) List(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	passkeys, err := h.passkey.List(r.Context(), employeeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	out := make([]passkeyResponse, 0, len(passkeys))
	for _, p := range passkeys {
		out = append(out, toPasskeyResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Passkey) Delete(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	passkeyID, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid passkey id"})
		return
	}

	if err := h.passkey.Delete(r.Context(), employeeID, passkeyID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
