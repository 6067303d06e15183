package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/service"
)

// Auth handles login, token rotation and public key exchange.
type Auth struct {
	auth           *service.Auth
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuth(auth *service.Auth, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{auth: auth, contextManager: contextManager, logger: logger}
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TOTPCode   string `json:"totpCode,omitempty"`
	BackupCode string `json:"backupCode,omitempty"`
}

type employeeResponse struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID uuid.UUID  `json:"companyId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

type sessionResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	Employee     employeeResponse `json:"employee"`
}

func toEmployeeResponse(e model.Employee) employeeResponse {
	return employeeResponse{
		ID:        e.ID,
		CompanyID: e.CompanyID,
		Name:      e.Name,
		Email:     e.Email,
		Role:      e.Role,
		CreatedAt: e.CreatedAt,
	}
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := h.auth.Login(r.Context(), service.LoginParams{
		Email:      req.Email,
		Password:   req.Password,
		TOTPCode:   req.TOTPCode,
		BackupCode: req.BackupCode,
	})
	if errors.Is(err, model.ErrTwoFactorRequired) {
		writeJSON(w, http.StatusUnauthorized, struct {
			Error             string `json:"error"`
			TwoFactorRequired bool   `json:"twoFactorRequired"`
		}{Error: err.Error(), TwoFactorRequired: true})
		return
	}
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

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "refresh token is required"})
		return
	}

	access, refresh, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}{AccessToken: access, RefreshToken: refresh})
}

func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "refresh token is required"})
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

type publicKeyRequest struct {
	PublicKey string `json:"publicKey"`
}

// SetPublicKey stores the caller's base64-encoded public key.
func (h *Auth) SetPublicKey(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req publicKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	key, err := base64.StdEncoding.DecodeString(req.PublicKey)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "public key must be base64"})
		return
	}

	if err := h.auth.SetPublicKey(r.Context(), employeeID, key); err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

// GetPublicKey returns another employee's public key for end-to-end flows.
func (h *Auth) GetPublicKey(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid employee id"})
		return
	}

	key, err := h.auth.GetPublicKey(r.Context(), targetID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		PublicKey string `json:"publicKey"`
	}{PublicKey: base64.StdEncoding.EncodeToString(key)})
}
