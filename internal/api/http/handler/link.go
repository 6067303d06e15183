package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/service"
)

// Link handles capability link management and validation endpoints.
// Validation endpoints never consume a use; consumption happens only on the
// redemption endpoints that deliver the payload.
type Link struct {
	link           *service.Link
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewLink(link *service.Link, contextManager model.ContextManager, logger *logger.Logger) *Link {
	return &Link{link: link, contextManager: contextManager, logger: logger}
}

type createDownloadLinkRequest struct {
	FolderID      *uuid.UUID `json:"folderId,omitempty"`
	DocumentID    *uuid.UUID `json:"documentId,omitempty"`
	ExpiresInDays int        `json:"expiresInDays"`
	MaxUses       int        `json:"maxUses,omitempty"`
}

type downloadLinkResponse struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	URL       string    `json:"url,omitempty"`
	Kind      string    `json:"targetKind"`
	TargetID  uuid.UUID `json:"targetId"`
	ExpiresAt time.Time `json:"expiresAt"`
	UseCount  int       `json:"useCount"`
	MaxUses   int       `json:"maxUses"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDownloadLinkResponse(l model.DownloadLink, url string) downloadLinkResponse {
	return downloadLinkResponse{
		ID:        l.ID,
		Token:     l.Token,
		URL:       url,
		Kind:      string(l.Target.Kind),
		TargetID:  l.Target.ID,
		ExpiresAt: l.ExpiresAt,
		UseCount:  l.UseCount,
		MaxUses:   l.MaxUses,
		Used:      l.Used,
		CreatedAt: l.CreatedAt,
	}
}

func (h *Link) CreateDownload(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req createDownloadLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// Exactly one target, structurally.
	var target model.LinkTarget
	switch {
	case req.FolderID != nil && req.DocumentID == nil:
		target = model.LinkTarget{Kind: model.TargetFolder, ID: *req.FolderID}
	case req.DocumentID != nil && req.FolderID == nil:
		target = model.LinkTarget{Kind: model.TargetDocument, ID: *req.DocumentID}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "exactly one of folderId or documentId is required"})
		return
	}

	result, err := h.link.IssueDownload(r.Context(), employeeID, target, req.ExpiresInDays, req.MaxUses)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDownloadLinkResponse(result.Link, result.URL))
}

func (h *Link) ListDownload(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	links, err := h.link.ListDownload(r.Context(), employeeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	out := make([]downloadLinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toDownloadLinkResponse(l, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Link) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	linkID, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid link id"})
		return
	}

	if err := h.link.RevokeDownload(r.Context(), employeeID, linkID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

type linkValidationData struct {
	EmployeeID uuid.UUID `json:"employeeId"`
	CompanyID  uuid.UUID `json:"companyId"`
	Kind       string    `json:"targetKind,omitempty"`
	TargetID   uuid.UUID `json:"targetId,omitempty"`
	Name       string    `json:"name,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type linkValidationResponse struct {
	Valid bool               `json:"valid"`
	Data  linkValidationData `json:"data"`
}

// ValidateDownload checks a token without consuming a use, so clients can
// poll it freely before redemption.
func (h *Link) ValidateDownload(w http.ResponseWriter, r *http.Request) {
	link, err := h.link.ValidateDownload(r.Context(), pathParam(r, "token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, linkValidationResponse{
		Valid: true,
		Data: linkValidationData{
			EmployeeID: link.EmployeeID,
			CompanyID:  link.CompanyID,
			Kind:       string(link.Target.Kind),
			TargetID:   link.Target.ID,
			ExpiresAt:  link.ExpiresAt,
		},
	})
}

type createUploadLinkRequest struct {
	Name          string `json:"name"`
	ExpiresInDays int    `json:"expiresInDays"`
	MaxUses       int    `json:"maxUses,omitempty"`
}

type uploadLinkResponse struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	URL       string    `json:"url,omitempty"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
	UseCount  int       `json:"useCount"`
	MaxUses   int       `json:"maxUses"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUploadLinkResponse(l model.UploadLink, url string) uploadLinkResponse {
	return uploadLinkResponse{
		ID:        l.ID,
		Token:     l.Token,
		URL:       url,
		Name:      l.Name,
		ExpiresAt: l.ExpiresAt,
		UseCount:  l.UseCount,
		MaxUses:   l.MaxUses,
		Used:      l.Used,
		CreatedAt: l.CreatedAt,
	}
}

func (h *Link) CreateUpload(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req createUploadLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.link.IssueUpload(r.Context(), employeeID, req.Name, req.ExpiresInDays, req.MaxUses)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUploadLinkResponse(result.Link, result.URL))
}

func (h *Link) ListUpload(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	links, err := h.link.ListUpload(r.Context(), employeeID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	out := make([]uploadLinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toUploadLinkResponse(l, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Link) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	linkID, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid link id"})
		return
	}

	if err := h.link.RevokeUpload(r.Context(), employeeID, linkID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (h *Link) ValidateUpload(w http.ResponseWriter, r *http.Request) {
	link, err := h.link.ValidateUpload(r.Context(), pathParam(r, "token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, linkValidationResponse{
		Valid: true,
		Data: linkValidationData{
			EmployeeID: link.EmployeeID,
			CompanyID:  link.CompanyID,
			Name:       link.Name,
			ExpiresAt:  link.ExpiresAt,
		},
	})
}
