package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/service"
)

// Document handles encrypted document upload and download, both for
// authenticated employees and for capability link bearers.
type Document struct {
	document       *service.Document
	link           *service.Link
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewDocument(document *service.Document, link *service.Link, contextManager model.ContextManager, logger *logger.Logger) *Document {
	return &Document{document: document, link: link, contextManager: contextManager, logger: logger}
}

type documentResponse struct {
	ID         uuid.UUID  `json:"id"`
	FolderID   *uuid.UUID `json:"folderId,omitempty"`
	Name       string     `json:"name"`
	MimeType   string     `json:"mimeType"`
	Size       int64      `json:"size"`
	ChunkCount int        `json:"chunkCount"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toDocumentResponse(d model.Document) documentResponse {
	return documentResponse{
		ID:         d.ID,
		FolderID:   d.FolderID,
		Name:       d.Name,
		MimeType:   d.MimeType,
		Size:       d.Size,
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

// filePart returns the first "file" part of a multipart body for streaming
// consumption without buffering the whole upload.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}

// Upload stores a document for the authenticated employee.
func (h *Document) Upload(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var folderID *uuid.UUID
	if raw := r.URL.Query().Get("folderId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid folder id"})
			return
		}
		folderID = &id
	}

	part, err := filePart(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file part is required"})
		return
	}
	defer part.Close()

	document, err := h.document.UploadForEmployee(r.Context(), employeeID, folderID, part.FileName(), part.Header.Get("Content-Type"), part)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(document))
}

// Download streams decrypted content to an employee of the document's
// company.
func (h *Document) Download(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	documentID, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid document id"})
		return
	}

	payload, err := h.document.Download(r.Context(), employeeID, documentID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.streamPayload(w, payload)
}

func (h *Document) Delete(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	documentID, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid document id"})
		return
	}

	if err := h.document.Delete(r.Context(), employeeID, documentID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (h *Document) ListFolder(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	folderID, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid folder id"})
		return
	}

	documents, err := h.document.ListFolder(r.Context(), employeeID, folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	out := make([]documentResponse, 0, len(documents))
	for _, d := range documents {
		out = append(out, toDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// DownloadViaLink redeems a download link and delivers its target. The
// redemption consumes one use before any byte is written.
func (h *Document) DownloadViaLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.link.RedeemDownload(r.Context(), pathParam(r, "token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	payload, err := h.document.OpenTarget(r.Context(), link.Target)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.streamPayload(w, payload)
}

// UploadViaLink redeems an upload link and stores the posted file into the
// link's folder. No session is required; the token is the capability.
func (h *Document) UploadViaLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.link.RedeemUpload(r.Context(), pathParam(r, "token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	part, err := filePart(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file part is required"})
		return
	}
	defer part.Close()

	document, err := h.document.UploadViaLink(r.Context(), link, part.FileName(), part.Header.Get("Content-Type"), part)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(document))
}

func (h *Document) streamPayload(w http.ResponseWriter, payload service.DownloadPayload) {
	defer payload.Content.Close()

	w.Header().Set("Content-Type", payload.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.Name))
	if payload.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", payload.Size))
	}

	if _, err := io.Copy(w, payload.Content); err != nil {
		// Headers are already written; all we can do is log.
		h.logger.Error("failed to stream document",
			"name", payload.Name,
			"error", err.Error())
	}
}
