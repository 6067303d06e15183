package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/clovalink/clovalink-server/internal/api/http/context"
	"github.com/clovalink/clovalink-server/internal/mocks"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/service"
	"github.com/clovalink/clovalink-server/internal/testutil"
)

type linkHandlerFixture struct {
	downloadStore *mocks.DownloadLinkStore
	uploadStore   *mocks.UploadLinkStore
	documentStore *mocks.DocumentStore
	folderStore   *mocks.FolderStore
	employeeStore *mocks.EmployeeStore
	activityStore *mocks.ActivityStore
	handler       *Link
}

func newLinkHandlerFixture(t *testing.T) *linkHandlerFixture {
	t.Helper()
	f := &linkHandlerFixture{
		downloadStore: &mocks.DownloadLinkStore{},
		uploadStore:   &mocks.UploadLinkStore{},
		documentStore: &mocks.DocumentStore{},
		folderStore:   &mocks.FolderStore{},
		employeeStore: &mocks.EmployeeStore{},
		activityStore: &mocks.ActivityStore{},
	}
	logger := testutil.MakeNoopLogger()
	link := service.NewLink(f.downloadStore, f.uploadStore, f.documentStore, f.folderStore,
		f.employeeStore, f.activityStore, "https://share.example.com", logger)
	f.handler = NewLink(link, httpctx.NewManager(), logger)
	return f
}

func authenticatedRequest(t *testing.T, method, path string, body any, employeeID uuid.UUID) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	ctx := httpctx.NewManager().SetEmployeeIDToContext(context.Background(), employeeID)
	return req.WithContext(ctx)
}

func TestLinkHandler_CreateDownload(t *testing.T) {
	f := newLinkHandlerFixture(t)

	employeeID := uuid.New()
	companyID := uuid.New()
	documentID := uuid.New()

	f.employeeStore.On("GetByID", mock.Anything, employeeID).
		Return(model.Employee{ID: employeeID, CompanyID: companyID}, nil)
	f.documentStore.On("GetByID", mock.Anything, documentID).
		Return(model.Document{ID: documentID, CompanyID: companyID}, nil)
	f.downloadStore.On("Create", mock.Anything, mock.Anything).
		Return(model.DownloadLink{
			ID:     uuid.New(),
			Token:  "tok",
			Target: model.LinkTarget{Kind: model.TargetDocument, ID: documentID},
		}, nil)
	f.activityStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := authenticatedRequest(t, http.MethodPost, "/api/download-links", map[string]any{
		"documentId":    documentID,
		"expiresInDays": 7,
		"maxUses":       3,
	}, employeeID)
	rec := httptest.NewRecorder()
	f.handler.CreateDownload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp downloadLinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "https://share.example.com/download/tok", resp.URL)
	assert.Equal(t, "document", resp.Kind)
}

func TestLinkHandler_CreateDownload_BothTargets(t *testing.T) {
	f := newLinkHandlerFixture(t)

	req := authenticatedRequest(t, http.MethodPost, "/api/download-links", map[string]any{
		"documentId": uuid.New(),
		"folderId":   uuid.New(),
	}, uuid.New())
	rec := httptest.NewRecorder()
	f.handler.CreateDownload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.downloadStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLinkHandler_CreateDownload_NoTarget(t *testing.T) {
	f := newLinkHandlerFixture(t)

	req := authenticatedRequest(t, http.MethodPost, "/api/download-links", map[string]any{
		"expiresInDays": 7,
	}, uuid.New())
	rec := httptest.NewRecorder()
	f.handler.CreateDownload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinkHandler_CreateDownload_Unauthenticated(t *testing.T) {
	f := newLinkHandlerFixture(t)

	payload, err := json.Marshal(map[string]any{"documentId": uuid.New()})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/download-links", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	f.handler.CreateDownload(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func serveValidate(t *testing.T, f *linkHandlerFixture, token string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/download-links/validate/{token}", f.handler.ValidateDownload)

	req := httptest.NewRequest(http.MethodGet, "/api/download-links/validate/"+token, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLinkHandler_ValidateDownload(t *testing.T) {
	f := newLinkHandlerFixture(t)

	link := model.DownloadLink{
		Token:      "tok",
		Target:     model.LinkTarget{Kind: model.TargetFolder, ID: uuid.New()},
		EmployeeID: uuid.New(),
		CompanyID:  uuid.New(),
		ExpiresAt:  time.Now().Add(time.Hour),
		MaxUses:    1,
	}
	f.downloadStore.On("GetByToken", mock.Anything, "tok").Return(link, nil)

	rec := serveValidate(t, f, "tok")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp linkValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "folder", resp.Data.Kind)
	assert.Equal(t, link.Target.ID, resp.Data.TargetID)
}

func TestLinkHandler_ValidateDownload_UnknownToken(t *testing.T) {
	f := newLinkHandlerFixture(t)

	f.downloadStore.On("GetByToken", mock.Anything, "missing").
		Return(model.DownloadLink{}, model.ErrNotFound)

	rec := serveValidate(t, f, "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLinkHandler_ValidateDownload_Expired(t *testing.T) {
	f := newLinkHandlerFixture(t)

	f.downloadStore.On("GetByToken", mock.Anything, "tok").Return(model.DownloadLink{
		Token:     "tok",
		ExpiresAt: time.Now().Add(-time.Hour),
		MaxUses:   1,
	}, nil)

	rec := serveValidate(t, f, "tok")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestLinkHandler_DeleteDownload_InvalidID(t *testing.T) {
	f := newLinkHandlerFixture(t)

	r := chi.NewRouter()
	r.Delete("/api/download-links/{id}", f.handler.DeleteDownload)

	req := authenticatedRequest(t, http.MethodDelete, "/api/download-links/not-a-uuid", nil, uuid.New())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinkHandler_CreateUpload(t *testing.T) {
	f := newLinkHandlerFixture(t)

	employeeID := uuid.New()
	companyID := uuid.New()

	f.employeeStore.On("GetByID", mock.Anything, employeeID).
		Return(model.Employee{ID: employeeID, CompanyID: companyID}, nil)
	f.uploadStore.On("Create", mock.Anything, mock.Anything).
		Return(model.UploadLink{ID: uuid.New(), Token: "tok", Name: "invoices"}, nil)
	f.activityStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := authenticatedRequest(t, http.MethodPost, "/api/upload-links", map[string]any{
		"name":          "invoices",
		"expiresInDays": 7,
	}, employeeID)
	rec := httptest.NewRecorder()
	f.handler.CreateUpload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp uploadLinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invoices", resp.Name)
	assert.Equal(t, "https://share.example.com/upload/tok", resp.URL)
}

func TestLinkHandler_CreateUpload_MissingName(t *testing.T) {
	f := newLinkHandlerFixture(t)

	req := authenticatedRequest(t, http.MethodPost, "/api/upload-links", map[string]any{
		"expiresInDays": 7,
	}, uuid.New())
	rec := httptest.NewRecorder()
	f.handler.CreateUpload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
