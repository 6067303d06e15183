package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/crypto"
	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
)

// defaultChunkSize is the plaintext size of one encrypted chunk.
const defaultChunkSize = 4 << 20

// Document implements the envelope encryption pipeline around document
// content. Every byte passes through per-chunk AEAD encryption before
// touching object storage; the per-document data key is persisted only in
// wrapped form.
type Document struct {
	documentStore model.DocumentStore
	folderStore   model.FolderStore
	uploadStore   model.UploadLinkStore
	employeeStore model.EmployeeStore
	activityStore model.ActivityStore
	storage       model.Storage
	masterKey     []byte
	chunkSize     int
	logger        *logger.Logger
}

func NewDocument(
	documentStore model.DocumentStore,
	folderStore model.FolderStore,
	uploadStore model.UploadLinkStore,
	employeeStore model.EmployeeStore,
	activityStore model.ActivityStore,
	storage model.Storage,
	masterKey []byte,
	logger *logger.Logger,
) *Document {
	return &Document{
		documentStore: documentStore,
		folderStore:   folderStore,
		uploadStore:   uploadStore,
		employeeStore: employeeStore,
		activityStore: activityStore,
		storage:       storage,
		masterKey:     masterKey,
		chunkSize:     defaultChunkSize,
		logger:        logger,
	}
}

// UploadParams carries one document upload.
type UploadParams struct {
	EmployeeID uuid.UUID
	CompanyID  uuid.UUID
	FolderID   *uuid.UUID
	Name       string
	MimeType   string
	Content    io.Reader
}

// DownloadPayload is a decrypted content stream with display metadata.
// Content must be closed by the caller.
type DownloadPayload struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.ReadCloser
}

func chunkObjectKey(companyID, documentID uuid.UUID, index int) string {
	return fmt.Sprintf("company-%s/document-%s/chunk-%06d", companyID, documentID, index)
}

// Upload encrypts content chunk by chunk under a fresh data key and
// persists metadata plus the wrapped key.
func (s *Document) Upload(ctx context.Context, params UploadParams) (model.Document, error) {
	if params.Name == "" {
		return model.Document{}, model.NewValidationError("name is required")
	}
	if params.MimeType == "" {
		params.MimeType = "application/octet-stream"
	}

	dataKey, err := crypto.GenerateKey()
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to generate data key: %w", err)
	}

	documentID := uuid.New()
	var (
		chunks    []model.Chunk
		totalSize int64
	)

	buf := make([]byte, s.chunkSize)
	for index := 0; ; index++ {
		n, readErr := io.ReadFull(params.Content, buf)
		if n > 0 {
			chunk, err := s.storeChunk(ctx, params.CompanyID, documentID, index, buf[:n], dataKey)
			if err != nil {
				s.discardChunks(ctx, chunks)
				return model.Document{}, err
			}
			chunks = append(chunks, chunk)
			totalSize += int64(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				break
			}
			s.discardChunks(ctx, chunks)
			return model.Document{}, fmt.Errorf("failed to read content: %w", readErr)
		}
	}

	wrappedKey, err := crypto.WrapKey(dataKey, s.masterKey)
	if err != nil {
		s.discardChunks(ctx, chunks)
		return model.Document{}, fmt.Errorf("failed to wrap data key: %w", err)
	}

	now := time.Now()
	document := model.Document{
		ID:           documentID,
		CompanyID:    params.CompanyID,
		FolderID:     params.FolderID,
		Name:         params.Name,
		MimeType:     params.MimeType,
		Size:         totalSize,
		WrappedKey:   wrappedKey,
		ChunkSize:    s.chunkSize,
		ChunkCount:   len(chunks),
		UploadedByID: params.EmployeeID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.documentStore.Create(ctx, document)
	if err != nil {
		s.discardChunks(ctx, chunks)
		return model.Document{}, fmt.Errorf("failed to create document: %w", err)
	}

	if len(chunks) > 0 {
		if err := s.documentStore.CreateChunks(ctx, chunks); err != nil {
			s.discardChunks(ctx, chunks)
			return model.Document{}, fmt.Errorf("failed to create chunks: %w", err)
		}
	}

	s.logger.Info("Document service: document uploaded",
		"document_id", saved.ID,
		"chunks", len(chunks),
		"size", totalSize)
	recordActivity(ctx, s.activityStore, s.logger, model.ActivityDocumentUploaded,
		fmt.Sprintf("Document uploaded: %s", saved.Name), params.EmployeeID, params.CompanyID)

	return saved, nil
}

func (s *Document) storeChunk(ctx context.Context, companyID, documentID uuid.UUID, index int, plaintext, dataKey []byte) (model.Chunk, error) {
	nonce, err := crypto.GenerateNonce()
	if err != nil {
		return model.Chunk{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext, err := crypto.EncryptChunk(plaintext, dataKey, nonce)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("failed to encrypt chunk %d: %w", index, err)
	}

	objectKey := chunkObjectKey(companyID, documentID, index)
	if err := s.storage.Upload(ctx, objectKey, bytes.NewReader(ciphertext)); err != nil {
		return model.Chunk{}, fmt.Errorf("failed to upload chunk %d: %w", index, err)
	}

	return model.Chunk{
		DocumentID: documentID,
		Index:      index,
		ObjectKey:  objectKey,
		Nonce:      nonce,
		Hash:       crypto.HashChunk(plaintext),
		Size:       len(plaintext),
	}, nil
}

// discardChunks removes already-uploaded objects after a failed upload.
func (s *Document) discardChunks(ctx context.Context, chunks []model.Chunk) {
	for _, chunk := range chunks {
		if err := s.storage.Delete(ctx, chunk.ObjectKey); err != nil {
			s.logger.Error("Document service: failed to discard chunk",
				"object_key", chunk.ObjectKey,
				"error", err.Error())
		}
	}
}

// UploadForEmployee resolves the caller's company and stores content on
// their behalf. The destination folder, when given, must belong to the
// same company.
func (s *Document) UploadForEmployee(ctx context.Context, employeeID uuid.UUID, folderID *uuid.UUID, name, mimeType string, content io.Reader) (model.Document, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	if folderID != nil {
		folder, err := s.folderStore.GetByID(ctx, *folderID)
		if err != nil {
			return model.Document{}, err
		}
		if folder.CompanyID != employee.CompanyID {
			return model.Document{}, model.ErrNotFound
		}
	}

	return s.Upload(ctx, UploadParams{
		EmployeeID: employeeID,
		CompanyID:  employee.CompanyID,
		FolderID:   folderID,
		Name:       name,
		MimeType:   mimeType,
		Content:    content,
	})
}

// Download returns a decrypted content stream for an employee in the
// document's company.
func (s *Document) Download(ctx context.Context, employeeID, documentID uuid.UUID) (DownloadPayload, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return DownloadPayload{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	document, err := s.documentStore.GetByID(ctx, documentID)
	if err != nil {
		return DownloadPayload{}, err
	}
	if document.CompanyID != employee.CompanyID {
		return DownloadPayload{}, model.ErrNotFound
	}

	payload, err := s.openDocument(ctx, document)
	if err != nil {
		return DownloadPayload{}, err
	}

	recordActivity(ctx, s.activityStore, s.logger, model.ActivityDocumentDownloaded,
		fmt.Sprintf("Document downloaded: %s", document.Name), employeeID, document.CompanyID)

	return payload, nil
}

// OpenTarget resolves a capability link target to a content stream. Folder
// targets are delivered as a zip archive of the folder's documents.
func (s *Document) OpenTarget(ctx context.Context, target model.LinkTarget) (DownloadPayload, error) {
	switch target.Kind {
	case model.TargetDocument:
		document, err := s.documentStore.GetByID(ctx, target.ID)
		if err != nil {
			return DownloadPayload{}, err
		}
		return s.openDocument(ctx, document)
	case model.TargetFolder:
		folder, err := s.folderStore.GetByID(ctx, target.ID)
		if err != nil {
			return DownloadPayload{}, err
		}
		return s.openFolderArchive(ctx, folder)
	default:
		return DownloadPayload{}, model.ErrNotFound
	}
}

// openDocument unwraps the data key and streams chunks through decryption
// and hash verification in order.
func (s *Document) openDocument(ctx context.Context, document model.Document) (DownloadPayload, error) {
	dataKey, err := crypto.UnwrapKey(document.WrappedKey, s.masterKey)
	if err != nil {
		return DownloadPayload{}, fmt.Errorf("failed to unwrap data key: %w", err)
	}

	chunks, err := s.documentStore.GetChunks(ctx, document.ID)
	if err != nil {
		return DownloadPayload{}, err
	}

	pr, pw := io.Pipe()
	go func() {
		for _, chunk := range chunks {
			plaintext, err := s.readChunk(ctx, chunk, dataKey)
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			if _, err := pw.Write(plaintext); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.Close()
	}()

	return DownloadPayload{
		Name:     document.Name,
		MimeType: document.MimeType,
		Size:     document.Size,
		Content:  pr,
	}, nil
}

func (s *Document) readChunk(ctx context.Context, chunk model.Chunk, dataKey []byte) ([]byte, error) {
	reader, err := s.storage.Download(ctx, chunk.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download chunk %d: %w", chunk.Index, err)
	}
	defer reader.Close()

	ciphertext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %d: %w", chunk.Index, err)
	}

	plaintext, err := crypto.DecryptChunk(ciphertext, dataKey, chunk.Nonce)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", chunk.Index, err)
	}

	if !bytes.Equal(crypto.HashChunk(plaintext), chunk.Hash) {
		return nil, fmt.Errorf("chunk %d: %w", chunk.Index, crypto.ErrAuthentication)
	}

	return plaintext, nil
}

func (s *Document) openFolderArchive(ctx context.Context, folder model.Folder) (DownloadPayload, error) {
	documents, err := s.documentStore.ListByFolder(ctx, folder.ID)
	if err != nil {
		return DownloadPayload{}, err
	}

	pr, pw := io.Pipe()
	go func() {
		zw := zip.NewWriter(pw)
		for _, document := range documents {
			entry, err := zw.Create(document.Name)
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			payload, err := s.openDocument(ctx, document)
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			_, err = io.Copy(entry, payload.Content)
			payload.Content.Close()
			if err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(zw.Close())
	}()

	return DownloadPayload{
		Name:     folder.Name + ".zip",
		MimeType: "application/zip",
		Content:  pr,
	}, nil
}

// UploadViaLink stores content on behalf of a redeemed upload link. The
// destination folder named by the link is created on first use.
func (s *Document) UploadViaLink(ctx context.Context, link model.UploadLink, name, mimeType string, content io.Reader) (model.Document, error) {
	folderID, err := s.resolveLinkFolder(ctx, link)
	if err != nil {
		return model.Document{}, err
	}

	return s.Upload(ctx, UploadParams{
		EmployeeID: link.EmployeeID,
		CompanyID:  link.CompanyID,
		FolderID:   &folderID,
		Name:       name,
		MimeType:   mimeType,
		Content:    content,
	})
}

func (s *Document) resolveLinkFolder(ctx context.Context, link model.UploadLink) (uuid.UUID, error) {
	if link.FolderID != nil {
		return *link.FolderID, nil
	}

	folder, err := s.folderStore.GetByNameAndCompany(ctx, link.Name, link.CompanyID)
	if errors.Is(err, model.ErrNotFound) {
		folder, err = s.folderStore.Create(ctx, model.Folder{
			ID:          uuid.New(),
			CompanyID:   link.CompanyID,
			Name:        link.Name,
			CreatedByID: link.EmployeeID,
			CreatedAt:   time.Now(),
		})
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve link folder: %w", err)
	}

	if err := s.uploadStore.SetFolderID(ctx, link.ID, folder.ID); err != nil {
		s.logger.Error("Document service: failed to pin link folder",
			"link_id", link.ID,
			"error", err.Error())
	}

	return folder.ID, nil
}

// Delete soft-deletes a document owned by the employee's company.
func (s *Document) Delete(ctx context.Context, employeeID, documentID uuid.UUID) error {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee by id: %w", err)
	}

	document, err := s.documentStore.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if document.CompanyID != employee.CompanyID {
		return model.ErrNotFound
	}

	return s.documentStore.SoftDelete(ctx, documentID)
}

// ListFolder lists documents in a folder of the employee's company.
func (s *Document) ListFolder(ctx context.Context, employeeID, folderID uuid.UUID) ([]model.Document, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}

	folder, err := s.folderStore.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.CompanyID != employee.CompanyID {
		return nil, model.ErrNotFound
	}

	return s.documentStore.ListByFolder(ctx, folderID)
}
