package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Folder groups documents within a company.
type Folder struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	ParentID    *uuid.UUID
	CreatedByID uuid.UUID
	CreatedAt   time.Time
}

// Document represents stored file metadata. Content lives in object storage
// as an ordered sequence of encrypted chunks sharing one data key; only the
// wrapped (master-key encrypted) form of that key is persisted.
type Document struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	FolderID     *uuid.UUID
	Name         string
	MimeType     string
	Size         int64
	WrappedKey   []byte
	ChunkSize    int
	ChunkCount   int
	UploadedByID uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Chunk holds per-chunk encryption metadata. Hash is a content digest of the
// plaintext, verifiable without holding the data key.
type Chunk struct {
	DocumentID uuid.UUID
	Index      int
	ObjectKey  string
	Nonce      []byte
	Hash       []byte
	Size       int
}

// DocumentStore defines persistence operations for document metadata.
type DocumentStore interface {
	Create(ctx context.Context, document Document) (Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (Document, error)
	ListByFolder(ctx context.Context, folderID uuid.UUID) ([]Document, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CreateChunks(ctx context.Context, chunks []Chunk) error
	GetChunks(ctx context.Context, documentID uuid.UUID) ([]Chunk, error)
}

// FolderStore defines persistence operations for folders.
type FolderStore interface {
	Create(ctx context.Context, folder Folder) (Folder, error)
	GetByID(ctx context.Context, id uuid.UUID) (Folder, error)
	GetByNameAndCompany(ctx context.Context, name string, companyID uuid.UUID) (Folder, error)
	ListSubfolders(ctx context.Context, parentID uuid.UUID) ([]Folder, error)
}
