package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clovalink/clovalink-server/internal/model"
)

var _ model.DocumentStore = (*DocumentRepository)(nil)

type DocumentRepository struct {
	db *Connection
}

func NewDocumentRepository(db *Connection) *DocumentRepository {
	return &DocumentRepository{
		db: db,
	}
}

const documentColumns = `id, company_id, folder_id, name, mime_type, size, wrapped_key,
		  chunk_size, chunk_count, uploaded_by_id, created_at, updated_at, deleted_at`

func scanDocument(row pgx.Row) (model.Document, error) {
	var d model.Document
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.FolderID, &d.Name, &d.MimeType, &d.Size,
		&d.WrappedKey, &d.ChunkSize, &d.ChunkCount, &d.UploadedByID,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt,
	)
	return d, err
}

func (r *DocumentRepository) Create(ctx context.Context, document model.Document) (model.Document, error) {
	query := `INSERT INTO documents (id, company_id, folder_id, name, mime_type, size, wrapped_key,
				  chunk_size, chunk_count, uploaded_by_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING ` + documentColumns

	saved, err := scanDocument(r.db.QueryRow(ctx, query,
		document.ID, document.CompanyID, document.FolderID, document.Name,
		document.MimeType, document.Size, document.WrappedKey, document.ChunkSize,
		document.ChunkCount, document.UploadedByID, document.CreatedAt, document.UpdatedAt,
	))
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to create document: %w", err)
	}

	return saved, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Document, error) {
	query := `SELECT ` + documentColumns + `
			  FROM documents WHERE id = $1 AND deleted_at IS NULL`

	document, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Document{}, model.ErrNotFound
		}
		return model.Document{}, fmt.Errorf("failed to get document by id: %w", err)
	}

	return document, nil
}

func (r *DocumentRepository) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + `
			  FROM documents WHERE folder_id = $1 AND deleted_at IS NULL ORDER BY name`

	rows, err := r.db.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return documents, nil
}

func (r *DocumentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE documents SET deleted_at = NOW(), updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *DocumentRepository) CreateChunks(ctx context.Context, chunks []model.Chunk) error {
	batch := &pgx.Batch{}
	query := `INSERT INTO document_chunks (document_id, idx, object_key, nonce, hash, size)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	for _, c := range chunks {
		batch.Queue(query, c.DocumentID, c.Index, c.ObjectKey, c.Nonce, c.Hash, c.Size)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create chunk: %w", err)
		}
	}

	return nil
}

func (r *DocumentRepository) GetChunks(ctx context.Context, documentID uuid.UUID) ([]model.Chunk, error) {
	query := `SELECT document_id, idx, object_key, nonce, hash, size
			  FROM document_chunks WHERE document_id = $1 ORDER BY idx`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.DocumentID, &c.Index, &c.ObjectKey, &c.Nonce, &c.Hash, &c.Size); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return chunks, nil
}
