package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clovalink/clovalink-server/internal/model"
)

var _ model.FolderStore = (*FolderRepository)(nil)

type FolderRepository struct {
	db *Connection
}

func NewFolderRepository(db *Connection) *FolderRepository {
	return &FolderRepository{
		db: db,
	}
}

const folderColumns = `id, company_id, name, parent_id, created_by_id, created_at`

func scanFolder(row pgx.Row) (model.Folder, error) {
	var f model.Folder
	err := row.Scan(&f.ID, &f.CompanyID, &f.Name, &f.ParentID, &f.CreatedByID, &f.CreatedAt)
	return f, err
}

func (r *FolderRepository) Create(ctx context.Context, folder model.Folder) (model.Folder, error) {
	query := `INSERT INTO folders (id, company_id, name, parent_id, created_by_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + folderColumns

	saved, err := scanFolder(r.db.QueryRow(ctx, query,
		folder.ID, folder.CompanyID, folder.Name, folder.ParentID,
		folder.CreatedByID, folder.CreatedAt,
	))
	if err != nil {
		return model.Folder{}, fmt.Errorf("failed to create folder: %w", err)
	}

	return saved, nil
}

func (r *FolderRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`

	folder, err := scanFolder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Folder{}, model.ErrNotFound
		}
		return model.Folder{}, fmt.Errorf("failed to get folder by id: %w", err)
	}

	return folder, nil
}

func (r *FolderRepository) GetByNameAndCompany(ctx context.Context, name string, companyID uuid.UUID) (model.Folder, error) {
	query := `SELECT ` + folderColumns + `
			  FROM folders WHERE name = $1 AND company_id = $2
			  ORDER BY created_at LIMIT 1`

	folder, err := scanFolder(r.db.QueryRow(ctx, query, name, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Folder{}, model.ErrNotFound
		}
		return model.Folder{}, fmt.Errorf("failed to get folder by name: %w", err)
	}

	return folder, nil
}

func (r *FolderRepository) ListSubfolders(ctx context.Context, parentID uuid.UUID) ([]model.Folder, error) {
	query := `SELECT ` + folderColumns + `
			  FROM folders WHERE parent_id = $1 ORDER BY name`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subfolders: %w", err)
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folders: %w", err)
	}

	return folders, nil
}
