package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clovalink/clovalink-server/internal/model"
)

var _ model.UploadLinkStore = (*UploadLinkRepository)(nil)

type UploadLinkRepository struct {
	db *Connection
}

func NewUploadLinkRepository(db *Connection) *UploadLinkRepository {
	return &UploadLinkRepository{
		db: db,
	}
}

const uploadLinkColumns = `id, token, name, employee_id, company_id, expires_at,
		  use_count, max_uses, used, folder_id, created_at, updated_at`

func scanUploadLink(row pgx.Row) (model.UploadLink, error) {
	var l model.UploadLink
	err := row.Scan(
		&l.ID, &l.Token, &l.Name, &l.EmployeeID, &l.CompanyID, &l.ExpiresAt,
		&l.UseCount, &l.MaxUses, &l.Used, &l.FolderID, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *UploadLinkRepository) Create(ctx context.Context, link model.UploadLink) (model.UploadLink, error) {
	query := `INSERT INTO upload_links (id, token, name, employee_id, company_id, expires_at, max_uses, folder_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + uploadLinkColumns

	saved, err := scanUploadLink(r.db.QueryRow(ctx, query,
		link.ID, link.Token, link.Name, link.EmployeeID, link.CompanyID,
		link.ExpiresAt, link.MaxUses, link.FolderID, link.CreatedAt, link.UpdatedAt,
	))
	if err != nil {
		return model.UploadLink{}, fmt.Errorf("failed to create upload link: %w", err)
	}

	return saved, nil
}

func (r *UploadLinkRepository) GetByToken(ctx context.Context, token string) (model.UploadLink, error) {
	query := `SELECT ` + uploadLinkColumns + `
			  FROM upload_links WHERE token = $1`

	link, err := scanUploadLink(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UploadLink{}, model.ErrNotFound
		}
		return model.UploadLink{}, fmt.Errorf("failed to get upload link by token: %w", err)
	}

	return link, nil
}

func (r *UploadLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (model.UploadLink, error) {
	query := `SELECT ` + uploadLinkColumns + `
			  FROM upload_links WHERE id = $1`

	link, err := scanUploadLink(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UploadLink{}, model.ErrNotFound
		}
		return model.UploadLink{}, fmt.Errorf("failed to get upload link by id: %w", err)
	}

	return link, nil
}

func (r *UploadLinkRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.UploadLink, error) {
	query := `SELECT ` + uploadLinkColumns + `
			  FROM upload_links WHERE company_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload links: %w", err)
	}
	defer rows.Close()

	var links []model.UploadLink
	for rows.Next() {
		l, err := scanUploadLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload links: %w", err)
	}

	return links, nil
}

func (r *UploadLinkRepository) Redeem(ctx context.Context, token string, now time.Time) (model.UploadLink, error) {
	query := `UPDATE upload_links
			  SET use_count = use_count + 1,
				  used = (use_count + 1 >= max_uses),
				  updated_at = NOW()
			  WHERE token = $1 AND used = FALSE AND use_count < max_uses AND expires_at > $2
			  RETURNING ` + uploadLinkColumns

	link, err := scanUploadLink(r.db.QueryRow(ctx, query, token, now))
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.UploadLink{}, fmt.Errorf("failed to redeem upload link: %w", err)
	}

	current, err := r.GetByToken(ctx, token)
	if err != nil {
		return model.UploadLink{}, err
	}
	if verr := model.Redeemable(current.ExpiresAt, current.UseCount, current.MaxUses, current.Used, now); verr != nil {
		return model.UploadLink{}, verr
	}
	return model.UploadLink{}, model.ErrLinkUsed
}

func (r *UploadLinkRepository) SetFolderID(ctx context.Context, id, folderID uuid.UUID) error {
	query := `UPDATE upload_links SET folder_id = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, folderID)
	if err != nil {
		return fmt.Errorf("failed to set upload link folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *UploadLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM upload_links WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete upload link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *UploadLinkRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) ([]model.UploadLink, error) {
	query := `DELETE FROM upload_links
			  WHERE used = TRUE AND created_at < $1
			  RETURNING ` + uploadLinkColumns

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete used upload links: %w", err)
	}
	defer rows.Close()

	var links []model.UploadLink
	for rows.Next() {
		l, err := scanUploadLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deleted upload link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deleted upload links: %w", err)
	}

	return links, nil
}
