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

var _ model.DownloadLinkStore = (*DownloadLinkRepository)(nil)

type DownloadLinkRepository struct {
	db *Connection
}

func NewDownloadLinkRepository(db *Connection) *DownloadLinkRepository {
	return &DownloadLinkRepository{
		db: db,
	}
}

const downloadLinkColumns = `id, token, target_kind, target_id, employee_id, company_id,
		  expires_at, use_count, max_uses, used, created_at, updated_at`

func scanDownloadLink(row pgx.Row) (model.DownloadLink, error) {
	var l model.DownloadLink
	err := row.Scan(
		&l.ID, &l.Token, &l.Target.Kind, &l.Target.ID, &l.EmployeeID, &l.CompanyID,
		&l.ExpiresAt, &l.UseCount, &l.MaxUses, &l.Used, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *DownloadLinkRepository) Create(ctx context.Context, link model.DownloadLink) (model.DownloadLink, error) {
	query := `INSERT INTO download_links (id, token, target_kind, target_id, employee_id, company_id,
				  expires_at, max_uses, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + downloadLinkColumns

	saved, err := scanDownloadLink(r.db.QueryRow(ctx, query,
		link.ID, link.Token, link.Target.Kind, link.Target.ID, link.EmployeeID,
		link.CompanyID, link.ExpiresAt, link.MaxUses, link.CreatedAt, link.UpdatedAt,
	))
	if err != nil {
		return model.DownloadLink{}, fmt.Errorf("failed to create download link: %w", err)
	}

	return saved, nil
}

func (r *DownloadLinkRepository) GetByToken(ctx context.Context, token string) (model.DownloadLink, error) {
	query := `SELECT ` + downloadLinkColumns + `
			  FROM download_links WHERE token = $1`

	link, err := scanDownloadLink(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DownloadLink{}, model.ErrNotFound
		}
		return model.DownloadLink{}, fmt.Errorf("failed to get download link by token: %w", err)
	}

	return link, nil
}

func (r *DownloadLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (model.DownloadLink, error) {
	query := `SELECT ` + downloadLinkColumns + `
			  FROM download_links WHERE id = $1`

	link, err := scanDownloadLink(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DownloadLink{}, model.ErrNotFound
		}
		return model.DownloadLink{}, fmt.Errorf("failed to get download link by id: %w", err)
	}

	return link, nil
}

func (r *DownloadLinkRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.DownloadLink, error) {
	query := `SELECT ` + downloadLinkColumns + `
			  FROM download_links WHERE company_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list download links: %w", err)
	}
	defer rows.Close()

	var links []model.DownloadLink
	for rows.Next() {
		l, err := scanDownloadLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate download links: %w", err)
	}

	return links, nil
}

func (r *DownloadLinkRepository) Redeem(ctx context.Context, token string, now time.Time) (model.DownloadLink, error) {
	// Single conditional update: of two concurrent redemptions of the last
	// remaining use, exactly one matches the predicate.
	query := `UPDATE download_links
			  SET use_count = use_count + 1,
				  used = (use_count + 1 >= max_uses),
				  updated_at = NOW()
			  WHERE token = $1 AND used = FALSE AND use_count < max_uses AND expires_at > $2
			  RETURNING ` + downloadLinkColumns

	link, err := scanDownloadLink(r.db.QueryRow(ctx, query, token, now))
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.DownloadLink{}, fmt.Errorf("failed to redeem download link: %w", err)
	}

	// No row matched: read the current state to classify the refusal.
	current, err := r.GetByToken(ctx, token)
	if err != nil {
		return model.DownloadLink{}, err
	}
	if verr := model.Redeemable(current.ExpiresAt, current.UseCount, current.MaxUses, current.Used, now); verr != nil {
		return model.DownloadLink{}, verr
	}
	return model.DownloadLink{}, model.ErrLinkUsed
}

func (r *DownloadLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM download_links WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete download link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *DownloadLinkRepository) DeleteUsedBefore(ctx context.Context, cutoff time.Time) ([]model.DownloadLink, error) {
	query := `DELETE FROM download_links
			  WHERE used = TRUE AND created_at < $1
			  RETURNING ` + downloadLinkColumns

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete used download links: %w", err)
	}
	defer rows.Close()

	var links []model.DownloadLink
	for rows.Next() {
		l, err := scanDownloadLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deleted download link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deleted download links: %w", err)
	}

	return links, nil
}
