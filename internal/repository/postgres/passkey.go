package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clovalink/clovalink-server/internal/model"
)

var _ model.PasskeyStore = (*PasskeyRepository)(nil)

type PasskeyRepository struct {
	db *Connection
}

func NewPasskeyRepository(db *Connection) *PasskeyRepository {
	return &PasskeyRepository{
		db: db,
	}
}

const passkeyColumns = `id, employee_id, credential_id, public_key, counter, device_name,
		  last_used_at, created_at, updated_at`

func scanPasskey(row pgx.Row) (model.Passkey, error) {
	var p model.Passkey
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.CredentialID, &p.PublicKey, &p.Counter,
		&p.DeviceName, &p.LastUsedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *PasskeyRepository) Create(ctx context.Context, passkey model.Passkey) (model.Passkey, error) {
	query := `INSERT INTO passkeys (id, employee_id, credential_id, public_key, counter, device_name, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + passkeyColumns

	saved, err := scanPasskey(r.db.QueryRow(ctx, query,
		passkey.ID, passkey.EmployeeID, passkey.CredentialID, passkey.PublicKey,
		passkey.Counter, passkey.DeviceName, passkey.CreatedAt, passkey.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Passkey{}, model.ErrDuplicateCredential
		}
		return model.Passkey{}, fmt.Errorf("failed to create passkey: %w", err)
	}

	return saved, nil
}

func (r *PasskeyRepository) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) ([]model.Passkey, error) {
	query := `SELECT ` + passkeyColumns + `
			  FROM passkeys WHERE employee_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list passkeys: %w", err)
	}
	defer rows.Close()

	var passkeys []model.Passkey
	for rows.Next() {
		p, err := scanPasskey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan passkey: %w", err)
		}
		passkeys = append(passkeys, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passkeys: %w", err)
	}

	return passkeys, nil
}

func (r *PasskeyRepository) GetByCredentialID(ctx context.Context, credentialID []byte) (model.Passkey, error) {
	query := `SELECT ` + passkeyColumns + `
			  FROM passkeys WHERE credential_id = $1`

	passkey, err := scanPasskey(r.db.QueryRow(ctx, query, credentialID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Passkey{}, model.ErrNotFound
		}
		return model.Passkey{}, fmt.Errorf("failed to get passkey by credential id: %w", err)
	}

	return passkey, nil
}

func (r *PasskeyRepository) UpdateCounter(ctx context.Context, id uuid.UUID, oldCounter, newCounter uint32, usedAt time.Time) error {
	// Compare-and-swap on the previously observed counter. A miss means a
	// concurrent authentication already advanced it.
	query := `UPDATE passkeys
			  SET counter = $3, last_used_at = $4, updated_at = NOW()
			  WHERE id = $1 AND counter = $2`

	tag, err := r.db.Exec(ctx, query, id, oldCounter, newCounter, usedAt)
	if err != nil {
		return fmt.Errorf("failed to update passkey counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPossibleClone
	}

	return nil
}

func (r *PasskeyRepository) Delete(ctx context.Context, id, employeeID uuid.UUID) error {
	query := `DELETE FROM passkeys WHERE id = $1 AND employee_id = $2`

	tag, err := r.db.Exec(ctx, query, id, employeeID)
	if err != nil {
		return fmt.Errorf("failed to delete passkey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
