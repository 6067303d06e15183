package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clovalink/clovalink-server/internal/model"
)

var _ model.EmployeeStore = (*EmployeeRepository)(nil)

type EmployeeRepository struct {
	db *Connection
}

func NewEmployeeRepository(db *Connection) *EmployeeRepository {
	return &EmployeeRepository{
		db: db,
	}
}

const employeeColumns = `id, company_id, name, email, role, password_hash, totp_secret, totp_enabled,
		  backup_codes, public_key, created_at, updated_at, deleted_at`

func scanEmployee(row pgx.Row) (model.Employee, error) {
	var e model.Employee
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.Name, &e.Email, &e.Role, &e.PasswordHash,
		&e.TOTPSecret, &e.TOTPEnabled, &e.BackupCodes, &e.PublicKey,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	return e, err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Employee, error) {
	query := `SELECT ` + employeeColumns + `
			  FROM employees WHERE id = $1 AND deleted_at IS NULL`

	employee, err := scanEmployee(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Employee{}, model.ErrNotFound
		}
		return model.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	return employee, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (model.Employee, error) {
	query := `SELECT ` + employeeColumns + `
			  FROM employees WHERE email = $1 AND deleted_at IS NULL`

	employee, err := scanEmployee(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Employee{}, model.ErrNotFound
		}
		return model.Employee{}, fmt.Errorf("failed to get employee by email: %w", err)
	}

	return employee, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, employee model.Employee) (model.Employee, error) {
	query := `INSERT INTO employees (id, company_id, name, email, role, password_hash, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + employeeColumns

	saved, err := scanEmployee(r.db.QueryRow(ctx, query,
		employee.ID, employee.CompanyID, employee.Name, employee.Email,
		employee.Role, employee.PasswordHash, employee.CreatedAt, employee.UpdatedAt,
	))
	if err != nil {
		return model.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return saved, nil
}

func (r *EmployeeRepository) EnableTOTP(ctx context.Context, id uuid.UUID, secret string, backupCodeHashes [][]byte) error {
	query := `UPDATE employees
			  SET totp_secret = $2, totp_enabled = TRUE, backup_codes = $3, updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, secret, backupCodeHashes)
	if err != nil {
		return fmt.Errorf("failed to enable totp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *EmployeeRepository) DisableTOTP(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE employees
			  SET totp_secret = '', totp_enabled = FALSE, backup_codes = '{}', updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to disable totp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *EmployeeRepository) RemoveBackupCode(ctx context.Context, id uuid.UUID, hash []byte) error {
	// array_remove makes the consume-once guarantee a single write.
	query := `UPDATE employees
			  SET backup_codes = array_remove(backup_codes, $2), updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL AND $2 = ANY(backup_codes)`

	tag, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to remove backup code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *EmployeeRepository) SetPublicKey(ctx context.Context, id uuid.UUID, publicKey []byte) error {
	query := `UPDATE employees SET public_key = $2, updated_at = NOW()
			  WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, publicKey)
	if err != nil {
		return fmt.Errorf("failed to set public key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
