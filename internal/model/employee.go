package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EmployeeStore defines persistence operations for employees and their
// secret material. TOTP and backup-code mutations go through dedicated
// methods so the secret material is only ever written by the auth components.
type EmployeeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	Create(ctx context.Context, employee Employee) (Employee, error)
	// EnableTOTP persists the secret, the enabled flag and the hashed backup
	// codes in one write.
	EnableTOTP(ctx context.Context, id uuid.UUID, secret string, backupCodeHashes [][]byte) error
	// DisableTOTP clears the secret, the enabled flag and all backup codes.
	DisableTOTP(ctx context.Context, id uuid.UUID) error
	// RemoveBackupCode removes a single consumed backup code hash atomically.
	RemoveBackupCode(ctx context.Context, id uuid.UUID, hash []byte) error
	// SetPublicKey stores the employee's asymmetric public key for
	// end-to-end flows.
	SetPublicKey(ctx context.Context, id uuid.UUID, publicKey []byte) error
}

// Employee represents a stored employee with authentication material.
// PasswordHash and BackupCodes hold bcrypt hashes, never plaintext.
type Employee struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Name         string
	Email        string
	Role         Role
	PasswordHash []byte
	TOTPSecret   string
	TOTPEnabled  bool
	BackupCodes  [][]byte
	PublicKey    []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Role enumerates employee roles.
type Role string

const (
	// RoleAdmin may manage any link in its company and invoke maintenance.
	RoleAdmin Role = "admin"
	// RoleManager may issue capability links.
	RoleManager Role = "manager"
	// RoleUser is a regular employee.
	RoleUser Role = "user"
)

// IsAdmin reports whether the employee holds the admin role.
func (e Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}
