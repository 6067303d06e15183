package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasskeyStore defines persistence operations for WebAuthn credentials.
type PasskeyStore interface {
	// Create persists a new passkey. Returns ErrDuplicateCredential when the
	// credential ID is already registered for any employee.
	Create(ctx context.Context, passkey Passkey) (Passkey, error)
	GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) ([]Passkey, error)
	GetByCredentialID(ctx context.Context, credentialID []byte) (Passkey, error)
	// UpdateCounter stores the new signature counter and last-used timestamp.
	// The write is conditional on the previously observed counter so that two
	// concurrent authentications cannot both succeed; the loser gets
	// ErrPossibleClone.
	UpdateCounter(ctx context.Context, id uuid.UUID, oldCounter, newCounter uint32, usedAt time.Time) error
	Delete(ctx context.Context, id, employeeID uuid.UUID) error
}

// Passkey represents a stored WebAuthn credential. CredentialID holds the
// decoded bytes; comparisons are done on bytes, never on a textual encoding.
type Passkey struct {
	ID           uuid.UUID
	EmployeeID   uuid.UUID
	CredentialID []byte
	PublicKey    []byte
	Counter      uint32
	DeviceName   string
	LastUsedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
