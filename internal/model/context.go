package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager carries the authenticated employee ID through request
// contexts. Session state never lives in process globals; everything travels
// on the context so the auth core stays horizontally scalable.
type ContextManager interface {
	SetEmployeeIDToContext(ctx context.Context, employeeID uuid.UUID) context.Context
	GetEmployeeIDFromContext(ctx context.Context) (uuid.UUID, bool)
}
