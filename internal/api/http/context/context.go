// Package context carries the authenticated employee ID through request
// contexts.
package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const employeeIDKey contextKey = "employee_id"

// Manager implements model.ContextManager over plain context values.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// SetEmployeeIDToContext returns a child context holding the employee ID.
func (m *Manager) SetEmployeeIDToContext(ctx context.Context, employeeID uuid.UUID) context.Context {
	return context.WithValue(ctx, employeeIDKey, employeeID)
}

// GetEmployeeIDFromContext retrieves the employee ID set by the
// authentication middleware.
func (m *Manager) GetEmployeeIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	employeeID, ok := ctx.Value(employeeIDKey).(uuid.UUID)
	if !ok || employeeID == uuid.Nil {
		return uuid.Nil, false
	}
	return employeeID, true
}
