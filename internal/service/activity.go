package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
)

// Activity exposes the audit trail. Writes happen through recordActivity
// from the other services; this service only reads and purges.
type Activity struct {
	activityStore model.ActivityStore
	employeeStore model.EmployeeStore
	logger        *logger.Logger
}

func NewActivity(activityStore model.ActivityStore, employeeStore model.EmployeeStore, logger *logger.Logger) *Activity {
	return &Activity{
		activityStore: activityStore,
		employeeStore: employeeStore,
		logger:        logger,
	}
}

const defaultActivityLimit = 100

func (s *Activity) List(ctx context.Context, employeeID uuid.UUID, limit int) ([]model.Activity, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}

	if limit <= 0 || limit > defaultActivityLimit {
		limit = defaultActivityLimit
	}

	activities, err := s.activityStore.ListByCompany(ctx, employee.CompanyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return activities, nil
}

// Purge removes audit records older than the retention window.
func (s *Activity) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	deleted, err := s.activityStore.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge activities: %w", err)
	}

	s.logger.Info("Activity service: purged stale records",
		"deleted", deleted,
		"cutoff", cutoff)

	return deleted, nil
}

// recordActivity writes one audit record. The audit trail is a pure
// side-effecting collaborator: failures are logged, never surfaced.
func recordActivity(ctx context.Context, store model.ActivityStore, l *logger.Logger, t model.ActivityType, description string, employeeID, companyID uuid.UUID) {
	activity := model.Activity{
		ID:          uuid.New(),
		Type:        t,
		Description: description,
		EmployeeID:  employeeID,
		CompanyID:   companyID,
		CreatedAt:   time.Now(),
	}

	if err := store.Create(ctx, activity); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("failed to record activity",
			"type", t,
			"error", err.Error())
	}
}
