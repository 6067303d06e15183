package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/model"
)

var _ model.ActivityStore = (*ActivityRepository)(nil)

type ActivityRepository struct {
	db *Connection
}

func NewActivityRepository(db *Connection) *ActivityRepository {
	return &ActivityRepository{
		db: db,
	}
}

func (r *ActivityRepository) Create(ctx context.Context, activity model.Activity) error {
	query := `INSERT INTO activities (id, type, description, employee_id, company_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		activity.ID, activity.Type, activity.Description,
		activity.EmployeeID, activity.CompanyID, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

func (r *ActivityRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]model.Activity, error) {
	query := `SELECT id, type, description, employee_id, company_id, created_at
			  FROM activities WHERE company_id = $1
			  ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.Description, &a.EmployeeID, &a.CompanyID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM activities WHERE created_at < $1`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old activities: %w", err)
	}

	return tag.RowsAffected(), nil
}
