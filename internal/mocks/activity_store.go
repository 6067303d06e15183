package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/clovalink/clovalink-server/internal/model"
)

type ActivityStore struct {
	mock.Mock
}

func (m *ActivityStore) Create(ctx context.Context, activity model.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *ActivityStore) ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]model.Activity, error) {
	args := m.Called(ctx, companyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Activity), args.Error(1)
}

func (m *ActivityStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
