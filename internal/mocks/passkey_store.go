package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/clovalink/clovalink-server/internal/model"
)

type PasskeyStore struct {
	mock.Mock
}

func (m *PasskeyStore) Create(ctx context.Context, passkey model.Passkey) (model.Passkey, error) {
	args := m.Called(ctx, passkey)
	return args.Get(0).(model.Passkey), args.Error(1)
}

func (m *PasskeyStore) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) ([]model.Passkey, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Passkey), args.Error(1)
}

func (m *PasskeyStore) GetByCredentialID(ctx context.Context, credentialID []byte) (model.Passkey, error) {
	args := m.Called(ctx, credentialID)
	return args.Get(0).(model.Passkey), args.Error(1)
}

func (m *PasskeyStore) UpdateCounter(ctx context.Context, id uuid.UUID, oldCounter, newCounter uint32, usedAt time.Time) error {
	args := m.Called(ctx, id, oldCounter, newCounter, usedAt)
	return args.Error(0)
}

func (m *PasskeyStore) Delete(ctx context.Context, id, employeeID uuid.UUID) error {
	args := m.Called(ctx, id, employeeID)
	return args.Error(0)
}
