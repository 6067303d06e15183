// Package mocks provides testify mocks for the model interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/clovalink/clovalink-server/internal/model"
)

type EmployeeStore struct {
	mock.Mock
}

func (m *EmployeeStore) GetByID(ctx context.Context, id uuid.UUID) (model.Employee, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Employee), args.Error(1)
}

func (m *EmployeeStore) GetByEmail(ctx context.Context, email string) (model.Employee, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Employee), args.Error(1)
}

func (m *EmployeeStore) Create(ctx context.Context, employee model.Employee) (model.Employee, error) {
	args := m.Called(ctx, employee)
	return args.Get(0).(model.Employee), args.Error(1)
}

func (m *EmployeeStore) EnableTOTP(ctx context.Context, id uuid.UUID, secret string, backupCodeHashes [][]byte) error {
	args := m.Called(ctx, id, secret, backupCodeHashes)
	return args.Error(0)
}

func (m *EmployeeStore) DisableTOTP(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *EmployeeStore) RemoveBackupCode(ctx context.Context, id uuid.UUID, hash []byte) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *EmployeeStore) SetPublicKey(ctx context.Context, id uuid.UUID, publicKey []byte) error {
	args := m.Called(ctx, id, publicKey)
	return args.Error(0)
}
