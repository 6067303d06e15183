package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/clovalink/clovalink-server/internal/model"
)

type DocumentStore struct {
	mock.Mock
}

func (m *DocumentStore) Create(ctx context.Context, document model.Document) (model.Document, error) {
	args := m.Called(ctx, document)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *DocumentStore) GetByID(ctx context.Context, id uuid.UUID) (model.Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *DocumentStore) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]model.Document, error) {
	args := m.Called(ctx, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *DocumentStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *DocumentStore) CreateChunks(ctx context.Context, chunks []model.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *DocumentStore) GetChunks(ctx context.Context, documentID uuid.UUID) ([]model.Chunk, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Chunk), args.Error(1)
}

type FolderStore struct {
	mock.Mock
}

func (m *FolderStore) Create(ctx context.Context, folder model.Folder) (model.Folder, error) {
	args := m.Called(ctx, folder)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *FolderStore) GetByID(ctx context.Context, id uuid.UUID) (model.Folder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *FolderStore) GetByNameAndCompany(ctx context.Context, name string, companyID uuid.UUID) (model.Folder, error) {
	args := m.Called(ctx, name, companyID)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *FolderStore) ListSubfolders(ctx context.Context, parentID uuid.UUID) ([]model.Folder, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Folder), args.Error(1)
}
