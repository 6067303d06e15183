package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/clovalink/clovalink-server/internal/model"
)

type DownloadLinkStore struct {
	mock.Mock
}

func (m *DownloadLinkStore) Create(ctx context.Context, link model.DownloadLink) (model.DownloadLink, error) {
	args := m.Called(ctx, link)
	return args.Get(0).(model.DownloadLink), args.Error(1)
}

func (m *DownloadLinkStore) GetByToken(ctx context.Context, token string) (model.DownloadLink, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.DownloadLink), args.Error(1)
}

func (m *DownloadLinkStore) GetByID(ctx context.Context, id uuid.UUID) (model.DownloadLink, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.DownloadLink), args.Error(1)
}

func (m *DownloadLinkStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.DownloadLink, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DownloadLink), args.Error(1)
}

func (m *DownloadLinkStore) Redeem(ctx context.Context, token string, now time.Time) (model.DownloadLink, error) {
	args := m.Called(ctx, token, now)
	return args.Get(0).(model.DownloadLink), args.Error(1)
}

func (m *DownloadLinkStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *DownloadLinkStore) DeleteUsedBefore(ctx context.Context, cutoff time.Time) ([]model.DownloadLink, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DownloadLink), args.Error(1)
}

type UploadLinkStore struct {
	mock.Mock
}

func (m *UploadLinkStore) Create(ctx context.Context, link model.UploadLink) (model.UploadLink, error) {
	args := m.Called(ctx, link)
	return args.Get(0).(model.UploadLink), args.Error(1)
}

func (m *UploadLinkStore) GetByToken(ctx context.Context, token string) (model.UploadLink, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.UploadLink), args.Error(1)
}

func (m *UploadLinkStore) GetByID(ctx context.Context, id uuid.UUID) (model.UploadLink, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.UploadLink), args.Error(1)
}

func (m *UploadLinkStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.UploadLink, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadLink), args.Error(1)
}

func (m *UploadLinkStore) Redeem(ctx context.Context, token string, now time.Time) (model.UploadLink, error) {
	args := m.Called(ctx, token, now)
	return args.Get(0).(model.UploadLink), args.Error(1)
}

func (m *UploadLinkStore) SetFolderID(ctx context.Context, id, folderID uuid.UUID) error {
	args := m.Called(ctx, id, folderID)
	return args.Error(0)
}

func (m *UploadLinkStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UploadLinkStore) DeleteUsedBefore(ctx context.Context, cutoff time.Time) ([]model.UploadLink, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadLink), args.Error(1)
}
