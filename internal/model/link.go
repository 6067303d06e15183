package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TargetKind enumerates download link target kinds.
type TargetKind string

const (
	// TargetFolder means the link resolves to a folder (delivered as an archive).
	TargetFolder TargetKind = "folder"
	// TargetDocument means the link resolves to a single document.
	TargetDocument TargetKind = "document"
)

// LinkTarget is a tagged union: exactly one entity, identified by Kind and ID.
type LinkTarget struct {
	Kind TargetKind
	ID   uuid.UUID
}

// DownloadLink grants bearer access to one folder or document under
// time and usage constraints, independent of a login session.
type DownloadLink struct {
	ID         uuid.UUID
	Token      string
	Target     LinkTarget
	EmployeeID uuid.UUID
	CompanyID  uuid.UUID
	ExpiresAt  time.Time
	UseCount   int
	MaxUses    int
	Used       bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UploadLink grants bearer permission to upload files into a folder owned by
// the creator's company. Name selects (or lazily creates) the destination
// folder.
type UploadLink struct {
	ID         uuid.UUID
	Token      string
	Name       string
	EmployeeID uuid.UUID
	CompanyID  uuid.UUID
	ExpiresAt  time.Time
	UseCount   int
	MaxUses    int
	Used       bool
	FolderID   *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DownloadLinkStore defines persistence operations for download links.
// Redeem must be implemented as a single conditional update: two concurrent
// redemptions of a single-use link result in exactly one success.
type DownloadLinkStore interface {
	Create(ctx context.Context, link DownloadLink) (DownloadLink, error)
	GetByToken(ctx context.Context, token string) (DownloadLink, error)
	GetByID(ctx context.Context, id uuid.UUID) (DownloadLink, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]DownloadLink, error)
	// Redeem atomically increments the use count, marking the link used when
	// the budget is exhausted. Returns the post-redemption link, or one of
	// ErrNotFound, ErrLinkExpired, ErrLinkMaxUses, ErrLinkUsed.
	Redeem(ctx context.Context, token string, now time.Time) (DownloadLink, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteUsedBefore removes used links created before the cutoff and
	// returns the deleted rows. An empty result is not an error.
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) ([]DownloadLink, error)
}

// UploadLinkStore defines persistence operations for upload links.
type UploadLinkStore interface {
	Create(ctx context.Context, link UploadLink) (UploadLink, error)
	GetByToken(ctx context.Context, token string) (UploadLink, error)
	GetByID(ctx context.Context, id uuid.UUID) (UploadLink, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]UploadLink, error)
	Redeem(ctx context.Context, token string, now time.Time) (UploadLink, error)
	// SetFolderID records the lazily created destination folder.
	SetFolderID(ctx context.Context, id, folderID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) ([]UploadLink, error)
}

// Redeemable reports whether the link may still be redeemed at the given
// time. Check order matches the validation contract: expiry first, then use
// budget, then the used flag.
func Redeemable(expiresAt time.Time, useCount, maxUses int, used bool, now time.Time) error {
	if !now.Before(expiresAt) {
		return ErrLinkExpired
	}
	if useCount+1 > maxUses {
		return ErrLinkMaxUses
	}
	if used {
		return ErrLinkUsed
	}
	return nil
}
