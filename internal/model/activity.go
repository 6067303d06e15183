package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityType enumerates audit record kinds.
type ActivityType string

const (
	ActivityUploadLinkCreated     ActivityType = "UPLOAD_LINK_CREATED"
	ActivityUploadLinkUsed        ActivityType = "UPLOAD_LINK_USED"
	ActivityUploadLinkDeleted     ActivityType = "UPLOAD_LINK_DELETED"
	ActivityUploadLinkAutoDeleted ActivityType = "UPLOAD_LINK_AUTO_DELETED"
	ActivityDownloadLinkCreated   ActivityType = "DOWNLOAD_LINK_CREATED"
	ActivityDownloadLinkUsed      ActivityType = "DOWNLOAD_LINK_USED"
	ActivityDownloadLinkDeleted   ActivityType = "DOWNLOAD_LINK_DELETED"
	ActivityTOTPEnabled           ActivityType = "TOTP_ENABLED"
	ActivityTOTPDisabled          ActivityType = "TOTP_DISABLED"
	ActivityPasskeyRegistered     ActivityType = "PASSKEY_REGISTERED"
	ActivityPasskeyRemoved        ActivityType = "PASSKEY_REMOVED"
	ActivityDocumentUploaded      ActivityType = "DOCUMENT_UPLOADED"
	ActivityDocumentDownloaded    ActivityType = "DOCUMENT_DOWNLOADED"
	ActivityLogin                 ActivityType = "LOGIN"
	ActivitySecurityAlert         ActivityType = "SECURITY_ALERT"
)

// Activity is an audit trail record. The audit writer is a pure
// side-effecting collaborator: failures are logged, never surfaced.
type Activity struct {
	ID          uuid.UUID
	Type        ActivityType
	Description string
	EmployeeID  uuid.UUID
	CompanyID   uuid.UUID
	CreatedAt   time.Time
}

// ActivityStore defines persistence operations for audit records.
type ActivityStore interface {
	Create(ctx context.Context, activity Activity) error
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]Activity, error)
	// DeleteOlderThan purges stale records and returns the purge count.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
