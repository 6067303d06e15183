package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/secret"
)

const (
	minExpiresInDays = 1
	maxExpiresInDays = 30
)

// Link implements issuance, validation, redemption and cleanup of
// capability links. Validation never mutates state; consumption happens
// only in Redeem, through the store's atomic conditional update.
type Link struct {
	downloadStore model.DownloadLinkStore
	uploadStore   model.UploadLinkStore
	documentStore model.DocumentStore
	folderStore   model.FolderStore
	employeeStore model.EmployeeStore
	activityStore model.ActivityStore
	baseURL       string
	logger        *logger.Logger
	now           func() time.Time
}

func NewLink(
	downloadStore model.DownloadLinkStore,
	uploadStore model.UploadLinkStore,
	documentStore model.DocumentStore,
	folderStore model.FolderStore,
	employeeStore model.EmployeeStore,
	activityStore model.ActivityStore,
	baseURL string,
	logger *logger.Logger,
) *Link {
	return &Link{
		downloadStore: downloadStore,
		uploadStore:   uploadStore,
		documentStore: documentStore,
		folderStore:   folderStore,
		employeeStore: employeeStore,
		activityStore: activityStore,
		baseURL:       baseURL,
		logger:        logger,
		now:           time.Now,
	}
}

// DownloadLinkResult is a created link plus its fully-qualified redemption
// URL.
type DownloadLinkResult struct {
	Link model.DownloadLink
	URL  string
}

type UploadLinkResult struct {
	Link model.UploadLink
	URL  string
}

func clampExpiresInDays(days int) int {
	if days < minExpiresInDays {
		return minExpiresInDays
	}
	if days > maxExpiresInDays {
		return maxExpiresInDays
	}
	return days
}

// IssueDownload creates a download link for a folder or document in the
// caller's company.
func (s *Link) IssueDownload(ctx context.Context, employeeID uuid.UUID, target model.LinkTarget, expiresInDays, maxUses int) (DownloadLinkResult, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return DownloadLinkResult{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	if err := s.checkTargetCompany(ctx, target, employee.CompanyID); err != nil {
		return DownloadLinkResult{}, err
	}

	token, err := secret.Token()
	if err != nil {
		return DownloadLinkResult{}, fmt.Errorf("failed to generate token: %w", err)
	}

	if maxUses < 1 {
		maxUses = 1
	}

	now := s.now()
	link := model.DownloadLink{
		ID:         uuid.New(),
		Token:      token,
		Target:     target,
		EmployeeID: employeeID,
		CompanyID:  employee.CompanyID,
		ExpiresAt:  now.AddDate(0, 0, clampExpiresInDays(expiresInDays)),
		MaxUses:    maxUses,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	saved, err := s.downloadStore.Create(ctx, link)
	if err != nil {
		return DownloadLinkResult{}, fmt.Errorf("failed to create download link: %w", err)
	}

	s.logger.Info("Link service: download link issued",
		"link_id", saved.ID,
		"target_kind", target.Kind,
		"employee_id", employeeID)
	recordActivity(ctx, s.activityStore, s.logger, model.ActivityDownloadLinkCreated,
		fmt.Sprintf("Download link created for %s", target.Kind), employeeID, employee.CompanyID)

	return DownloadLinkResult{
		Link: saved,
		URL:  fmt.Sprintf("%s/download/%s", s.baseURL, saved.Token),
	}, nil
}

// checkTargetCompany enforces that a link never crosses tenants.
func (s *Link) checkTargetCompany(ctx context.Context, target model.LinkTarget, companyID uuid.UUID) error {
	switch target.Kind {
	case model.TargetDocument:
		document, err := s.documentStore.GetByID(ctx, target.ID)
		if err != nil {
			return err
		}
		if document.CompanyID != companyID {
			return model.ErrPermissionDenied
		}
	case model.TargetFolder:
		folder, err := s.folderStore.GetByID(ctx, target.ID)
		if err != nil {
			return err
		}
		if folder.CompanyID != companyID {
			return model.ErrPermissionDenied
		}
	default:
		return model.NewValidationError("exactly one of folderId or documentId is required")
	}
	return nil
}

// IssueUpload creates an upload link. Name labels the destination folder,
// which is created lazily on first redemption.
func (s *Link) IssueUpload(ctx context.Context, employeeID uuid.UUID, name string, expiresInDays, maxUses int) (UploadLinkResult, error) {
	if name == "" {
		return UploadLinkResult{}, model.NewValidationError("name is required")
	}

	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return UploadLinkResult{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	token, err := secret.Token()
	if err != nil {
		return UploadLinkResult{}, fmt.Errorf("failed to generate token: %w", err)
	}

	if maxUses < 1 {
		maxUses = 1
	}

	now := s.now()
	link := model.UploadLink{
		ID:         uuid.New(),
		Token:      token,
		Name:       name,
		EmployeeID: employeeID,
		CompanyID:  employee.CompanyID,
		ExpiresAt:  now.AddDate(0, 0, clampExpiresInDays(expiresInDays)),
		MaxUses:    maxUses,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	saved, err := s.uploadStore.Create(ctx, link)
	if err != nil {
		return UploadLinkResult{}, fmt.Errorf("failed to create upload link: %w", err)
	}

	s.logger.Info("Link service: upload link issued",
		"link_id", saved.ID,
		"employee_id", employeeID)
	recordActivity(ctx, s.activityStore, s.logger, model.ActivityUploadLinkCreated,
		fmt.Sprintf("Upload link created: %s", name), employeeID, employee.CompanyID)

	return UploadLinkResult{
		Link: saved,
		URL:  fmt.Sprintf("%s/upload/%s", s.baseURL, saved.Token),
	}, nil
}

// ValidateDownload checks redeemability without consuming a use.
func (s *Link) ValidateDownload(ctx context.Context, token string) (model.DownloadLink, error) {
	link, err := s.downloadStore.GetByToken(ctx, token)
	if err != nil {
		return model.DownloadLink{}, err
	}
	if err := model.Redeemable(link.ExpiresAt, link.UseCount, link.MaxUses, link.Used, s.now()); err != nil {
		return model.DownloadLink{}, err
	}
	return link, nil
}

func (s *Link) ValidateUpload(ctx context.Context, token string) (model.UploadLink, error) {
	link, err := s.uploadStore.GetByToken(ctx, token)
	if err != nil {
		return model.UploadLink{}, err
	}
	if err := model.Redeemable(link.ExpiresAt, link.UseCount, link.MaxUses, link.Used, s.now()); err != nil {
		return model.UploadLink{}, err
	}
	return link, nil
}

// RedeemDownload consumes one use. The store performs the transition as a
// single conditional update, so concurrent redemptions of the last use
// cannot both succeed.
func (s *Link) RedeemDownload(ctx context.Context, token string) (model.DownloadLink, error) {
	link, err := s.downloadStore.Redeem(ctx, token, s.now())
	if err != nil {
		return model.DownloadLink{}, err
	}

	recordActivity(ctx, s.activityStore, s.logger, model.ActivityDownloadLinkUsed,
		fmt.Sprintf("Download link used for %s", link.Target.Kind), link.EmployeeID, link.CompanyID)

	return link, nil
}

func (s *Link) RedeemUpload(ctx context.Context, token string) (model.UploadLink, error) {
	link, err := s.uploadStore.Redeem(ctx, token, s.now())
	if err != nil {
		return model.UploadLink{}, err
	}

	recordActivity(ctx, s.activityStore, s.logger, model.ActivityUploadLinkUsed,
		fmt.Sprintf("Upload link used: %s", link.Name), link.EmployeeID, link.CompanyID)

	return link, nil
}

// RevokeDownload deletes a link before expiry. Only the creator or a
// company administrator may revoke.
func (s *Link) RevokeDownload(ctx context.Context, employeeID, linkID uuid.UUID) error {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee by id: %w", err)
	}

	link, err := s.downloadStore.GetByID(ctx, linkID)
	if err != nil {
		return err
	}

	if err := canRevoke(employee, link.EmployeeID, link.CompanyID); err != nil {
		return err
	}

	if err := s.downloadStore.Delete(ctx, linkID); err != nil {
		return err
	}

	recordActivity(ctx, s.activityStore, s.logger, model.ActivityDownloadLinkDeleted,
		"Download link revoked", employeeID, employee.CompanyID)

	return nil
}

func (s *Link) RevokeUpload(ctx context.Context, employeeID, linkID uuid.UUID) error {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee by id: %w", err)
	}

	link, err := s.uploadStore.GetByID(ctx, linkID)
	if err != nil {
		return err
	}

	if err := canRevoke(employee, link.EmployeeID, link.CompanyID); err != nil {
		return err
	}

	if err := s.uploadStore.Delete(ctx, linkID); err != nil {
		return err
	}

	recordActivity(ctx, s.activityStore, s.logger, model.ActivityUploadLinkDeleted,
		fmt.Sprintf("Upload link revoked: %s", link.Name), employeeID, employee.CompanyID)

	return nil
}

func canRevoke(employee model.Employee, creatorID, companyID uuid.UUID) error {
	if employee.CompanyID != companyID {
		return model.ErrNotFound
	}
	if employee.ID != creatorID && !employee.IsAdmin() {
		return model.ErrPermissionDenied
	}
	return nil
}

func (s *Link) ListDownload(ctx context.Context, employeeID uuid.UUID) ([]model.DownloadLink, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return s.downloadStore.ListByCompany(ctx, employee.CompanyID)
}

func (s *Link) ListUpload(ctx context.Context, employeeID uuid.UUID) ([]model.UploadLink, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return s.uploadStore.ListByCompany(ctx, employee.CompanyID)
}

// Sweep removes used links past the retention threshold and records one
// audit entry per deletion. Deleting an already-empty set is a no-op, so
// repeated invocation is safe.
func (s *Link) Sweep(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.now().Add(-retention)

	downloads, err := s.downloadStore.DeleteUsedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep download links: %w", err)
	}
	for _, link := range downloads {
		recordActivity(ctx, s.activityStore, s.logger, model.ActivityDownloadLinkDeleted,
			"Download link expired and removed", link.EmployeeID, link.CompanyID)
	}

	uploads, err := s.uploadStore.DeleteUsedBefore(ctx, cutoff)
	if err != nil {
		return len(downloads), fmt.Errorf("failed to sweep upload links: %w", err)
	}
	for _, link := range uploads {
		recordActivity(ctx, s.activityStore, s.logger, model.ActivityUploadLinkAutoDeleted,
			fmt.Sprintf("Upload link auto-deleted: %s", link.Name), link.EmployeeID, link.CompanyID)
	}

	total := len(downloads) + len(uploads)
	if total > 0 {
		s.logger.Info("Link service: sweep completed",
			"deleted", total,
			"cutoff", cutoff)
	}

	return total, nil
}
