package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/secret"
)

const (
	totpPeriod = 30
	totpSkew   = 1
	// backupCodeCount codes are generated on enable; each authenticates once.
	backupCodeCount = 10
)

// TOTP implements time-based one-time-password enrollment and verification.
// The secret is never persisted between setup and enable; the client echoes
// it back on the enable call, and only a successful verification writes it.
type TOTP struct {
	employeeStore model.EmployeeStore
	activityStore model.ActivityStore
	issuer        string
	bcryptCost    int
	logger        *logger.Logger
	now           func() time.Time
}

func NewTOTP(
	employeeStore model.EmployeeStore,
	activityStore model.ActivityStore,
	issuer string,
	bcryptCost int,
	logger *logger.Logger,
) *TOTP {
	return &TOTP{
		employeeStore: employeeStore,
		activityStore: activityStore,
		issuer:        issuer,
		bcryptCost:    bcryptCost,
		logger:        logger,
		now:           time.Now,
	}
}

// TOTPSetup is returned from Setup. QRCode is a PNG data URL of the
// provisioning URI; ManualEntryKey duplicates Secret for clients that
// render a copyable key instead of the QR image.
type TOTPSetup struct {
	Secret         string
	ManualEntryKey string
	URL            string
	QRCode         string
}

// TOTPStatus reports enrollment state without exposing secret material.
type TOTPStatus struct {
	Enabled              bool
	BackupCodesRemaining int
}

func (s *TOTP) Setup(ctx context.Context, employeeID uuid.UUID) (TOTPSetup, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return TOTPSetup{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: employee.Email,
		Period:      totpPeriod,
		SecretSize:  20,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TOTPSetup{}, fmt.Errorf("failed to generate totp key: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return TOTPSetup{}, fmt.Errorf("failed to encode qr code: %w", err)
	}

	s.logger.Debug("TOTP service: setup started",
		"employee_id", employeeID)

	return TOTPSetup{
		Secret:         key.Secret(),
		ManualEntryKey: key.Secret(),
		URL:            key.URL(),
		QRCode:         "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// Enable turns the echoed pending secret on after one successful
// verification and returns the plaintext backup codes. This is the only
// moment the codes are observable; storage keeps hashes.
func (s *TOTP) Enable(ctx context.Context, employeeID uuid.UUID, pendingSecret, code string) ([]string, error) {
	if err := validateTOTPCode(code); err != nil {
		return nil, err
	}
	if pendingSecret == "" {
		return nil, model.NewValidationError("secret is required")
	}

	if !s.verifyCode(pendingSecret, code) {
		return nil, model.ErrInvalidCredentials
	}

	codes, err := secret.BackupCodes(backupCodeCount)
	if err != nil {
		return nil, err
	}

	hashes := make([][]byte, 0, len(codes))
	for _, c := range codes {
		hash, err := bcrypt.GenerateFromPassword([]byte(c), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash backup code: %w", err)
		}
		hashes = append(hashes, hash)
	}

	if err := s.employeeStore.EnableTOTP(ctx, employeeID, pendingSecret, hashes); err != nil {
		return nil, fmt.Errorf("failed to enable totp: %w", err)
	}

	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}

	s.logger.Info("TOTP service: two-factor enabled",
		"employee_id", employeeID)
	recordActivity(ctx, s.activityStore, s.logger, model.ActivityTOTPEnabled,
		"Two-factor authentication enabled", employeeID, employee.CompanyID)

	return codes, nil
}

// Disable clears the secret, the enabled flag and all backup codes after
// re-proof of possession: either a currently valid code or the account
// password.
func (s *TOTP) Disable(ctx context.Context, employeeID uuid.UUID, codeOrPassword string) error {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee by id: %w", err)
	}

	if !employee.TOTPEnabled {
		return model.NewValidationError("two-factor authentication is not enabled")
	}

	proven := false
	if validateTOTPCode(codeOrPassword) == nil {
		proven = s.verifyCode(employee.TOTPSecret, codeOrPassword)
	}
	if !proven {
		if err := bcrypt.CompareHashAndPassword(employee.PasswordHash, []byte(codeOrPassword)); err != nil {
			return model.ErrInvalidCredentials
		}
	}

	if err := s.employeeStore.DisableTOTP(ctx, employeeID); err != nil {
		return fmt.Errorf("failed to disable totp: %w", err)
	}

	s.logger.Info("TOTP service: two-factor disabled",
		"employee_id", employeeID)
	recordActivity(ctx, s.activityStore, s.logger, model.ActivityTOTPDisabled,
		"Two-factor authentication disabled", employeeID, employee.CompanyID)

	return nil
}

func (s *TOTP) Status(ctx context.Context, employeeID uuid.UUID) (TOTPStatus, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return TOTPStatus{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	return TOTPStatus{
		Enabled:              employee.TOTPEnabled,
		BackupCodesRemaining: len(employee.BackupCodes),
	}, nil
}

// ValidateLoginCode checks a code against the employee's enabled secret.
// Malformed codes are rejected before any cryptographic comparison.
func (s *TOTP) ValidateLoginCode(employee model.Employee, code string) bool {
	if !employee.TOTPEnabled {
		return false
	}
	if err := validateTOTPCode(code); err != nil {
		return false
	}
	return s.verifyCode(employee.TOTPSecret, code)
}

// RedeemBackupCode consumes one matching backup code. Each stored hash is
// checked with bcrypt, constant-time per candidate; a match is removed
// atomically so the code authenticates exactly once.
func (s *TOTP) RedeemBackupCode(ctx context.Context, employee model.Employee, code string) error {
	for _, hash := range employee.BackupCodes {
		if bcrypt.CompareHashAndPassword(hash, []byte(code)) == nil {
			if err := s.employeeStore.RemoveBackupCode(ctx, employee.ID, hash); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					// Consumed concurrently.
					return model.ErrInvalidCredentials
				}
				return fmt.Errorf("failed to remove backup code: %w", err)
			}
			return nil
		}
	}
	return model.ErrInvalidCredentials
}

func (s *TOTP) verifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		s.logger.Debug("TOTP service: code validation errored",
			"error", err.Error())
		return false
	}
	return ok
}

// validateTOTPCode requires exactly 6 ASCII digits.
func validateTOTPCode(code string) error {
	if len(code) != 6 {
		return model.NewValidationError("code must be 6 digits")
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return model.NewValidationError("code must be 6 digits")
		}
	}
	return nil
}
