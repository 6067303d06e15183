package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
)

type Auth struct {
	employeeStore model.EmployeeStore
	activityStore model.ActivityStore
	totp          *TOTP
	tokenService  *TokenService
	bcryptCost    int
	logger        *logger.Logger
}

func NewAuth(
	employeeStore model.EmployeeStore,
	activityStore model.ActivityStore,
	refreshTokenStore model.RefreshTokenStore,
	totp *TOTP,
	tokenManager model.TokenManager,
	bcryptCost int,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		employeeStore: employeeStore,
		activityStore: activityStore,
		totp:          totp,
		tokenService:  NewTokenService(tokenManager, refreshTokenStore, logger),
		bcryptCost:    bcryptCost,
		logger:        logger,
	}
}

// LoginParams carries one login attempt. TOTPCode and BackupCode are
// alternatives; at most one is consulted when two-factor is enabled.
type LoginParams struct {
	Email      string
	Password   string
	TOTPCode   string
	BackupCode string
}

type SessionResult struct {
	AccessToken  string
	RefreshToken string
	Employee     model.Employee
}

type RegisterParams struct {
	CompanyID uuid.UUID
	Name      string
	Email     string
	Password  string
	Role      model.Role
}

func (a *Auth) Login(ctx context.Context, params LoginParams) (SessionResult, error) {
	a.logger.Debug("Auth service: starting login",
		"email", params.Email)

	if _, err := mail.ParseAddress(params.Email); err != nil {
		return SessionResult{}, model.NewValidationError("invalid email format")
	}
	if params.Password == "" {
		return SessionResult{}, model.NewValidationError("password is required")
	}

	employee, err := a.employeeStore.GetByEmail(ctx, params.Email)
	if errors.Is(err, model.ErrNotFound) {
		return SessionResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return SessionResult{}, fmt.Errorf("failed to get employee by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(employee.PasswordHash, []byte(params.Password)); err != nil {
		a.logger.Info("Auth service: password mismatch",
			"email", params.Email)
		return SessionResult{}, model.ErrInvalidCredentials
	}

	if employee.TOTPEnabled {
		if err := a.checkSecondFactor(ctx, employee, params); err != nil {
			return SessionResult{}, err
		}
	}

	access, refresh, err := a.tokenService.Issue(ctx, employee.ID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("failed to issue session: %w", err)
	}

	a.logger.Info("Auth service: login completed",
		"employee_id", employee.ID)
	recordActivity(ctx, a.activityStore, a.logger, model.ActivityLogin,
		"Logged in", employee.ID, employee.CompanyID)

	return SessionResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Employee:     employee,
	}, nil
}

func (a *Auth) checkSecondFactor(ctx context.Context, employee model.Employee, params LoginParams) error {
	switch {
	case params.TOTPCode != "":
		if !a.totp.ValidateLoginCode(employee, params.TOTPCode) {
			return model.ErrInvalidCredentials
		}
		return nil
	case params.BackupCode != "":
		return a.totp.RedeemBackupCode(ctx, employee, params.BackupCode)
	default:
		return model.ErrTwoFactorRequired
	}
}

// IssueSession mints a token pair without a password check. Used after a
// successful passkey ceremony.
func (a *Auth) IssueSession(ctx context.Context, employee model.Employee) (SessionResult, error) {
	access, refresh, err := a.tokenService.Issue(ctx, employee.ID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("failed to issue session: %w", err)
	}

	recordActivity(ctx, a.activityStore, a.logger, model.ActivityLogin,
		"Logged in with passkey", employee.ID, employee.CompanyID)

	return SessionResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Employee:     employee,
	}, nil
}

func (a *Auth) Register(ctx context.Context, params RegisterParams) (model.Employee, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return model.Employee{}, model.NewValidationError("invalid email format")
	}
	if len(params.Password) < 8 {
		return model.Employee{}, model.NewValidationError("password must be at least 8 characters")
	}
	if params.Name == "" {
		return model.Employee{}, model.NewValidationError("name is required")
	}

	existing, err := a.employeeStore.GetByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Employee{}, fmt.Errorf("failed to get employee by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		return model.Employee{}, model.NewValidationError("email is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), a.bcryptCost)
	if err != nil {
		return model.Employee{}, fmt.Errorf("failed to hash password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.RoleUser
	}

	now := time.Now()
	employee := model.Employee{
		ID:           uuid.New(),
		CompanyID:    params.CompanyID,
		Name:         params.Name,
		Email:        params.Email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := a.employeeStore.Create(ctx, employee)
	if err != nil {
		return model.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	a.logger.Info("Auth service: employee registered",
		"employee_id", saved.ID)

	return saved, nil
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	return a.tokenService.Refresh(ctx, refreshToken)
}

func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	return a.tokenService.RevokeByToken(ctx, refreshToken)
}

// SetPublicKey stores the employee's asymmetric public key for end-to-end
// sharing flows.
func (a *Auth) SetPublicKey(ctx context.Context, employeeID uuid.UUID, publicKey []byte) error {
	if len(publicKey) == 0 {
		return model.NewValidationError("public key is required")
	}
	if err := a.employeeStore.SetPublicKey(ctx, employeeID, publicKey); err != nil {
		return fmt.Errorf("failed to set public key: %w", err)
	}
	return nil
}

func (a *Auth) GetPublicKey(ctx context.Context, employeeID uuid.UUID) ([]byte, error) {
	employee, err := a.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}
	if len(employee.PublicKey) == 0 {
		return nil, model.ErrNotFound
	}
	return employee.PublicKey, nil
}
