package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
)

// Passkey implements WebAuthn registration and authentication ceremonies.
//
// Ceremonies are stateless on the server: the challenge travels to the
// client inside the options and is echoed back on the verify call, where
// session data is rebuilt with the ceremony TTL. The library then checks
// the response against that challenge, origin and relying party.
type Passkey struct {
	wa            *webauthn.WebAuthn
	passkeyStore  model.PasskeyStore
	employeeStore model.EmployeeStore
	activityStore model.ActivityStore
	ceremonyTTL   time.Duration
	logger        *logger.Logger
	now           func() time.Time
}

// PasskeyConfig carries relying-party parameters.
type PasskeyConfig struct {
	RPID        string
	RPName      string
	RPOrigins   []string
	CeremonyTTL time.Duration
}

func NewPasskey(
	cfg PasskeyConfig,
	passkeyStore model.PasskeyStore,
	employeeStore model.EmployeeStore,
	activityStore model.ActivityStore,
	logger *logger.Logger,
) (*Passkey, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure webauthn: %w", err)
	}

	return &Passkey{
		wa:            wa,
		passkeyStore:  passkeyStore,
		employeeStore: employeeStore,
		activityStore: activityStore,
		ceremonyTTL:   cfg.CeremonyTTL,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// ceremonyUser adapts an employee and their stored passkeys to the library's
// user contract.
type ceremonyUser struct {
	employee model.Employee
	passkeys []model.Passkey
}

func (u *ceremonyUser) WebAuthnID() []byte          { return u.employee.ID[:] }
func (u *ceremonyUser) WebAuthnName() string        { return u.employee.Email }
func (u *ceremonyUser) WebAuthnDisplayName() string { return u.employee.Name }

func (u *ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, 0, len(u.passkeys))
	for _, p := range u.passkeys {
		creds = append(creds, webauthn.Credential{
			ID:        p.CredentialID,
			PublicKey: p.PublicKey,
			Authenticator: webauthn.Authenticator{
				SignCount: p.Counter,
			},
		})
	}
	return creds
}

func (s *Passkey) loadUser(ctx context.Context, employee model.Employee) (*ceremonyUser, error) {
	passkeys, err := s.passkeyStore.GetByEmployeeID(ctx, employee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list passkeys: %w", err)
	}
	return &ceremonyUser{employee: employee, passkeys: passkeys}, nil
}

// BeginRegistration builds creation options with a fresh challenge. Already
// registered credentials are excluded so an authenticator cannot enroll
// twice for the same account.
func (s *Passkey) BeginRegistration(ctx context.Context, employeeID uuid.UUID) (*protocol.CredentialCreation, error) {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by id: %w", err)
	}

	user, err := s.loadUser(ctx, employee)
	if err != nil {
		return nil, err
	}

	exclusions := make([]protocol.CredentialDescriptor, 0, len(user.passkeys))
	for _, p := range user.passkeys {
		exclusions = append(exclusions, protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: p.CredentialID,
		})
	}

	options, _, err := s.wa.BeginRegistration(user, webauthn.WithExclusions(exclusions))
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration: %w", err)
	}

	s.logger.Debug("Passkey service: registration ceremony started",
		"employee_id", employeeID)

	return options, nil
}

// FinishRegistration verifies the attestation response against the echoed
// challenge and persists the new credential.
func (s *Passkey) FinishRegistration(ctx context.Context, employeeID uuid.UUID, challenge, deviceName string, response io.Reader) (model.Passkey, error) {
	if challenge == "" {
		return model.Passkey{}, model.NewValidationError("challenge is required")
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(response)
	if err != nil {
		return model.Passkey{}, model.NewValidationError("malformed attestation response")
	}

	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return model.Passkey{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	user, err := s.loadUser(ctx, employee)
	if err != nil {
		return model.Passkey{}, err
	}

	session := webauthn.SessionData{
		Challenge: challenge,
		UserID:    user.WebAuthnID(),
		Expires:   s.now().Add(s.ceremonyTTL),
	}

	credential, err := s.wa.CreateCredential(user, session, parsed)
	if err != nil {
		s.logger.Info("Passkey service: registration verification failed",
			"employee_id", employeeID,
			"error", err.Error())
		return model.Passkey{}, model.ErrVerificationFailed
	}

	if deviceName == "" {
		deviceName = "Unknown Device"
	}

	now := s.now()
	passkey := model.Passkey{
		ID:           uuid.New(),
		EmployeeID:   employeeID,
		CredentialID: credential.ID,
		PublicKey:    credential.PublicKey,
		Counter:      credential.Authenticator.SignCount,
		DeviceName:   deviceName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.passkeyStore.Create(ctx, passkey)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateCredential) {
			return model.Passkey{}, err
		}
		return model.Passkey{}, fmt.Errorf("failed to create passkey: %w", err)
	}

	s.logger.Info("Passkey service: passkey registered",
		"employee_id", employeeID,
		"passkey_id", saved.ID)
	recordActivity(ctx, s.activityStore, s.logger, model.ActivityPasskeyRegistered,
		fmt.Sprintf("Passkey registered: %s", deviceName), employeeID, employee.CompanyID)

	return saved, nil
}

// BeginLogin builds assertion options listing the account's credentials.
func (s *Passkey) BeginLogin(ctx context.Context, email string) (*protocol.CredentialAssertion, error) {
	employee, err := s.employeeStore.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee by email: %w", err)
	}

	user, err := s.loadUser(ctx, employee)
	if err != nil {
		return nil, err
	}
	if len(user.passkeys) == 0 {
		return nil, model.ErrNoCredentials
	}

	options, _, err := s.wa.BeginLogin(user)
	if err != nil {
		return nil, fmt.Errorf("failed to begin login: %w", err)
	}

	return options, nil
}

// FinishLogin verifies the assertion and advances the signature counter.
// A counter that fails to advance means the private key may exist on more
// than one device; the ceremony fails and stored state is left untouched.
func (s *Passkey) FinishLogin(ctx context.Context, email, challenge string, response io.Reader) (model.Employee, error) {
	if challenge == "" {
		return model.Employee{}, model.NewValidationError("challenge is required")
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(response)
	if err != nil {
		return model.Employee{}, model.NewValidationError("malformed assertion response")
	}

	employee, err := s.employeeStore.GetByEmail(ctx, email)
	if err != nil {
		return model.Employee{}, fmt.Errorf("failed to get employee by email: %w", err)
	}

	user, err := s.loadUser(ctx, employee)
	if err != nil {
		return model.Employee{}, err
	}
	if len(user.passkeys) == 0 {
		return model.Employee{}, model.ErrNoCredentials
	}

	allowed := make([][]byte, 0, len(user.passkeys))
	for _, p := range user.passkeys {
		allowed = append(allowed, p.CredentialID)
	}

	session := webauthn.SessionData{
		Challenge:            challenge,
		UserID:               user.WebAuthnID(),
		AllowedCredentialIDs: allowed,
		Expires:              s.now().Add(s.ceremonyTTL),
	}

	credential, err := s.wa.ValidateLogin(user, session, parsed)
	if err != nil {
		s.logger.Info("Passkey service: authentication verification failed",
			"employee_id", employee.ID,
			"error", err.Error())
		return model.Employee{}, model.ErrVerificationFailed
	}

	var stored model.Passkey
	found := false
	for _, p := range user.passkeys {
		if bytes.Equal(p.CredentialID, credential.ID) {
			stored = p
			found = true
			break
		}
	}
	if !found {
		return model.Employee{}, model.ErrVerificationFailed
	}

	newCounter := credential.Authenticator.SignCount
	if cloneSuspected(credential.Authenticator.CloneWarning, stored.Counter, newCounter) {
		s.securityAlert(ctx, employee, stored)
		return model.Employee{}, model.ErrPossibleClone
	}

	if err := s.passkeyStore.UpdateCounter(ctx, stored.ID, stored.Counter, newCounter, s.now()); err != nil {
		if errors.Is(err, model.ErrPossibleClone) {
			// Lost the race against a concurrent authentication with the
			// same counter value.
			s.securityAlert(ctx, employee, stored)
			return model.Employee{}, model.ErrPossibleClone
		}
		return model.Employee{}, fmt.Errorf("failed to update passkey counter: %w", err)
	}

	s.logger.Info("Passkey service: authentication completed",
		"employee_id", employee.ID,
		"passkey_id", stored.ID)

	return employee, nil
}

// cloneSuspected reports whether an assertion's signature counter points at a
// cloned authenticator: the library raised its own warning, or the counter
// failed to advance past a previously recorded non-zero value. Authenticators
// that never increment keep both counters at zero and remain accepted.
func cloneSuspected(cloneWarning bool, stored, observed uint32) bool {
	if cloneWarning {
		return true
	}
	return stored > 0 && observed <= stored
}

func (s *Passkey) securityAlert(ctx context.Context, employee model.Employee, passkey model.Passkey) {
	s.logger.Error("Passkey service: signature counter regression",
		"employee_id", employee.ID,
		"passkey_id", passkey.ID)
	recordActivity(ctx, s.activityStore, s.logger, model.ActivitySecurityAlert,
		fmt.Sprintf("Possible cloned passkey: %s", passkey.DeviceName), employee.ID, employee.CompanyID)
}

func (s *Passkey) List(ctx context.Context, employeeID uuid.UUID) ([]model.Passkey, error) {
	passkeys, err := s.passkeyStore.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list passkeys: %w", err)
	}
	return passkeys, nil
}

func (s *Passkey) Delete(ctx context.Context, employeeID, passkeyID uuid.UUID) error {
	employee, err := s.employeeStore.GetByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee by id: %w", err)
	}

	if err := s.passkeyStore.Delete(ctx, passkeyID, employeeID); err != nil {
		return err
	}

	recordActivity(ctx, s.activityStore, s.logger, model.ActivityPasskeyRemoved,
		"Passkey removed", employeeID, employee.CompanyID)

	return nil
}
