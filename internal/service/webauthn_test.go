package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clovalink/clovalink-server/internal/mocks"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/testutil"
)

type passkeyFixture struct {
	passkeyStore  *mocks.PasskeyStore
	employeeStore *mocks.EmployeeStore
	activityStore *mocks.ActivityStore
	service       *Passkey
}

func newPasskeyFixture(t *testing.T) *passkeyFixture {
	t.Helper()
	f := &passkeyFixture{
		passkeyStore:  &mocks.PasskeyStore{},
		employeeStore: &mocks.EmployeeStore{},
		activityStore: &mocks.ActivityStore{},
	}
	service, err := NewPasskey(PasskeyConfig{
		RPID:        "localhost",
		RPName:      "ClovaLink",
		RPOrigins:   []string{"http://localhost:8080"},
		CeremonyTTL: 5 * time.Minute,
	}, f.passkeyStore, f.employeeStore, f.activityStore, testutil.MakeNoopLogger())
	require.NoError(t, err)
	f.service = service
	return f
}

func TestNewPasskey_InvalidConfig(t *testing.T) {
	_, err := NewPasskey(PasskeyConfig{}, &mocks.PasskeyStore{}, &mocks.EmployeeStore{},
		&mocks.ActivityStore{}, testutil.MakeNoopLogger())
	assert.Error(t, err)
}

func TestPasskey_BeginRegistration_ExcludesRegisteredCredentials(t *testing.T) {
	f := newPasskeyFixture(t)

	employeeID := uuid.New()
	credentialID := []byte{1, 2, 3, 4}

	f.employeeStore.On("GetByID", mock.Anything, employeeID).
		Return(model.Employee{ID: employeeID, Email: "user@example.com", Name: "User"}, nil)
	f.passkeyStore.On("GetByEmployeeID", mock.Anything, employeeID).
		Return([]model.Passkey{{ID: uuid.New(), CredentialID: credentialID}}, nil)

	options, err := f.service.BeginRegistration(context.Background(), employeeID)
	require.NoError(t, err)

	require.NotEmpty(t, options.Response.Challenge)
	require.Len(t, options.Response.CredentialExcludeList, 1)
	assert.Equal(t, credentialID, []byte(options.Response.CredentialExcludeList[0].CredentialID))
}

func TestPasskey_BeginRegistration_FreshChallengePerCeremony(t *testing.T) {
	f := newPasskeyFixture(t)

	employeeID := uuid.New()
	f.employeeStore.On("GetByID", mock.Anything, employeeID).
		Return(model.Employee{ID: employeeID, Email: "user@example.com"}, nil)
	f.passkeyStore.On("GetByEmployeeID", mock.Anything, employeeID).
		Return([]model.Passkey{}, nil)

	first, err := f.service.BeginRegistration(context.Background(), employeeID)
	require.NoError(t, err)
	second, err := f.service.BeginRegistration(context.Background(), employeeID)
	require.NoError(t, err)

	assert.NotEqual(t, first.Response.Challenge, second.Response.Challenge)
}

func TestPasskey_FinishRegistration_RequiresChallenge(t *testing.T) {
	f := newPasskeyFixture(t)

	_, err := f.service.FinishRegistration(context.Background(), uuid.New(), "", "Laptop",
		strings.NewReader("{}"))
	assert.True(t, model.IsValidationError(err))
}

func TestPasskey_FinishRegistration_MalformedResponse(t *testing.T) {
	f := newPasskeyFixture(t)

	_, err := f.service.FinishRegistration(context.Background(), uuid.New(), "challenge", "Laptop",
		bytes.NewReader([]byte("not json")))
	assert.True(t, model.IsValidationError(err))
}

func TestPasskey_BeginLogin(t *testing.T) {
	f := newPasskeyFixture(t)

	employeeID := uuid.New()
	credentialID := []byte{9, 8, 7}

	f.employeeStore.On("GetByEmail", mock.Anything, "user@example.com").
		Return(model.Employee{ID: employeeID, Email: "user@example.com"}, nil)
	f.passkeyStore.On("GetByEmployeeID", mock.Anything, employeeID).
		Return([]model.Passkey{{ID: uuid.New(), CredentialID: credentialID}}, nil)

	options, err := f.service.BeginLogin(context.Background(), "user@example.com")
	require.NoError(t, err)

	require.NotEmpty(t, options.Response.Challenge)
	require.Len(t, options.Response.AllowedCredentials, 1)
	assert.Equal(t, credentialID, []byte(options.Response.AllowedCredentials[0].CredentialID))
}

func TestPasskey_BeginLogin_NoCredentials(t *testing.T) {
	f := newPasskeyFixture(t)

	employeeID := uuid.New()
	f.employeeStore.On("GetByEmail", mock.Anything, "user@example.com").
		Return(model.Employee{ID: employeeID, Email: "user@example.com"}, nil)
	f.passkeyStore.On("GetByEmployeeID", mock.Anything, employeeID).
		Return([]model.Passkey{}, nil)

	_, err := f.service.BeginLogin(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, model.ErrNoCredentials)
}

func TestPasskey_BeginLogin_UnknownEmail(t *testing.T) {
	f := newPasskeyFixture(t)

	f.employeeStore.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(model.Employee{}, model.ErrNotFound)

	_, err := f.service.BeginLogin(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPasskey_FinishLogin_RequiresChallenge(t *testing.T) {
	f := newPasskeyFixture(t)

	_, err := f.service.FinishLogin(context.Background(), "user@example.com", "",
		strings.NewReader("{}"))
	assert.True(t, model.IsValidationError(err))
}

func TestPasskey_FinishLogin_MalformedResponse(t *testing.T) {
	f := newPasskeyFixture(t)

	_, err := f.service.FinishLogin(context.Background(), "user@example.com", "challenge",
		bytes.NewReader([]byte("not json")))
	assert.True(t, model.IsValidationError(err))
}

func TestPasskey_CloneSuspected(t *testing.T) {
	tests := []struct {
		name         string
		cloneWarning bool
		stored       uint32
		observed     uint32
		want         bool
	}{
		{name: "counter advanced", stored: 5, observed: 6, want: false},
		{name: "counter repeated", stored: 5, observed: 5, want: true},
		{name: "counter regressed", stored: 5, observed: 4, want: true},
		{name: "authenticator without counter", stored: 0, observed: 0, want: false},
		{name: "first increment from zero", stored: 0, observed: 1, want: false},
		{name: "library clone warning wins", cloneWarning: true, stored: 5, observed: 6, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cloneSuspected(tt.cloneWarning, tt.stored, tt.observed))
		})
	}
}

func TestPasskey_List(t *testing.T) {
	f := newPasskeyFixture(t)

	employeeID := uuid.New()
	passkeys := []model.Passkey{
		{ID: uuid.New(), DeviceName: "Laptop"},
		{ID: uuid.New(), DeviceName: "Phone"},
	}
	f.passkeyStore.On("GetByEmployeeID", mock.Anything, employeeID).Return(passkeys, nil)

	got, err := f.service.List(context.Background(), employeeID)
	require.NoError(t, err)
	assert.Equal(t, passkeys, got)
}

func TestPasskey_Delete(t *testing.T) {
	f := newPasskeyFixture(t)

	employeeID := uuid.New()
	passkeyID := uuid.New()

	f.employeeStore.On("GetByID", mock.Anything, employeeID).
		Return(model.Employee{ID: employeeID, CompanyID: uuid.New()}, nil)
	f.passkeyStore.On("Delete", mock.Anything, passkeyID, employeeID).Return(nil)
	f.activityStore.On("Create", mock.Anything, mock.MatchedBy(func(a model.Activity) bool {
		return a.Type == model.ActivityPasskeyRemoved
	})).Return(nil)

	require.NoError(t, f.service.Delete(context.Background(), employeeID, passkeyID))
	f.passkeyStore.AssertExpectations(t)
	f.activityStore.AssertExpectations(t)
}

func TestPasskey_Delete_NotOwned(t *testing.T) {
	f := newPasskeyFixture(t)

	employeeID := uuid.New()
	passkeyID := uuid.New()

	f.employeeStore.On("GetByID", mock.Anything, employeeID).
		Return(model.Employee{ID: employeeID}, nil)
	f.passkeyStore.On("Delete", mock.Anything, passkeyID, employeeID).Return(model.ErrNotFound)

	err := f.service.Delete(context.Background(), employeeID, passkeyID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
