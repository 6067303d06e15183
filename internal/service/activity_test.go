package service

import (
	"context"
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

func TestActivity_List(t *testing.T) {
	activityStore := &mocks.ActivityStore{}
	employeeStore := &mocks.EmployeeStore{}
	s := NewActivity(activityStore, employeeStore, testutil.MakeNoopLogger())

	employeeID := uuid.New()
	companyID := uuid.New()
	records := []model.Activity{{ID: uuid.New(), Type: model.ActivityLogin}}

	employeeStore.On("GetByID", mock.Anything, employeeID).
		Return(model.Employee{ID: employeeID, CompanyID: companyID}, nil)
	activityStore.On("ListByCompany", mock.Anything, companyID, 25).Return(records, nil)

	got, err := s.List(context.Background(), employeeID, 25)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestActivity_List_ClampsLimit(t *testing.T) {
	employeeID := uuid.New()
	companyID := uuid.New()

	for _, limit := range []int{0, -1, 10000} {
		activityStore := &mocks.ActivityStore{}
		employeeStore := &mocks.EmployeeStore{}
		s := NewActivity(activityStore, employeeStore, testutil.MakeNoopLogger())

		employeeStore.On("GetByID", mock.Anything, employeeID).
			Return(model.Employee{ID: employeeID, CompanyID: companyID}, nil)
		activityStore.On("ListByCompany", mock.Anything, companyID, defaultActivityLimit).
			Return([]model.Activity{}, nil)

		_, err := s.List(context.Background(), employeeID, limit)
		require.NoError(t, err)
		activityStore.AssertExpectations(t)
	}
}

func TestActivity_Purge(t *testing.T) {
	activityStore := &mocks.ActivityStore{}
	s := NewActivity(activityStore, &mocks.EmployeeStore{}, testutil.MakeNoopLogger())

	activityStore.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		return time.Since(cutoff) > 89*24*time.Hour
	})).Return(int64(42), nil)

	deleted, err := s.Purge(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}

func TestRecordActivity_FailureIsSwallowed(t *testing.T) {
	activityStore := &mocks.ActivityStore{}
	activityStore.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	// Must not panic or propagate the store error.
	recordActivity(context.Background(), activityStore, testutil.MakeNoopLogger(),
		model.ActivityLogin, "Logged in", uuid.New(), uuid.New())
	activityStore.AssertExpectations(t)
}
