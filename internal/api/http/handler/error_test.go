package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/testutil"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{err: model.NewValidationError("name is required"), wantStatus: http.StatusBadRequest, wantBody: "name is required"},
		{err: model.ErrNotFound, wantStatus: http.StatusNotFound, wantBody: "not found"},
		{err: model.ErrLinkExpired, wantStatus: http.StatusBadRequest, wantBody: model.ErrLinkExpired.Error()},
		{err: model.ErrLinkMaxUses, wantStatus: http.StatusBadRequest, wantBody: model.ErrLinkMaxUses.Error()},
		{err: model.ErrLinkUsed, wantStatus: http.StatusBadRequest, wantBody: model.ErrLinkUsed.Error()},
		{err: model.ErrPossibleClone, wantStatus: http.StatusBadRequest, wantBody: model.ErrPossibleClone.Error()},
		{err: model.ErrNoCredentials, wantStatus: http.StatusBadRequest, wantBody: model.ErrNoCredentials.Error()},
		{err: model.ErrVerificationFailed, wantStatus: http.StatusBadRequest, wantBody: model.ErrVerificationFailed.Error()},
		{err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantBody: model.ErrInvalidCredentials.Error()},
		{err: model.ErrTwoFactorRequired, wantStatus: http.StatusUnauthorized, wantBody: model.ErrTwoFactorRequired.Error()},
		{err: model.ErrTokenRevoked, wantStatus: http.StatusUnauthorized, wantBody: model.ErrTokenRevoked.Error()},
		{err: model.ErrPermissionDenied, wantStatus: http.StatusForbidden, wantBody: model.ErrPermissionDenied.Error()},
		{err: model.ErrDuplicateCredential, wantStatus: http.StatusConflict, wantBody: model.ErrDuplicateCredential.Error()},
		{err: assert.AnError, wantStatus: http.StatusInternalServerError, wantBody: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, testutil.MakeNoopLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Error)
		})
	}
}

// Wrapped errors must still map through errors.Is.
func TestHandleError_Wrapped(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, testutil.MakeNoopLogger(), fmt.Errorf("redeem: %w", model.ErrLinkExpired))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Internal failures must never leak detail to the client.
func TestHandleError_InternalDetailHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, testutil.MakeNoopLogger(), fmt.Errorf("pgx: connection refused at 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
