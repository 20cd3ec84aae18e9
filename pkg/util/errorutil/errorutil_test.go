package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyStatuses(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{NewInvalidState("state", nil), CodeInvalidState, http.StatusConflict},
		{NewConflict("dup", nil), CodeConflict, http.StatusConflict},
		{NewPreconditionFailed("missing", nil), CodePreconditionFailed, http.StatusPreconditionFailed},
		{NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{NewUnauthorized("who"), CodeUnauthorized, http.StatusUnauthorized},
		{NewInternalError(errors.New("db")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		domainErr := ToDomainError(tc.err)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
		assert.True(t, HasCode(tc.err, tc.code))
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", NewConflict("dup", nil))
	assert.True(t, HasCode(wrapped, CodeConflict))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	domainErr := ToDomainError(cause)
	assert.Equal(t, CodeInternal, domainErr.Code)
	assert.ErrorIs(t, domainErr, cause)
	assert.Nil(t, ToDomainError(nil))
}
