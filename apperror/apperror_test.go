package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_KeepsCodeThroughWrapping(t *testing.T) {
	req := require.New(t)

	base := NotFound("session not found")
	wrapped := fmt.Errorf("refresh: %w", base)

	req.Equal(CodeNotFound, CodeOf(wrapped))
	req.ErrorIs(wrapped, ErrNotFound)
	req.NotErrorIs(wrapped, ErrAuth)
}

func TestFrom_UnknownErrorIsInternal(t *testing.T) {
	req := require.New(t)

	cause := errors.New("connection reset")
	err := From(cause)

	req.Equal(CodeInternal, err.Code)
	req.ErrorIs(err, cause)
	req.Nil(From(nil))
}

func TestWithData_DoesNotMutateShared(t *testing.T) {
	req := require.New(t)

	blocked := New(CodeBlockedByYou, "you blocked this user")
	withData := blocked.WithData(map[string]bool{"hasBlocked": true})

	req.Nil(blocked.Data)
	req.NotNil(withData.Data)
	req.Equal(CodeBlockedByYou, withData.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeAuth, http.StatusUnauthorized},
		{CodeValidation, http.StatusBadRequest},
		{CodeBlockedByOther, http.StatusForbidden},
		{CodeBlockedByYou, http.StatusForbidden},
		{CodeBanned, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}
