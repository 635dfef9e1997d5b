package socketio

import (
	"testing"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/stretchr/testify/require"
)

func issuer() *utils.TokenIssuer {
	return utils.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestAdmit(t *testing.T) {
	req := require.New(t)
	iss := issuer()

	tokens, err := iss.GenerateTokens("alice", "jti-1", false)
	req.NoError(err)
	claims, err := Admit(iss, tokens.Access)
	req.NoError(err)
	req.Equal("alice", claims.UserID)

	_, err = Admit(iss, "")
	req.ErrorIs(err, apperror.ErrAuth)

	_, err = Admit(iss, "garbage")
	req.ErrorIs(err, apperror.ErrAuth)

	_, err = Admit(iss, tokens.Refresh)
	req.ErrorIs(err, apperror.ErrAuth)

	pending, err := iss.GenerateTokens("alice", "jti-2", true)
	req.NoError(err)
	_, err = Admit(iss, pending.Access)
	req.ErrorIs(err, apperror.ErrAuth)
}

func TestAdmit_Expired(t *testing.T) {
	iss := issuer().WithClock(func() time.Time { return time.Now().Add(-2 * time.Minute) })
	tokens, err := iss.GenerateTokens("alice", "jti-1", false)
	require.NoError(t, err)

	_, err = Admit(issuer(), tokens.Access)
	require.ErrorIs(t, err, apperror.ErrAuth)
}

func TestAuthToken(t *testing.T) {
	req := require.New(t)
	req.Equal("abc", authToken(map[string]any{"token": "abc"}))
	req.Equal("abc", authToken(map[string]any{"token": "Bearer abc"}))
	req.Empty(authToken(map[string]any{"token": 42}))
	req.Empty(authToken(nil))
	req.Equal("xyz", stripBearer("  bearer xyz "))
	req.Equal("plain", stripBearer("plain"))
}
