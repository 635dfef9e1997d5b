package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestGenerateTokens_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := newIssuer()

	tokens, err := issuer.GenerateTokens("alice", "jti-1", false)
	req.NoError(err)
	req.NotEqual(tokens.Access, tokens.Refresh)

	access, err := issuer.ParseAccess(tokens.Access)
	req.NoError(err)
	req.Equal("alice", access.UserID)
	req.Equal("jti-1", access.Jti())
	req.False(access.Otp)

	refresh, err := issuer.ParseRefresh(tokens.Refresh)
	req.NoError(err)
	req.Equal("jti-1", refresh.Jti())
}

func TestParse_KeysAreNotInterchangeable(t *testing.T) {
	req := require.New(t)
	issuer := newIssuer()

	tokens, err := issuer.GenerateTokens("alice", "jti-1", false)
	req.NoError(err)

	_, err = issuer.ParseAccess(tokens.Refresh)
	req.ErrorIs(err, jwt.ErrTokenSignatureInvalid)

	_, err = issuer.ParseRefresh(tokens.Access)
	req.ErrorIs(err, jwt.ErrTokenSignatureInvalid)
}

func TestParse_Expired(t *testing.T) {
	req := require.New(t)
	past := time.Now().Add(-time.Hour)
	issuer := newIssuer().WithClock(func() time.Time { return past })

	tokens, err := issuer.GenerateTokens("alice", "jti-1", false)
	req.NoError(err)

	_, err = newIssuer().ParseAccess(tokens.Access)
	req.ErrorIs(err, jwt.ErrTokenExpired)
}

func TestParse_Malformed(t *testing.T) {
	_, err := newIssuer().ParseAccess("not-a-token")
	require.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestParse_RejectsOtherAlgorithm(t *testing.T) {
	req := require.New(t)

	claims := Claims{
		UserID: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	req.NoError(err)

	_, err = newIssuer().ParseAccess(token)
	req.Error(err)
}
