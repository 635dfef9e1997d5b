package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod is shared by the issuer and the REST jwt middleware.
var SigningMethod = jwt.SigningMethodHS512

// Tokens struct to describe tokens object.
type Tokens struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	OtpPending       bool      `json:"2fa"`
}

// Claims struct to describe metadata in JWT. The registered ID claim (jti)
// carries the session token.
type Claims struct {
	UserID string `json:"id"`
	Otp    bool   `json:"otp"`
	jwt.RegisteredClaims
}

// Jti returns the session token bound to the claims.
func (c *Claims) Jti() string {
	return c.ID
}

type TokenIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(accessKey, refreshKey string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessKey:  []byte(accessKey),
		refreshKey: []byte(refreshKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

func (i *TokenIssuer) AccessKey() []byte {
	return i.accessKey
}

// GenerateTokens func for generate a new Access & Refresh tokens bound to jti.
func (i *TokenIssuer) GenerateTokens(userID, jti string, otp bool) (*Tokens, error) {
	now := i.now()

	// Generate JWT Access token.
	accessExp := now.Add(i.accessTTL)
	access, err := i.sign(userID, jti, otp, now, accessExp, i.accessKey)
	if err != nil {
		return nil, err
	}

	// Generate JWT Refresh token.
	refreshExp := now.Add(i.refreshTTL)
	refresh, err := i.sign(userID, jti, otp, now, refreshExp, i.refreshKey)
	if err != nil {
		return nil, err
	}

	return &Tokens{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		OtpPending:       otp,
	}, nil
}

func (i *TokenIssuer) sign(userID, jti string, otp bool, now, exp time.Time, key []byte) (string, error) {
	claims := Claims{
		UserID: userID,
		Otp:    otp,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t, err := jwt.NewWithClaims(SigningMethod, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return t, nil
}

// ParseAccess checks signature and expiry of an access token.
func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, i.accessKey)
}

// ParseRefresh checks signature and expiry of a refresh token.
func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, i.refreshKey)
}

func (i *TokenIssuer) parse(token string, key []byte) (*Claims, error) {
	claims := new(Claims)
	t, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{SigningMethod.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !t.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
