package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/pkg/errors"
)

type Store interface {
	Create(ctx context.Context, s *model.Session) error
	FindLive(ctx context.Context, token string, now time.Time) (*model.Session, error)
	Rotate(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) (*model.Session, error)
	Touch(ctx context.Context, id string, now time.Time) error
	ListForUser(ctx context.Context, userID string, now time.Time) ([]model.Session, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByID(ctx context.Context, userID, id string) (int64, error)
	DeleteOthers(ctx context.Context, userID, exceptToken string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteIdle(ctx context.Context, idleBefore time.Time) (int64, error)
	DeleteDuplicates(ctx context.Context) (int64, error)
}

// Device describes where a login comes from.
type Device struct {
	Info      string
	IPAddress string
	Location  string
	Platform  string
}

type CleanupReport struct {
	Expired    int64 `json:"expired"`
	Idle       int64 `json:"idle"`
	Duplicates int64 `json:"duplicates"`
}

func (r CleanupReport) Total() int64 {
	return r.Expired + r.Idle + r.Duplicates
}

type Manager struct {
	store      Store
	issuer     *utils.TokenIssuer
	ttl        time.Duration
	staleAfter time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewManager(store Store, issuer *utils.TokenIssuer, ttl, staleAfter time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		store:      store,
		issuer:     issuer,
		ttl:        ttl,
		staleAfter: staleAfter,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new session for an authenticated user and returns a token
// pair carrying the session token as jti. otpPending marks tokens that still
// need the second factor.
func (m *Manager) Create(ctx context.Context, userID string, device Device, otpPending bool) (*model.Session, *utils.Tokens, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}

	now := m.now()
	s := &model.Session{
		UserID:         userID,
		SessionToken:   token,
		DeviceInfo:     device.Info,
		IPAddress:      device.IPAddress,
		Location:       device.Location,
		Platform:       normalizePlatform(device.Platform),
		ExpiresAt:      now.Add(m.ttl),
		LastAccessedAt: now,
		CreatedAt:      now,
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, nil, apperror.Internal(err)
	}

	tokens, err := m.issuer.GenerateTokens(userID, token, otpPending)
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}

	m.log.Info("Session created", "user_id", userID, "session_id", s.ID, "platform", s.Platform)
	return s, tokens, nil
}

// Refresh trades a refresh token for a new pair. Signature and expiry alone are
// not enough: the referenced session must still exist and be live. The session
// token rotates, so each refresh token works once.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*model.Session, *utils.Tokens, error) {
	claims, err := m.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.CodeAuth, "invalid refresh token", err)
	}
	return m.reissue(ctx, claims.UserID, claims.Jti(), claims.Otp)
}

// CompleteSecondFactor reissues the pair of a live session without the pending
// second factor flag.
func (m *Manager) CompleteSecondFactor(ctx context.Context, claims *utils.Claims) (*model.Session, *utils.Tokens, error) {
	return m.reissue(ctx, claims.UserID, claims.Jti(), false)
}

func (m *Manager) reissue(ctx context.Context, userID, jti string, otp bool) (*model.Session, *utils.Tokens, error) {
	now := m.now()

	current, err := m.store.FindLive(ctx, jti, now)
	if err != nil {
		return nil, nil, authOrInternal(err, "session expired or terminated")
	}
	if current.UserID != userID {
		return nil, nil, apperror.Auth("session does not belong to token subject")
	}

	next, err := newSessionToken()
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	s, err := m.store.Rotate(ctx, jti, next, now.Add(m.ttl), now)
	if err != nil {
		return nil, nil, authOrInternal(err, "refresh token already used")
	}

	tokens, err := m.issuer.GenerateTokens(userID, next, otp)
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	return s, tokens, nil
}

// Authenticate is the REST liveness check: the jti of an already verified
// access token must reference a live session.
func (m *Manager) Authenticate(ctx context.Context, claims *utils.Claims) (*model.Session, error) {
	now := m.now()

	s, err := m.store.FindLive(ctx, claims.Jti(), now)
	if err != nil {
		return nil, authOrInternal(err, "session expired or terminated")
	}
	if s.UserID != claims.UserID {
		return nil, apperror.Auth("session does not belong to token subject")
	}

	if err := m.store.Touch(ctx, s.ID, now); err != nil {
		m.log.Warn("Failed to touch session", "session_id", s.ID, "error", err)
	}
	return s, nil
}

func (m *Manager) List(ctx context.Context, userID string) ([]model.Session, error) {
	sessions, err := m.store.ListForUser(ctx, userID, m.now())
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return sessions, nil
}

// Terminate deletes the session bound to jti (logout).
func (m *Manager) Terminate(ctx context.Context, jti string) error {
	n, err := m.store.DeleteByToken(ctx, jti)
	if err != nil {
		return apperror.Internal(err)
	}
	if n == 0 {
		return apperror.NotFound("session not found")
	}
	return nil
}

func (m *Manager) TerminateByID(ctx context.Context, userID, sessionID string) error {
	n, err := m.store.DeleteByID(ctx, userID, sessionID)
	if err != nil {
		return apperror.Internal(err)
	}
	if n == 0 {
		return apperror.NotFound("session not found")
	}
	return nil
}

func (m *Manager) TerminateOthers(ctx context.Context, userID, exceptJti string) (int64, error) {
	n, err := m.store.DeleteOthers(ctx, userID, exceptJti)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	m.log.Info("Terminated other sessions", "user_id", userID, "count", n)
	return n, nil
}

func (m *Manager) TerminateAll(ctx context.Context, userID string) (int64, error) {
	n, err := m.store.DeleteAll(ctx, userID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	m.log.Info("Terminated all sessions", "user_id", userID, "count", n)
	return n, nil
}

// SweepExpired deletes every session past expiry. Overlapping runs are safe.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return n, nil
}

// ComprehensiveCleanup removes expired sessions, sessions idle for longer than
// staleAfter, and duplicate sessions of the same device.
func (m *Manager) ComprehensiveCleanup(ctx context.Context) (CleanupReport, error) {
	var report CleanupReport
	now := m.now()

	var err error
	if report.Expired, err = m.store.DeleteExpired(ctx, now); err != nil {
		return report, apperror.Internal(err)
	}
	if m.staleAfter > 0 {
		if report.Idle, err = m.store.DeleteIdle(ctx, now.Add(-m.staleAfter)); err != nil {
			return report, apperror.Internal(err)
		}
	}
	if report.Duplicates, err = m.store.DeleteDuplicates(ctx); err != nil {
		return report, apperror.Internal(err)
	}
	return report, nil
}

func authOrInternal(err error, msg string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.Auth(msg)
	}
	return apperror.Internal(err)
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizePlatform(p string) string {
	switch p {
	case model.PlatformIOS, model.PlatformAndroid, model.PlatformWeb:
		return p
	default:
		return model.PlatformUnknown
	}
}
