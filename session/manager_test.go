package session

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/database/dbtest"
	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/repository"
	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type ManagerSuite struct {
	suite.Suite
	manager *Manager
	issuer  *utils.TokenIssuer
	clock   time.Time
}

func (s *ManagerSuite) SetupTest() {
	store := repository.NewSessionRepository(dbtest.New(s.T()))
	s.issuer = utils.NewTokenIssuer("access", "refresh", 15*time.Minute, 30*24*time.Hour)
	s.manager = NewManager(store, s.issuer, time.Hour, 24*time.Hour, logs.GetLoggerFromLevel(slog.LevelDebug))
	s.clock = time.Now().UTC()
	s.manager.now = func() time.Time { return s.clock }
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) login(device string) (*model.Session, *utils.Tokens) {
	session, tokens, err := s.manager.Create(context.Background(), "alice", Device{
		Info:      device,
		IPAddress: "10.0.0.1",
		Platform:  model.PlatformIOS,
	}, false)
	s.Require().NoError(err)
	return session, tokens
}

func (s *ManagerSuite) claims(access string) *utils.Claims {
	c, err := s.issuer.ParseAccess(access)
	s.Require().NoError(err)
	return c
}

func (s *ManagerSuite) TestCreate_TwoDevicesTwoSessions() {
	first, firstTokens := s.login("iphone")
	second, secondTokens := s.login("laptop")

	s.NotEqual(first.ID, second.ID)
	s.NotEqual(first.SessionToken, second.SessionToken)
	s.Equal(first.SessionToken, s.claims(firstTokens.Access).Jti())
	s.Equal(second.SessionToken, s.claims(secondTokens.Access).Jti())

	sessions, err := s.manager.List(context.Background(), "alice")
	s.Require().NoError(err)
	s.Len(sessions, 2)
}

func (s *ManagerSuite) TestTerminateOthers_KeepsCurrentDevice() {
	ctx := context.Background()
	_, deviceOne := s.login("iphone")
	s.login("laptop")
	s.login("tablet")

	n, err := s.manager.TerminateOthers(ctx, "alice", s.claims(deviceOne.Access).Jti())
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	sessions, err := s.manager.List(ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal("iphone", sessions[0].DeviceInfo)
}

func (s *ManagerSuite) TestRefresh_RotatesAndIsSingleUse() {
	ctx := context.Background()
	_, tokens := s.login("iphone")

	s.clock = s.clock.Add(30 * time.Minute)
	session, renewed, err := s.manager.Refresh(ctx, tokens.Refresh)
	s.Require().NoError(err)
	s.True(session.ExpiresAt.Equal(s.clock.Add(time.Hour)))
	s.NotEqual(s.claims(tokens.Access).Jti(), s.claims(renewed.Access).Jti())

	_, _, err = s.manager.Refresh(ctx, tokens.Refresh)
	s.ErrorIs(err, apperror.ErrAuth)

	_, _, err = s.manager.Refresh(ctx, renewed.Refresh)
	s.NoError(err)
}

func (s *ManagerSuite) TestRefresh_ExpiredSessionWithValidSignature() {
	_, tokens := s.login("iphone")

	// The refresh token is still cryptographically valid for 30 days.
	_, err := s.issuer.ParseRefresh(tokens.Refresh)
	s.Require().NoError(err)

	s.clock = s.clock.Add(2 * time.Hour)
	_, _, err = s.manager.Refresh(context.Background(), tokens.Refresh)
	s.Equal(apperror.CodeAuth, apperror.CodeOf(err))
}

func (s *ManagerSuite) TestRefresh_AfterLogout() {
	ctx := context.Background()
	_, tokens := s.login("iphone")

	s.Require().NoError(s.manager.Terminate(ctx, s.claims(tokens.Access).Jti()))

	_, _, err := s.manager.Refresh(ctx, tokens.Refresh)
	s.Equal(apperror.CodeAuth, apperror.CodeOf(err))

	s.ErrorIs(s.manager.Terminate(ctx, s.claims(tokens.Access).Jti()), apperror.ErrNotFound)
}

func (s *ManagerSuite) TestRefresh_RejectsAccessToken() {
	_, tokens := s.login("iphone")

	_, _, err := s.manager.Refresh(context.Background(), tokens.Access)
	s.Equal(apperror.CodeAuth, apperror.CodeOf(err))
}

func (s *ManagerSuite) TestAuthenticate_Liveness() {
	ctx := context.Background()
	_, tokens := s.login("iphone")
	claims := s.claims(tokens.Access)

	got, err := s.manager.Authenticate(ctx, claims)
	s.Require().NoError(err)
	s.Equal("alice", got.UserID)

	_, err = s.manager.TerminateAll(ctx, "alice")
	s.Require().NoError(err)

	_, err = s.manager.Authenticate(ctx, claims)
	s.Equal(apperror.CodeAuth, apperror.CodeOf(err))
}

func (s *ManagerSuite) TestCompleteSecondFactor_ClearsOtpFlag() {
	ctx := context.Background()
	_, tokens, err := s.manager.Create(ctx, "alice", Device{Info: "iphone"}, true)
	s.Require().NoError(err)
	s.True(s.claims(tokens.Access).Otp)

	_, upgraded, err := s.manager.CompleteSecondFactor(ctx, s.claims(tokens.Access))
	s.Require().NoError(err)
	s.False(s.claims(upgraded.Access).Otp)
}

func (s *ManagerSuite) TestTerminateByID() {
	ctx := context.Background()
	session, _ := s.login("iphone")

	s.ErrorIs(s.manager.TerminateByID(ctx, "bob", session.ID), apperror.ErrNotFound)
	s.NoError(s.manager.TerminateByID(ctx, "alice", session.ID))
}

func (s *ManagerSuite) TestSweepAndCleanup() {
	ctx := context.Background()
	s.login("iphone")
	s.login("iphone")
	s.login("laptop")

	n, err := s.manager.SweepExpired(ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	report, err := s.manager.ComprehensiveCleanup(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), report.Duplicates)

	s.clock = s.clock.Add(2 * time.Hour)
	n, err = s.manager.SweepExpired(ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	report, err = s.manager.ComprehensiveCleanup(ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), report.Total())
}
