package repository

import (
	"context"
	"testing"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &model.User{Username: "alice", Email: "alice@example.com", Password: "hash", Role: "user"}
	req.NoError(repo.Create(ctx, user))
	req.NotEmpty(user.ID)

	dup := &model.User{Username: "alice", Email: "other@example.com", Password: "hash"}
	req.ErrorIs(repo.Create(ctx, dup), apperror.ErrConflict)

	byEmail, err := repo.FindByLogin(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(user.ID, byEmail.ID)

	byName, err := repo.FindByLogin(ctx, "alice")
	req.NoError(err)
	req.Equal(user.ID, byName.ID)

	name, err := repo.DisplayName(ctx, user.ID)
	req.NoError(err)
	req.Equal("alice", name)

	_, err = repo.DisplayName(ctx, "missing")
	req.ErrorIs(err, apperror.ErrNotFound)

	req.NoError(repo.SetOtp(ctx, user.ID, true, "SECRET"))
	got, err := repo.FindByID(ctx, user.ID)
	req.NoError(err)
	req.True(got.OtpEnabled)
	req.Equal("SECRET", got.OtpSecret)
}

func TestUserRepository_Exists(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &model.User{Username: "bob", Email: "bob@example.com", Password: "hash", Role: "user"}
	req.NoError(repo.Create(ctx, user))

	ok, err := repo.Exists(ctx, user.ID)
	req.NoError(err)
	req.True(ok)

	ok, err = repo.Exists(ctx, "ghost")
	req.NoError(err)
	req.False(ok)
}
