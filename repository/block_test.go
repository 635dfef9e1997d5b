package repository

import (
	"context"
	"testing"

	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/stretchr/testify/require"
)

func TestBlockRepository_UpsertIsIdempotent(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	req.NoError(repo.Upsert(ctx, "alice", "bob", "spam"))
	req.NoError(repo.Upsert(ctx, "alice", "bob", "harassment"))
	req.Equal(int64(1), countRows(t, db, "blocks"))

	blocked, err := repo.ListBlocked(ctx, "alice")
	req.NoError(err)
	req.Len(blocked, 1)
	req.Equal("harassment", blocked[0].Reason)
}

func TestBlockRepository_StatusIsDirectional(t *testing.T) {
	req := require.New(t)
	repo := NewBlockRepository(newTestDB(t))
	ctx := context.Background()

	status, err := repo.Status(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal(model.BlockStatus{}, status)

	req.NoError(repo.Upsert(ctx, "alice", "bob", ""))

	status, err = repo.Status(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal(model.BlockStatus{IsBlocked: false, HasBlocked: true}, status)

	status, err = repo.Status(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(model.BlockStatus{IsBlocked: true, HasBlocked: false}, status)

	req.NoError(repo.Upsert(ctx, "bob", "alice", ""))
	status, err = repo.Status(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal(model.BlockStatus{IsBlocked: true, HasBlocked: true}, status)
}

func TestBlockRepository_DeleteMissingIsNoop(t *testing.T) {
	req := require.New(t)
	repo := NewBlockRepository(newTestDB(t))
	ctx := context.Background()

	req.NoError(repo.Delete(ctx, "alice", "bob"))

	req.NoError(repo.Upsert(ctx, "alice", "bob", ""))
	req.NoError(repo.Delete(ctx, "alice", "bob"))

	status, err := repo.Status(ctx, "alice", "bob")
	req.NoError(err)
	req.False(status.HasBlocked)
}

func TestBanRepository(t *testing.T) {
	req := require.New(t)
	repo := NewBanRepository(newTestDB(t))
	ctx := context.Background()

	banned, err := repo.AnyBanned(ctx, "alice", "bob")
	req.NoError(err)
	req.False(banned)

	req.NoError(repo.Ban(ctx, "bob", "abuse"))
	req.NoError(repo.Ban(ctx, "bob", "abuse again"))

	banned, err = repo.AnyBanned(ctx, "alice", "bob")
	req.NoError(err)
	req.True(banned)

	req.NoError(repo.Unban(ctx, "bob"))
	banned, err = repo.AnyBanned(ctx, "alice", "bob")
	req.NoError(err)
	req.False(banned)
}
