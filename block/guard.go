package block

import (
	"context"
	"strings"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"
)

type Store interface {
	Upsert(ctx context.Context, blockerID, blockedID, reason string) error
	Delete(ctx context.Context, blockerID, blockedID string) error
	Status(ctx context.Context, a, b string) (model.BlockStatus, error)
	ListBlocked(ctx context.Context, blockerID string) ([]model.Block, error)
}

type BanStore interface {
	AnyBanned(ctx context.Context, userIDs ...string) (bool, error)
}

type UserStore interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Rejection is attached to blocking errors so clients can refresh their view.
type Rejection struct {
	BlockStatus model.BlockStatus `json:"blockStatus"`
	Banned      bool              `json:"banned"`
}

// Guard answers whether two users may exchange messages. It never caches:
// every send reads the current rows.
type Guard struct {
	blocks Store
	bans   BanStore
	users  UserStore
}

func NewGuard(blocks Store, bans BanStore, users UserStore) *Guard {
	return &Guard{blocks: blocks, bans: bans, users: users}
}

func (g *Guard) Block(ctx context.Context, blockerID, blockedID, reason string) error {
	if err := validatePair(blockerID, blockedID); err != nil {
		return err
	}
	if err := g.mustExist(ctx, blockedID); err != nil {
		return err
	}
	if err := g.blocks.Upsert(ctx, blockerID, blockedID, strings.TrimSpace(reason)); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Unblock succeeds whether or not the block existed.
func (g *Guard) Unblock(ctx context.Context, blockerID, blockedID string) error {
	if err := validatePair(blockerID, blockedID); err != nil {
		return err
	}
	if err := g.blocks.Delete(ctx, blockerID, blockedID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Status is computed from a's side: IsBlocked means b blocks a, HasBlocked
// means a blocks b.
func (g *Guard) Status(ctx context.Context, a, b string) (model.BlockStatus, error) {
	if err := validatePair(a, b); err != nil {
		return model.BlockStatus{}, err
	}
	status, err := g.blocks.Status(ctx, a, b)
	if err != nil {
		return model.BlockStatus{}, apperror.Internal(err)
	}
	return status, nil
}

func (g *Guard) List(ctx context.Context, blockerID string) ([]model.Block, error) {
	rows, err := g.blocks.ListBlocked(ctx, blockerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return rows, nil
}

// CheckSend returns nil when senderID may message receiverID, NOT_FOUND for an
// unknown receiver, otherwise a terminal BLOCKED_BY_OTHER, BLOCKED_BY_YOU or
// BANNED error carrying a Rejection snapshot.
func (g *Guard) CheckSend(ctx context.Context, senderID, receiverID string) error {
	if err := g.mustExist(ctx, receiverID); err != nil {
		return err
	}
	status, err := g.blocks.Status(ctx, senderID, receiverID)
	if err != nil {
		return apperror.Internal(err)
	}
	banned, err := g.bans.AnyBanned(ctx, senderID, receiverID)
	if err != nil {
		return apperror.Internal(err)
	}

	rejection := Rejection{BlockStatus: status, Banned: banned}
	switch {
	case status.IsBlocked:
		return apperror.New(apperror.CodeBlockedByOther, "you have been blocked by this user").WithData(rejection)
	case status.HasBlocked:
		return apperror.New(apperror.CodeBlockedByYou, "you have blocked this user").WithData(rejection)
	case banned:
		return apperror.New(apperror.CodeBanned, "account is banned from messaging").WithData(rejection)
	}
	return nil
}

func (g *Guard) mustExist(ctx context.Context, userID string) error {
	ok, err := g.users.Exists(ctx, userID)
	if err != nil {
		return apperror.Internal(err)
	}
	if !ok {
		return apperror.NotFound("user not found")
	}
	return nil
}

func validatePair(a, b string) error {
	if a == "" || b == "" {
		return apperror.Validation("user id is required")
	}
	if a == b {
		return apperror.Validation("cannot block yourself")
	}
	return nil
}
