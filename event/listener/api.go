package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Top-Pesinde/backend-sub001/event"
)

const (
	ActionUserBanned   = "user.banned"
	ActionUserUnbanned = "user.unbanned"
	ActionUserDeleted  = "user.deleted"
)

type BanStore interface {
	Ban(ctx context.Context, userID, reason string) error
	Unban(ctx context.Context, userID string) error
}

type SessionTerminator interface {
	TerminateAll(ctx context.Context, userID string) (int64, error)
}

type userEvent struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// Api consumes account events published by the main API service.
type Api struct {
	Channel  chan event.EventChannelData
	bans     BanStore
	sessions SessionTerminator
	log      *slog.Logger
}

func NewApi(bans BanStore, sessions SessionTerminator, log *slog.Logger) *Api {
	return &Api{
		Channel:  make(chan event.EventChannelData),
		bans:     bans,
		sessions: sessions,
		log:      log.With("listener", "api"),
	}
}

// Run handles events until the channel is closed or ctx is done.
func (a *Api) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.Channel:
			if !ok {
				return
			}
			if err := a.Handle(ctx, ev); err != nil {
				a.log.Error("Event handling failed", "action", ev.Action, "error", err)
			}
		}
	}
}

func (a *Api) Handle(ctx context.Context, ev event.EventChannelData) error {
	var payload userEvent
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Action, err)
	}
	if payload.UserID == "" {
		return fmt.Errorf("%s: missing userId", ev.Action)
	}

	switch ev.Action {
	case ActionUserBanned:
		if err := a.bans.Ban(ctx, payload.UserID, payload.Reason); err != nil {
			return err
		}
		return a.terminate(ctx, payload.UserID)
	case ActionUserUnbanned:
		return a.bans.Unban(ctx, payload.UserID)
	case ActionUserDeleted:
		return a.terminate(ctx, payload.UserID)
	default:
		a.log.Debug("Ignoring event", "action", ev.Action)
		return nil
	}
}

func (a *Api) terminate(ctx context.Context, userID string) error {
	n, err := a.sessions.TerminateAll(ctx, userID)
	if err != nil {
		return err
	}
	a.log.Info("Terminated sessions", "user", userID, "sessions", n)
	return nil
}
