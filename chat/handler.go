package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
)

const handlerTimeout = 10 * time.Second

// Handler turns raw socket events into Service calls. Failures never reach
// the transport: they come back to the socket as an error event.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Events() []string {
	return []string{
		EventSendChatMessage,
		EventJoinConversation,
		EventLeaveConversation,
		EventMarkMessagesRead,
		EventTypingStart,
		EventTypingStop,
	}
}

// Connected acknowledges a freshly admitted socket.
func (h *Handler) Connected(client Client) {
	client.Emit(EventConnected, ConnectedPayload{UserID: client.UserID(), SocketID: client.ID()})
}

func (h *Handler) Disconnected(client Client, reason string) {
	h.log.Debug("Socket disconnected", "socket", client.ID(), "user", client.UserID(), "reason", reason)
	h.svc.Disconnect(client)
}

// Handle runs one event to completion before returning so that events of a
// socket are applied in arrival order.
func (h *Handler) Handle(client Client, event string, args ...any) {
	errorEvent := EventChatError
	if event == EventSendChatMessage {
		errorEvent = EventMessageSendError
	}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Socket handler panicked", "event", event, "socket", client.ID(), "panic", r)
			client.Emit(errorEvent, NewErrorPayload(apperror.Internal(fmt.Errorf("panic: %v", r))))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := h.dispatch(ctx, client, event, args); err != nil {
		appErr := apperror.From(err)
		if appErr.Code == apperror.CodeInternal {
			h.log.Error("Socket event failed", "event", event, "user", client.UserID(), "error", err)
		} else {
			h.log.Debug("Socket event rejected", "event", event, "user", client.UserID(), "type", appErr.Code)
		}
		client.Emit(errorEvent, NewErrorPayload(appErr))
	}
}

func (h *Handler) dispatch(ctx context.Context, client Client, event string, args []any) error {
	switch event {
	case EventSendChatMessage:
		var in SendInput
		if err := decode(args, &in); err != nil {
			return err
		}
		_, err := h.svc.SendMessage(ctx, client.UserID(), in, client)
		return err
	case EventJoinConversation:
		var in ConversationInput
		if err := decode(args, &in); err != nil {
			return err
		}
		return h.svc.JoinConversation(ctx, client, in)
	case EventLeaveConversation:
		var in ConversationInput
		if err := decode(args, &in); err != nil {
			return err
		}
		return h.svc.LeaveConversation(client, in)
	case EventMarkMessagesRead:
		var in ConversationInput
		if err := decode(args, &in); err != nil {
			return err
		}
		_, err := h.svc.MarkRead(ctx, client.UserID(), in.ConversationID, client)
		return err
	case EventTypingStart:
		var in TypingInput
		if err := decode(args, &in); err != nil {
			return err
		}
		return h.svc.TypingStart(client, in)
	case EventTypingStop:
		var in TypingInput
		if err := decode(args, &in); err != nil {
			return err
		}
		return h.svc.TypingStop(client, in)
	default:
		return apperror.Validation(fmt.Sprintf("unknown event %q", event))
	}
}

// decode reads the first socket argument, either an object or its JSON text,
// into out.
func decode(args []any, out any) error {
	if len(args) == 0 || args[0] == nil {
		return apperror.Validation("payload is required")
	}

	var raw []byte
	switch v := args[0].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return apperror.Wrap(apperror.CodeValidation, "malformed payload", err)
		}
		raw = b
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Wrap(apperror.CodeValidation, "malformed payload", err)
	}
	return nil
}
