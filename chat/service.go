package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/repository"
	"github.com/Top-Pesinde/backend-sub001/utils"
)

type ConversationStore interface {
	FindOrCreate(ctx context.Context, userA, userB string) (*model.Conversation, bool, error)
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]repository.ConversationSummary, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	FindByID(ctx context.Context, id string) (*model.Message, error)
	MarkRead(ctx context.Context, conversationID, receiverID string, at time.Time) (int64, error)
	History(ctx context.Context, conversationID string, before time.Time, limit int) ([]model.Message, error)
	CountUnreadTotal(ctx context.Context, receiverID string) (int64, error)
}

type SendGuard interface {
	CheckSend(ctx context.Context, senderID, receiverID string) error
}

type UnreadCounter interface {
	Get(ctx context.Context, conversationID, userID string) (int64, error)
	Invalidate(ctx context.Context, conversationID, userID string)
}

type Escalator interface {
	Arm(msg *model.Message)
	CancelConversation(conversationID, receiverID string) int
}

type Service struct {
	conversations ConversationStore
	messages      MessageStore
	guard         SendGuard
	unread        UnreadCounter
	escalator     Escalator
	rooms         Broadcaster
	presence      *Presence
	log           *slog.Logger
	now           func() time.Time
}

func NewService(
	conversations ConversationStore,
	messages MessageStore,
	guard SendGuard,
	unread UnreadCounter,
	escalator Escalator,
	rooms Broadcaster,
	log *slog.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		guard:         guard,
		unread:        unread,
		escalator:     escalator,
		rooms:         rooms,
		presence:      NewPresence(),
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage runs the whole send pipeline. origin is the sending socket, nil
// when the message comes in over REST.
func (s *Service) SendMessage(ctx context.Context, senderID string, in SendInput, origin Client) (*model.Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Type == "" {
		in.Type = model.MessageTypeText
	}
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if senderID == in.ReceiverID {
		return nil, apperror.Validation("cannot send a message to yourself")
	}

	if err := s.guard.CheckSend(ctx, senderID, in.ReceiverID); err != nil {
		return nil, err
	}

	conv, created, err := s.conversations.FindOrCreate(ctx, senderID, in.ReceiverID)
	if err != nil {
		return nil, internal(err)
	}
	if in.ReplyToID != nil {
		if err := s.checkReply(ctx, conv.ID, *in.ReplyToID); err != nil {
			return nil, err
		}
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     in.ReceiverID,
		Content:        in.Content,
		Type:           in.Type,
		ReplyToID:      in.ReplyToID,
		AttachmentURL:  in.AttachmentURL,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, internal(err)
	}

	log := s.log.With("conversation", conv.ID, "message", msg.ID)
	if created {
		log.Info("Conversation created", "sender", senderID, "receiver", in.ReceiverID)
	}

	// The receiver gets it through the conversation room or, when not joined,
	// through their personal room. Delivery on the union is deduplicated.
	payload := MessagePayload{Message: msg}
	targets := []string{ConversationRoom(conv.ID), UserRoom(in.ReceiverID)}
	if origin != nil {
		origin.Emit(EventMessageSentSuccess, payload)
		origin.Broadcast(targets, EventNewChatMessage, payload)
	} else {
		s.rooms.ToRooms(targets, EventNewChatMessage, payload)
	}

	s.escalator.Arm(msg)

	s.unread.Invalidate(ctx, conv.ID, in.ReceiverID)
	if count, err := s.unread.Get(ctx, conv.ID, in.ReceiverID); err != nil {
		log.Warn("Unread count unavailable", "error", err)
	} else {
		s.rooms.ToRooms([]string{UserRoom(in.ReceiverID)}, EventUnreadCountUpdated, UnreadCountPayload{
			ConversationID: conv.ID,
			UnreadCount:    count,
		})
	}

	log.Debug("Message delivered", "sender", senderID)
	return msg, nil
}

func (s *Service) checkReply(ctx context.Context, conversationID, replyToID string) error {
	parent, err := s.messages.FindByID(ctx, replyToID)
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeNotFound {
			return apperror.Validation("replyToId does not exist")
		}
		return internal(err)
	}
	if parent.ConversationID != conversationID {
		return apperror.Validation("replyToId belongs to another conversation")
	}
	return nil
}

// MarkRead marks everything addressed to userID in the conversation as read.
// Calling it with nothing unread is a successful no-op.
func (s *Service) MarkRead(ctx context.Context, userID, conversationID string, origin Client) (MarkedReadPayload, error) {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return MarkedReadPayload{}, err
	}

	// Cancel first: a message persisted concurrently is either marked by the
	// update below or keeps its timer.
	s.escalator.CancelConversation(conv.ID, userID)

	now := s.now()
	marked, err := s.messages.MarkRead(ctx, conv.ID, userID, now)
	if err != nil {
		return MarkedReadPayload{}, internal(err)
	}
	s.unread.Invalidate(ctx, conv.ID, userID)

	ack := MarkedReadPayload{ConversationID: conv.ID, MarkedCount: marked}
	if origin != nil {
		origin.Emit(EventMessagesMarkedRead, ack)
	}

	room := ConversationRoom(conv.ID)
	s.rooms.ToRooms([]string{room, UserRoom(conv.Peer(userID))}, EventMessagesReadByUser, ReadByUserPayload{
		UserID:         userID,
		ConversationID: conv.ID,
		Timestamp:      now,
	})
	s.rooms.ToRooms([]string{room, UserRoom(userID)}, EventUnreadCountUpdated, UnreadCountPayload{
		ConversationID: conv.ID,
	})

	if marked > 0 {
		s.log.Debug("Messages marked read", "conversation", conv.ID, "user", userID, "count", marked)
	}
	return ack, nil
}

// JoinConversation subscribes the socket to the conversation room and reads
// everything pending for its user. Joining twice is harmless.
func (s *Service) JoinConversation(ctx context.Context, client Client, in ConversationInput) error {
	if err := utils.Validate(in); err != nil {
		return err
	}
	conv, err := s.participantConversation(ctx, client.UserID(), in.ConversationID)
	if err != nil {
		return err
	}

	client.Join(ConversationRoom(conv.ID))
	client.Emit(EventConversationJoined, ConversationPayload{ConversationID: conv.ID})

	_, err = s.MarkRead(ctx, client.UserID(), conv.ID, client)
	return err
}

func (s *Service) LeaveConversation(client Client, in ConversationInput) error {
	if err := utils.Validate(in); err != nil {
		return err
	}

	room := ConversationRoom(in.ConversationID)
	client.Leave(room)
	if s.presence.Stop(in.ConversationID, client.UserID()) {
		client.Broadcast([]string{room}, EventUserTypingStop, TypingPayload{
			UserID:         client.UserID(),
			ConversationID: in.ConversationID,
		})
	}
	client.Emit(EventConversationLeft, ConversationPayload{ConversationID: in.ConversationID})
	return nil
}

func (s *Service) TypingStart(client Client, in TypingInput) error {
	room, err := s.typingRoom(client, in)
	if err != nil {
		return err
	}
	s.presence.Start(in.ConversationID, client.UserID(), client.ID())
	client.Broadcast([]string{room}, EventUserTypingStart, TypingPayload{
		UserID:         client.UserID(),
		ConversationID: in.ConversationID,
	})
	return nil
}

func (s *Service) TypingStop(client Client, in TypingInput) error {
	room, err := s.typingRoom(client, in)
	if err != nil {
		return err
	}
	s.presence.Stop(in.ConversationID, client.UserID())
	client.Broadcast([]string{room}, EventUserTypingStop, TypingPayload{
		UserID:         client.UserID(),
		ConversationID: in.ConversationID,
	})
	return nil
}

// typingRoom only lets sockets that joined the conversation signal typing.
func (s *Service) typingRoom(client Client, in TypingInput) (string, error) {
	if err := utils.Validate(in); err != nil {
		return "", err
	}
	room := ConversationRoom(in.ConversationID)
	if !client.InRoom(room) {
		return "", apperror.Validation("join the conversation first")
	}
	return room, nil
}

// Disconnect clears typing left behind by the socket. Pending escalations and
// sessions are untouched.
func (s *Service) Disconnect(client Client) {
	for _, conversationID := range s.presence.DropSocket(client.ID()) {
		s.rooms.ToRooms([]string{ConversationRoom(conversationID)}, EventUserTypingStop, TypingPayload{
			UserID:         client.UserID(),
			ConversationID: conversationID,
		})
	}
}

func (s *Service) Typing(conversationID string) []string {
	return s.presence.Typing(conversationID)
}

func (s *Service) Conversations(ctx context.Context, userID string) ([]repository.ConversationSummary, error) {
	out, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, userID, conversationID string, before time.Time, limit int) ([]model.Message, error) {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	out, err := s.messages.History(ctx, conv.ID, before, limit)
	if err != nil {
		return nil, internal(err)
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID, conversationID string) (int64, error) {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}
	n, err := s.unread.Get(ctx, conv.ID, userID)
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

func (s *Service) UnreadTotal(ctx context.Context, userID string) (int64, error) {
	n, err := s.messages.CountUnreadTotal(ctx, userID)
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

// NotifyBlocked tells every device of the actor about a block change.
func (s *Service) NotifyBlocked(actorID, targetID string) {
	s.rooms.ToRooms([]string{UserRoom(actorID)}, EventUserBlocked, BlockedPayload{BlockedUser: targetID})
}

func (s *Service) NotifyUnblocked(actorID, targetID string) {
	s.rooms.ToRooms([]string{UserRoom(actorID)}, EventUserUnblocked, UnblockedPayload{UnblockedUser: targetID})
}

// participantConversation hides conversations the user is not part of behind
// NOT_FOUND.
func (s *Service) participantConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, apperror.Validation("conversationId is required")
	}
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, internal(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperror.NotFound("conversation not found")
	}
	return conv, nil
}

// internal keeps coded errors and wraps anything else as INTERNAL.
func internal(err error) error {
	return apperror.From(err)
}
