package chat

import (
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"
)

// Client to server events.
const (
	EventSendChatMessage   = "send_chat_message"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventMarkMessagesRead  = "mark_messages_read"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
)

// Server to client events.
const (
	EventConnected          = "connected"
	EventMessageSentSuccess = "message_sent_success"
	EventMessageSendError   = "message_send_error"
	EventNewChatMessage     = "new_chat_message"
	EventConversationJoined = "conversation_joined"
	EventConversationLeft   = "conversation_left"
	EventMessagesMarkedRead = "messages_marked_read"
	EventMessagesReadByUser = "messages_read_by_user"
	EventUnreadCountUpdated = "unread_count_updated"
	EventUserTypingStart    = "user_typing_start"
	EventUserTypingStop     = "user_typing_stop"
	EventUserBlocked        = "user_blocked"
	EventUserUnblocked      = "user_unblocked"
	EventChatError          = "chat_error"
)

type SendInput struct {
	ReceiverID    string  `json:"receiverId" validate:"required,max=64"`
	Content       string  `json:"content" validate:"required,max=4000"`
	Type          string  `json:"type" validate:"omitempty,oneof=TEXT IMAGE FILE"`
	ReplyToID     *string `json:"replyToId" validate:"omitempty,max=64"`
	AttachmentURL *string `json:"attachmentUrl" validate:"omitempty,url,max=2048"`
}

type ConversationInput struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
}

type TypingInput struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
	ReceiverID     string `json:"receiverId"`
}

type ConnectedPayload struct {
	UserID   string `json:"userId"`
	SocketID string `json:"socketId"`
}

type MessagePayload struct {
	Message *model.Message `json:"message"`
}

type ErrorPayload struct {
	Error string        `json:"error"`
	Type  apperror.Code `json:"type"`
	Data  any           `json:"data,omitempty"`
}

func NewErrorPayload(err error) ErrorPayload {
	appErr := apperror.From(err)
	return ErrorPayload{Error: appErr.Message, Type: appErr.Code, Data: appErr.Data}
}

type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type MarkedReadPayload struct {
	ConversationID string `json:"conversationId"`
	MarkedCount    int64  `json:"markedCount"`
	UnreadCount    int64  `json:"unreadCount"`
}

type ReadByUserPayload struct {
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	Timestamp      time.Time `json:"timestamp"`
}

type UnreadCountPayload struct {
	ConversationID string `json:"conversationId"`
	UnreadCount    int64  `json:"unreadCount"`
}

type TypingPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

type BlockedPayload struct {
	BlockedUser string `json:"blockedUser"`
}

type UnblockedPayload struct {
	UnblockedUser string `json:"unblockedUser"`
}
