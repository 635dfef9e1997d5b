package chat

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Top-Pesinde/backend-sub001/block"
	"github.com/Top-Pesinde/backend-sub001/database/dbtest"
	"github.com/Top-Pesinde/backend-sub001/notify"
	"github.com/Top-Pesinde/backend-sub001/repository"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type pushLog struct {
	mu     sync.Mutex
	bodies []string
}

func (p *pushLog) Send(_ context.Context, _, _, body string, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *pushLog) sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.bodies...)
}

type scenario struct {
	hub      *hub
	handler  *Handler
	pushes   *pushLog
	messages *repository.MessageRepository
}

const escalationDelay = 50 * time.Millisecond

func newScenario(t *testing.T) *scenario {
	db := dbtest.New(t)
	dbtest.Users(t, db, "alice", "bob")
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	messages := repository.NewMessageRepository(db)
	users := repository.NewUserRepository(db)
	pushes := &pushLog{}

	escalator := notify.NewEscalator(
		notify.Options{Delay: escalationDelay, Cooldown: escalationDelay, Tick: 5 * time.Millisecond},
		pushes, messages, users, log,
	)
	t.Cleanup(escalator.Stop)

	h := newHub()
	svc := NewService(
		repository.NewConversationRepository(db),
		messages,
		block.NewGuard(repository.NewBlockRepository(db), repository.NewBanRepository(db), users),
		storeUnread{messages: messages},
		escalator,
		h,
		log,
	)
	return &scenario{hub: h, handler: NewHandler(svc, log), pushes: pushes, messages: messages}
}

func TestScenario_UnreadMessageEscalatesThenReadReachesSender(t *testing.T) {
	req := require.New(t)
	sc := newScenario(t)
	alice := sc.hub.connect("alice")
	bob := sc.hub.connect("bob")

	sc.handler.Handle(alice, EventSendChatMessage, map[string]any{"receiverId": "bob", "content": "hi"})
	ack := alice.last(EventMessageSentSuccess).(MessagePayload)
	conversationID := ack.Message.ConversationID

	req.Eventually(func() bool { return len(sc.pushes.sent()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * escalationDelay)
	req.Len(sc.pushes.sent(), 1)
	req.Contains(sc.pushes.sent()[0], "hi")

	sc.handler.Handle(bob, EventMarkMessagesRead, map[string]any{"conversationId": conversationID})

	n, err := sc.messages.CountUnread(context.Background(), conversationID, "bob")
	req.NoError(err)
	req.Zero(n)
	req.Zero(bob.last(EventUnreadCountUpdated).(UnreadCountPayload).UnreadCount)

	read, ok := alice.last(EventMessagesReadByUser).(ReadByUserPayload)
	req.True(ok)
	req.Equal("bob", read.UserID)
}

func TestScenario_AttentiveReaderGetsNoPush(t *testing.T) {
	req := require.New(t)
	sc := newScenario(t)
	alice := sc.hub.connect("alice")
	bob := sc.hub.connect("bob")

	sc.handler.Handle(alice, EventSendChatMessage, map[string]any{"receiverId": "bob", "content": "are you there"})
	conversationID := alice.last(EventMessageSentSuccess).(MessagePayload).Message.ConversationID
	sc.handler.Handle(bob, EventJoinConversation, map[string]any{"conversationId": conversationID})

	time.Sleep(4 * escalationDelay)
	req.Empty(sc.pushes.sent())
}

func TestScenario_BurstProducesOnePush(t *testing.T) {
	req := require.New(t)
	sc := newScenario(t)
	alice := sc.hub.connect("alice")
	sc.hub.connect("bob")

	for _, text := range []string{"one", "two", "three"} {
		sc.handler.Handle(alice, EventSendChatMessage, map[string]any{"receiverId": "bob", "content": text})
	}

	req.Eventually(func() bool { return len(sc.pushes.sent()) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(4 * escalationDelay)
	req.Len(sc.pushes.sent(), 1)
}
