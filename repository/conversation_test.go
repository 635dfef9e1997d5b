package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ConversationRepositorySuite struct {
	suite.Suite
	db       *gorm.DB
	repo     *ConversationRepository
	messages *MessageRepository
}

func (s *ConversationRepositorySuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.repo = NewConversationRepository(s.db)
	s.messages = NewMessageRepository(s.db)
}

func TestConversationRepositorySuite(t *testing.T) {
	suite.Run(t, new(ConversationRepositorySuite))
}

func (s *ConversationRepositorySuite) TestFindOrCreate_CreatesOnce() {
	ctx := context.Background()

	first, created, err := s.repo.FindOrCreate(ctx, "bob", "alice")
	s.Require().NoError(err)
	s.True(created)
	s.Equal("alice", first.ParticipantA)
	s.Equal("bob", first.ParticipantB)

	second, created, err := s.repo.FindOrCreate(ctx, "alice", "bob")
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, second.ID)
	s.Equal(int64(1), countRows(s.T(), s.db, "conversations"))
}

func (s *ConversationRepositorySuite) TestFindOrCreate_ConcurrentBothDirections() {
	ctx := context.Background()

	const workers = 16
	ids := make(chan string, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "alice", "bob"
			if i%2 == 1 {
				from, to = to, from
			}
			conv, _, err := s.repo.FindOrCreate(ctx, from, to)
			if err != nil {
				errs <- err
				return
			}
			ids <- conv.ID
		}(i)
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}

	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	s.Len(seen, 1)
	s.Equal(int64(1), countRows(s.T(), s.db, "conversations"))
}

func (s *ConversationRepositorySuite) TestFindByID_NotFound() {
	_, err := s.repo.FindByID(context.Background(), "missing")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ConversationRepositorySuite) TestListForUser_WithLastMessageAndUnread() {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	withBob, _, err := s.repo.FindOrCreate(ctx, "alice", "bob")
	s.Require().NoError(err)
	withCarol, _, err := s.repo.FindOrCreate(ctx, "carol", "alice")
	s.Require().NoError(err)

	s.Require().NoError(s.messages.Create(ctx, &model.Message{
		ConversationID: withBob.ID, SenderID: "bob", ReceiverID: "alice",
		Content: "hi", Type: model.MessageTypeText, CreatedAt: base,
	}))
	s.Require().NoError(s.messages.Create(ctx, &model.Message{
		ConversationID: withBob.ID, SenderID: "bob", ReceiverID: "alice",
		Content: "still there?", Type: model.MessageTypeText, CreatedAt: base.Add(time.Minute),
	}))
	s.Require().NoError(s.messages.Create(ctx, &model.Message{
		ConversationID: withCarol.ID, SenderID: "alice", ReceiverID: "carol",
		Content: "hello carol", Type: model.MessageTypeText, CreatedAt: base.Add(2 * time.Minute),
	}))

	list, err := s.repo.ListForUser(ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(list, 2)

	s.Equal(withCarol.ID, list[0].Conversation.ID)
	s.Equal("carol", list[0].PeerID)
	s.Equal(int64(0), list[0].UnreadCount)
	s.Equal("hello carol", list[0].LastMessage.Content)

	s.Equal(withBob.ID, list[1].Conversation.ID)
	s.Equal(int64(2), list[1].UnreadCount)
	s.Equal("still there?", list[1].LastMessage.Content)
}

func (s *ConversationRepositorySuite) TestListForUser_Empty() {
	list, err := s.repo.ListForUser(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Empty(list)
}
