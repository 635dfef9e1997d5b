package repository

import (
	"context"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pairRetries bounds the insert-or-fetch loop; a miss after a conflicting
// insert only happens if the row disappears in between.
const pairRetries = 3

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindOrCreate returns the unique conversation of the pair, inserting it when
// absent. Concurrent callers for the same pair all get the same row: the
// insert is a no-op on the unique pair index and the loser re-reads.
func (r *ConversationRepository) FindOrCreate(ctx context.Context, userA, userB string) (*model.Conversation, bool, error) {
	a, b := model.NormalizePair(userA, userB)

	for attempt := 0; attempt < pairRetries; attempt++ {
		conv := model.Conversation{ParticipantA: a, ParticipantB: b}
		res := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "participant_a"}, {Name: "participant_b"}},
				DoNothing: true,
			}).
			Create(&conv)
		if res.Error != nil {
			return nil, false, errors.Wrap(res.Error, "conversationRepo.FindOrCreate.Create")
		}
		if res.RowsAffected == 1 {
			return &conv, true, nil
		}

		existing, err := r.FindByPair(ctx, a, b)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, false, err
		}
	}

	return nil, false, apperror.Conflict("conversation could not be resolved")
}

func (r *ConversationRepository) FindByPair(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	a, b := model.NormalizePair(userA, userB)

	conv := new(model.Conversation)
	err := r.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ?", a, b).
		First(conv).Error
	if err != nil {
		return nil, notFound(err, "conversation not found", "conversationRepo.FindByPair.First")
	}
	return conv, nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	conv := new(model.Conversation)
	if err := r.db.WithContext(ctx).First(conv, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "conversation not found", "conversationRepo.FindByID.First")
	}
	return conv, nil
}

// ConversationSummary is a conversation as listed for one participant.
type ConversationSummary struct {
	Conversation model.Conversation `json:"conversation"`
	PeerID       string             `json:"peerId"`
	LastMessage  *model.Message     `json:"lastMessage"`
	UnreadCount  int64              `json:"unreadCount"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]ConversationSummary, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("created_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.ListForUser.Find")
	}
	if len(convs) == 0 {
		return []ConversationSummary{}, nil
	}

	ids := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}

	var last []model.Message
	err = r.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Where("created_at = (SELECT MAX(m2.created_at) FROM messages m2 WHERE m2.conversation_id = messages.conversation_id)").
		Find(&last).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.ListForUser.LastMessages")
	}
	lastByConv := make(map[string]model.Message, len(last))
	for _, m := range last {
		lastByConv[m.ConversationID] = m
	}

	unread, err := NewMessageRepository(r.db).CountUnreadByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		s := ConversationSummary{
			Conversation: c,
			PeerID:       c.Peer(userID),
			UnreadCount:  unread[c.ID],
			UpdatedAt:    c.CreatedAt,
		}
		if m, ok := lastByConv[c.ID]; ok {
			s.LastMessage = &m
			s.UpdatedAt = m.CreatedAt
		}
		out = append(out, s)
	}
	sortByUpdatedDesc(out)
	return out, nil
}
