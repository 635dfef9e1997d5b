package repository

import (
	"context"
	"time"

	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	message.IsRead = false
	message.ReadAt = nil
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return errors.Wrap(err, "messageRepo.Create")
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	m := new(model.Message)
	if err := r.db.WithContext(ctx).First(m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "message not found", "messageRepo.FindByID.First")
	}
	return m, nil
}

// MarkRead flags every unread message of the conversation addressed to
// receiverID in a single statement. Rows already read are untouched, so calling
// it again is a no-op.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, receiverID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, receiverID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "messageRepo.MarkRead.Updates")
	}
	return res.RowsAffected, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, conversationID, receiverID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, receiverID, false).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "messageRepo.CountUnread.Count")
	}
	return n, nil
}

func (r *MessageRepository) CountUnreadTotal(ctx context.Context, receiverID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "messageRepo.CountUnreadTotal.Count")
	}
	return n, nil
}

func (r *MessageRepository) CountUnreadByConversation(ctx context.Context, receiverID string) (map[string]int64, error) {
	var rows []struct {
		ConversationID string
		Count          int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.CountUnreadByConversation.Scan")
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ConversationID] = row.Count
	}
	return out, nil
}

// FilterUnread returns the subset of ids still unread.
func (r *MessageRepository) FilterUnread(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []string
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id IN ? AND is_read = ?", ids, false).
		Pluck("id", &out).Error
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.FilterUnread.Pluck")
	}
	return out, nil
}

// History pages backwards from before, newest first.
func (r *MessageRepository) History(ctx context.Context, conversationID string, before time.Time, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}

	var messages []model.Message
	if err := q.Order("created_at desc").Limit(limit).Find(&messages).Error; err != nil {
		return nil, errors.Wrap(err, "messageRepo.History.Find")
	}
	return messages, nil
}
