package repository

import (
	"context"
	"time"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return errors.Wrap(err, "sessionRepo.Create")
	}
	return nil
}

// FindLive returns the session owning token, provided it is not expired.
func (r *SessionRepository) FindLive(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	s := new(model.Session)
	err := r.db.WithContext(ctx).
		Where("session_token = ? AND expires_at > ?", token, now).
		First(s).Error
	if err != nil {
		return nil, notFound(err, "session not found", "sessionRepo.FindLive.First")
	}
	return s, nil
}

// Rotate swaps the session token and extends expiry in one conditional update,
// so a given token can be rotated at most once.
func (r *SessionRepository) Rotate(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) (*model.Session, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_token = ? AND expires_at > ?", oldToken, now).
		Updates(map[string]any{
			"session_token":    newToken,
			"expires_at":       expiresAt,
			"last_accessed_at": now,
		})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "sessionRepo.Rotate.Updates")
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("session not found")
	}
	return r.FindLive(ctx, newToken, now)
}

func (r *SessionRepository) Touch(ctx context.Context, id string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ?", id).
		Update("last_accessed_at", now).Error
	if err != nil {
		return errors.Wrap(err, "sessionRepo.Touch.Update")
	}
	return nil
}

func (r *SessionRepository) ListForUser(ctx context.Context, userID string, now time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("last_accessed_at desc").
		Find(&sessions).Error
	if err != nil {
		return nil, errors.Wrap(err, "sessionRepo.ListForUser.Find")
	}
	return sessions, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res := r.db.WithContext(ctx).Where("session_token = ?", token).Delete(&model.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessionRepo.DeleteByToken")
	}
	return res.RowsAffected, nil
}

func (r *SessionRepository) DeleteByID(ctx context.Context, userID, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessionRepo.DeleteByID")
	}
	return res.RowsAffected, nil
}

func (r *SessionRepository) DeleteOthers(ctx context.Context, userID, exceptToken string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND session_token <> ?", userID, exceptToken).
		Delete(&model.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessionRepo.DeleteOthers")
	}
	return res.RowsAffected, nil
}

func (r *SessionRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessionRepo.DeleteAll")
	}
	return res.RowsAffected, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessionRepo.DeleteExpired")
	}
	return res.RowsAffected, nil
}

func (r *SessionRepository) DeleteIdle(ctx context.Context, idleBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("last_accessed_at < ?", idleBefore).Delete(&model.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessionRepo.DeleteIdle")
	}
	return res.RowsAffected, nil
}

// DeleteDuplicates keeps, for each (user, device, platform), only the most
// recently accessed session. Ties on last access are broken by id.
func (r *SessionRepository) DeleteDuplicates(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM sessions WHERE id IN (
			SELECT s.id FROM sessions s
			JOIN sessions t
			  ON s.user_id = t.user_id
			 AND s.device_info = t.device_info
			 AND s.platform = t.platform
			 AND s.id <> t.id
			WHERE s.last_accessed_at < t.last_accessed_at
			   OR (s.last_accessed_at = t.last_accessed_at AND s.id < t.id)
		)`)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessionRepo.DeleteDuplicates")
	}
	return res.RowsAffected, nil
}
