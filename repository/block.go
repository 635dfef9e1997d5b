package repository

import (
	"context"

	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// Upsert creates the directional block or refreshes its reason.
func (r *BlockRepository) Upsert(ctx context.Context, blockerID, blockedID, reason string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason"}),
		}).
		Create(&model.Block{BlockerID: blockerID, BlockedID: blockedID, Reason: reason}).Error
	if err != nil {
		return errors.Wrap(err, "blockRepo.Upsert.Create")
	}
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID string) error {
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.Block{}).Error
	if err != nil {
		return errors.Wrap(err, "blockRepo.Delete")
	}
	return nil
}

// Status reads both directions in one query, from a's point of view.
func (r *BlockRepository) Status(ctx context.Context, a, b string) (model.BlockStatus, error) {
	var rows []model.Block
	err := r.db.WithContext(ctx).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Find(&rows).Error
	if err != nil {
		return model.BlockStatus{}, errors.Wrap(err, "blockRepo.Status.Find")
	}

	var status model.BlockStatus
	for _, row := range rows {
		if row.BlockerID == a {
			status.HasBlocked = true
		}
		if row.BlockerID == b {
			status.IsBlocked = true
		}
	}
	return status, nil
}

func (r *BlockRepository) ListBlocked(ctx context.Context, blockerID string) ([]model.Block, error) {
	var rows []model.Block
	err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "blockRepo.ListBlocked.Find")
	}
	return rows, nil
}

type BanRepository struct {
	db *gorm.DB
}

func NewBanRepository(db *gorm.DB) *BanRepository {
	return &BanRepository{db: db}
}

func (r *BanRepository) Ban(ctx context.Context, userID, reason string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason"}),
		}).
		Create(&model.Ban{UserID: userID, Reason: reason}).Error
	if err != nil {
		return errors.Wrap(err, "banRepo.Ban.Create")
	}
	return nil
}

func (r *BanRepository) Unban(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Delete(&model.Ban{}, "user_id = ?", userID).Error; err != nil {
		return errors.Wrap(err, "banRepo.Unban")
	}
	return nil
}

// AnyBanned reports whether at least one of the users is banned.
func (r *BanRepository) AnyBanned(ctx context.Context, userIDs ...string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Ban{}).
		Where("user_id IN ?", userIDs).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "banRepo.AnyBanned.Count")
	}
	return n > 0, nil
}
