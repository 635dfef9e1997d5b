package repository

import (
	"context"

	"github.com/Top-Pesinde/backend-sub001/apperror"
	"github.com/Top-Pesinde/backend-sub001/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ? OR username = ?", user.Email, user.Username).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "userRepo.Create.Count")
	}
	if count > 0 {
		return apperror.Conflict("email or username is already registered")
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("email or username is already registered")
		}
		return errors.Wrap(err, "userRepo.Create")
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := new(model.User)
	if err := r.db.WithContext(ctx).First(user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user not found", "userRepo.FindByID.First")
	}
	return user, nil
}

func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "userRepo.Exists.Count")
	}
	return count > 0, nil
}

// FindByLogin looks the user up by email or username.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	user := new(model.User)
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", login, login).
		First(user).Error
	if err != nil {
		return nil, notFound(err, "user not found", "userRepo.FindByLogin.First")
	}
	return user, nil
}

func (r *UserRepository) SetOtp(ctx context.Context, id string, enabled bool, secret string) error {
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"otp_enabled": enabled, "otp_secret": secret}).Error
	if err != nil {
		return errors.Wrap(err, "userRepo.SetOtp.Updates")
	}
	return nil
}

// DisplayName returns the username used in push notification titles.
func (r *UserRepository) DisplayName(ctx context.Context, id string) (string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("username", &names).Error
	if err != nil {
		return "", errors.Wrap(err, "userRepo.DisplayName.Pluck")
	}
	if len(names) == 0 {
		return "", apperror.NotFound("user not found")
	}
	return names[0], nil
}
