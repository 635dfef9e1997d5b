package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User struct
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `json:"role"`

	OtpEnabled bool   `gorm:"default:false" json:"otpEnabled"`
	OtpSecret  string `json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Ban marks an account as administratively banned from messaging.
type Ban struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"userId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}
