package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
	PlatformUnknown = "unknown"
)

// Session binds a signed token pair to a revocable row. SessionToken is the jti
// claim of both tokens.
type Session struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"not null;size:36;index" json:"userId"`
	SessionToken   string    `gorm:"not null;uniqueIndex" json:"-"`
	DeviceInfo     string    `json:"deviceInfo"`
	IPAddress      string    `json:"ipAddress"`
	Location       string    `json:"location"`
	Platform       string    `json:"platform"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expiresAt"`
	LastAccessedAt time.Time `gorm:"not null" json:"lastAccessedAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
