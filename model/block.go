package model

import "time"

// Block is directional: BlockerID blocks BlockedID.
type Block struct {
	BlockerID string    `gorm:"primaryKey;size:36" json:"blockerId"`
	BlockedID string    `gorm:"primaryKey;size:36" json:"blockedId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlockStatus is computed from both directions independently, both flags may
// be set at once.
type BlockStatus struct {
	IsBlocked  bool `json:"isBlocked"`
	HasBlocked bool `json:"hasBlocked"`
}
