package model

import "time"

// BlockedIP is a deny-list entry for a client address. A nil BlockedUntil
// means the block is permanent; an expired entry is purged lazily on the
// next lookup rather than by a background sweep.
type BlockedIP struct {
	ID           string     `json:"id" gorm:"primaryKey;type:text;not null"`
	IPAddress    string     `json:"ip_address" gorm:"uniqueIndex;not null;size:45"`
	Reason       string     `json:"reason" gorm:"type:text"`
	BlockedAt    time.Time  `json:"blocked_at" gorm:"not null"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty" gorm:"index"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"not null"`
}

func (BlockedIP) TableName() string {
	return "blocked_ips"
}

// Expired reports whether a temporary block has lapsed.
func (b *BlockedIP) Expired(now time.Time) bool {
	return b.BlockedUntil != nil && now.After(*b.BlockedUntil)
}
