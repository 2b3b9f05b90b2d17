package model

import "time"

// RateLimitWindow is one fixed hourly counting window for a client
// address on a given endpoint. Uniquely keyed by
// (ip_address, endpoint, window_start); the count is only ever moved by
// the atomic upsert in ProtectionRepository.
type RateLimitWindow struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text;not null"`
	IPAddress    string    `json:"ip_address" gorm:"not null;size:45;uniqueIndex:idx_window_key"`
	Endpoint     string    `json:"endpoint" gorm:"not null;size:100;uniqueIndex:idx_window_key"`
	WindowStart  time.Time `json:"window_start" gorm:"not null;uniqueIndex:idx_window_key"`
	RequestCount int       `json:"request_count" gorm:"default:0;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

func (RateLimitWindow) TableName() string {
	return "rate_limit_windows"
}
