package dto

import "time"

type BlockIPRequest struct {
	IPAddress string `json:"ip_address" validate:"required,ip"`
	Reason    string `json:"reason" validate:"required,max=500"`
	// DurationMinutes of 0 means a permanent block.
	DurationMinutes int `json:"duration_minutes" validate:"min=0"`
}

func (r BlockIPRequest) Validate() error {
	return GetValidator().Struct(r)
}

type BlockedIPResponse struct {
	IPAddress    string     `json:"ip_address"`
	Reason       string     `json:"reason"`
	BlockedAt    time.Time  `json:"blocked_at"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}
