package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostMicrosPerDollar is the fixed scale used to store money. Costs are
// persisted as integer micro-dollars so DB-side accumulation stays exact;
// decimals only appear at the API surface.
const CostMicrosPerDollar = 1_000_000

// DailyUsage aggregates the paid extraction spend for one server-local
// calendar date. Exactly one row per date; rows are never deleted so the
// history stays available for reporting.
type DailyUsage struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text;not null"`
	Date         string    `json:"date" gorm:"uniqueIndex;not null;size:10"` // YYYY-MM-DD
	RequestCount int64     `json:"request_count" gorm:"default:0;not null"`
	CostMicros   int64     `json:"cost_micros" gorm:"default:0;not null"`
	TokensUsed   int64     `json:"tokens_used" gorm:"default:0;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

func (DailyUsage) TableName() string {
	return "daily_usages"
}

// Cost returns the accumulated spend in dollars.
func (u *DailyUsage) Cost() decimal.Decimal {
	return decimal.New(u.CostMicros, -6)
}

// DollarsToMicros converts a dollar amount to the stored integer scale.
// Sub-micro-dollar fractions round half-up; every configured price the
// service deals in (tenths of a cent and up) converts exactly.
func DollarsToMicros(d decimal.Decimal) int64 {
	return d.Shift(6).Round(0).IntPart()
}
