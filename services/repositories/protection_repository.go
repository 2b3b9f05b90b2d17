package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plateful-labs/plateful_api/model"
)

// ProtectionRepository owns the three abuse-protection counter entities.
// All counter mutations go through single-statement upserts so that
// concurrent requests can never read a stale count and both get admitted;
// the allow/deny decision is always derived from the post-increment value
// the database hands back.
type ProtectionRepository struct {
	BaseRepository
}

func NewProtectionRepository(db *gorm.DB) *ProtectionRepository {
	return &ProtectionRepository{BaseRepository: NewBaseRepository(db)}
}

// ==================== RATE LIMIT WINDOWS ====================

// IncrementWindow atomically bumps the counter for
// (ipAddress, endpoint, windowStart), but only while the stored count is
// below quota. It reports the post-increment count and whether the
// request fit inside the quota. When the window is already full the
// conditional upsert matches no row and nothing is written.
func (r *ProtectionRepository) IncrementWindow(ipAddress, endpoint string, windowStart time.Time, quota int) (int, bool, error) {
	id, _ := uuid.NewV7()
	now := time.Now()

	var count int
	res := r.db.Raw(`
		INSERT INTO rate_limit_windows (id, ip_address, endpoint, window_start, request_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (ip_address, endpoint, window_start)
		DO UPDATE SET request_count = rate_limit_windows.request_count + 1, updated_at = ?
		WHERE rate_limit_windows.request_count < ?
		RETURNING request_count`,
		id.String(), ipAddress, endpoint, windowStart, now, now, now, quota).Scan(&count)
	if res.Error != nil {
		return 0, false, res.Error
	}

	// No row returned means the DO UPDATE condition failed: window full.
	if res.RowsAffected == 0 {
		return quota, false, nil
	}

	return count, count <= quota, nil
}

func (r *ProtectionRepository) GetWindow(ipAddress, endpoint string, windowStart time.Time) (*model.RateLimitWindow, error) {
	var window model.RateLimitWindow
	err := r.db.Where("ip_address = ? AND endpoint = ? AND window_start = ?", ipAddress, endpoint, windowStart).
		First(&window).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &window, nil
}

// DeleteWindowsBefore drops windows that started before cutoff.
// Housekeeping only: stale windows stop matching the current key anyway.
func (r *ProtectionRepository) DeleteWindowsBefore(cutoff time.Time) error {
	return r.db.Where("window_start < ?", cutoff).Delete(&model.RateLimitWindow{}).Error
}

func (r *ProtectionRepository) DeleteWindows(ipAddress, endpoint string) error {
	return r.db.Where("ip_address = ? AND endpoint = ?", ipAddress, endpoint).
		Delete(&model.RateLimitWindow{}).Error
}

func (r *ProtectionRepository) CountWindowsSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.RateLimitWindow{}).Where("window_start >= ?", since).Count(&count).Error
	return count, err
}

// ==================== DAILY USAGE ====================

// AddUsage folds one completed paid request into the row for date,
// creating it if this is the first consumption of the day. Cost moves as
// integer micro-dollars so the accumulation is exact; the whole
// read-modify-write is a single upsert.
func (r *ProtectionRepository) AddUsage(date string, costMicros, tokensUsed int64) (*model.DailyUsage, error) {
	id, _ := uuid.NewV7()
	now := time.Now()

	var usage model.DailyUsage
	res := r.db.Raw(`
		INSERT INTO daily_usages (id, date, request_count, cost_micros, tokens_used, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT (date)
		DO UPDATE SET
			request_count = daily_usages.request_count + 1,
			cost_micros = daily_usages.cost_micros + excluded.cost_micros,
			tokens_used = daily_usages.tokens_used + excluded.tokens_used,
			updated_at = excluded.updated_at
		RETURNING id, date, request_count, cost_micros, tokens_used, created_at, updated_at`,
		id.String(), date, costMicros, tokensUsed, now, now).Scan(&usage)
	if res.Error != nil {
		return nil, res.Error
	}
	return &usage, nil
}

func (r *ProtectionRepository) GetUsage(date string) (*model.DailyUsage, error) {
	var usage model.DailyUsage
	err := r.db.Where("date = ?", date).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

func (r *ProtectionRepository) RecentUsage(limit int) ([]model.DailyUsage, error) {
	var rows []model.DailyUsage
	err := r.db.Order("date DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// ==================== BLOCKED IPS ====================

func (r *ProtectionRepository) GetBlockedIP(ipAddress string) (*model.BlockedIP, error) {
	var blocked model.BlockedIP
	err := r.db.Where("ip_address = ?", ipAddress).First(&blocked).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &blocked, nil
}

func (r *ProtectionRepository) UpsertBlockedIP(blocked *model.BlockedIP) error {
	if blocked.ID == "" {
		id, _ := uuid.NewV7()
		blocked.ID = id.String()
	}
	now := time.Now()
	if blocked.CreatedAt.IsZero() {
		blocked.CreatedAt = now
	}
	blocked.UpdatedAt = now

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason", "blocked_at", "blocked_until", "updated_at"}),
	}).Create(blocked).Error
}

func (r *ProtectionRepository) DeleteBlockedIP(ipAddress string) error {
	return r.db.Where("ip_address = ?", ipAddress).Delete(&model.BlockedIP{}).Error
}

func (r *ProtectionRepository) ListBlockedIPs() ([]model.BlockedIP, error) {
	var rows []model.BlockedIP
	err := r.db.Order("blocked_at DESC").Find(&rows).Error
	return rows, err
}

func (r *ProtectionRepository) CountActiveBlocks(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.BlockedIP{}).
		Where("blocked_until IS NULL OR blocked_until > ?", now).
		Count(&count).Error
	return count, err
}

func (r *ProtectionRepository) DeleteExpiredBlocks(now time.Time) error {
	return r.db.Where("blocked_until IS NOT NULL AND blocked_until < ?", now).
		Delete(&model.BlockedIP{}).Error
}
