package services

import (
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/plateful-labs/plateful_api/dto"
	"github.com/plateful-labs/plateful_api/services/repositories"
)

// RateLimitService enforces a fixed-window hourly quota per
// (address, endpoint). Windows reset at the top of each clock hour, which
// lets a burst straddle a boundary for up to twice the quota; that is the
// accepted trade-off of fixed windows, not a bug. Check-and-increment is
// a single conditional upsert, so concurrent requests cannot race past
// the quota.
type RateLimitService struct {
	context.DefaultService

	requestsPerHour int
	enabled         bool

	sqlSvc SqlService
	repo   *repositories.ProtectionRepository
}

const RATE_LIMIT_SVC = "rate_limit_svc"

const (
	defaultRequestsPerHour = 20
	rateLimitWindow        = time.Hour

	// disabledRemaining is reported when the kill switch is off.
	disabledRemaining = 999
)

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.requestsPerHour = defaultRequestsPerHour
	if v := os.Getenv("REQUESTS_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			svc.requestsPerHour = n
		} else {
			log.Printf("Invalid REQUESTS_PER_HOUR %q, using default %d", v, defaultRequestsPerHour)
		}
	}

	svc.enabled = true
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			svc.enabled = b
		}
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.sqlSvc = svc.Service(SqlServiceID()).(SqlService)
	svc.repo = repositories.NewProtectionRepository(svc.sqlSvc.Db())

	go svc.startCleanupJob()

	return nil
}

func (svc *RateLimitService) Quota() int {
	return svc.requestsPerHour
}

func (svc *RateLimitService) Enabled() bool {
	return svc.enabled
}

// Check admits or denies one request for the address on the endpoint and
// counts it in the current hourly window. The decision comes from the
// post-increment count the store returns, never from a separate read.
func (svc *RateLimitService) Check(ipAddress, endpoint string) (*dto.RateLimitInfo, error) {
	if !svc.enabled {
		return &dto.RateLimitInfo{
			Allowed:   true,
			Remaining: disabledRemaining,
		}, nil
	}

	now := time.Now()
	windowStart := now.Truncate(rateLimitWindow)

	// Housekeeping: stale windows stop matching the current key either
	// way, this just keeps the table from growing unbounded.
	if err := svc.repo.DeleteWindowsBefore(now.Add(-rateLimitWindow)); err != nil {
		log.WithFields(log.Fields{"error": err.Error()}).Warn("Rate limit window cleanup failed")
	}

	count, allowed, err := svc.repo.IncrementWindow(ipAddress, endpoint, windowStart, svc.requestsPerHour)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	resetTime := windowStart.Add(rateLimitWindow)
	if !allowed {
		retryAfter := int(time.Until(resetTime).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &dto.RateLimitInfo{
			Allowed:           false,
			Remaining:         0,
			RetryAfterSeconds: retryAfter,
			ResetTime:         &resetTime,
		}, nil
	}

	return &dto.RateLimitInfo{
		Allowed:   true,
		Remaining: svc.requestsPerHour - count,
		ResetTime: &resetTime,
	}, nil
}

// Reset clears all windows for the pair, freeing the address immediately.
func (svc *RateLimitService) Reset(ipAddress, endpoint string) error {
	if err := svc.repo.DeleteWindows(ipAddress, endpoint); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

func (svc *RateLimitService) ActiveWindows() (int64, error) {
	return svc.repo.CountWindowsSince(time.Now().Add(-rateLimitWindow))
}

func (svc *RateLimitService) CleanupOldRecords() error {
	return svc.repo.DeleteWindowsBefore(time.Now().Add(-rateLimitWindow))
}

func (svc *RateLimitService) startCleanupJob() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := svc.CleanupOldRecords(); err != nil {
			log.Printf("Rate limit cleanup error: %v", err)
		}
	}
}
