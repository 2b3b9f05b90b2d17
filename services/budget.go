package services

import (
	"context"
	"fmt"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/plateful-labs/plateful_api/dto"
	"github.com/plateful-labs/plateful_api/model"
	"github.com/plateful-labs/plateful_api/services/repositories"
)

// BudgetService tracks the shared daily spend of the paid extraction call
// and hard-stops admissions once the ceiling is reached. Costs are exact:
// decimals at the edges, integer micro-dollars in the store, so ten
// thousand small increments add up to precisely ten thousand times the
// increment.
type BudgetService struct {
	appContext.DefaultService

	dailyBudget    decimal.Decimal
	costPerRequest decimal.Decimal
	alertThreshold decimal.Decimal

	budgetMicros    int64
	thresholdMicros int64

	sqlSvc   SqlService
	repo     *repositories.ProtectionRepository
	redisSvc *RedisService
}

const BUDGET_SVC = "budget_svc"

const (
	defaultDailyBudget    = "5.00"
	defaultCostPerRequest = "0.0015"
	defaultAlertThreshold = "0.8"

	usageStatsCacheKey = "plateful:usage_stats"
	usageStatsCacheTTL = 30 * time.Second

	usageDateLayout = "2006-01-02"
)

func (svc BudgetService) Id() string {
	return BUDGET_SVC
}

func (svc *BudgetService) Configure(ctx *appContext.Context) error {
	svc.dailyBudget = envDecimal("DAILY_BUDGET_USD", defaultDailyBudget)
	svc.costPerRequest = envDecimal("COST_PER_REQUEST", defaultCostPerRequest)
	svc.alertThreshold = envDecimal("BUDGET_ALERT_THRESHOLD", defaultAlertThreshold)

	svc.budgetMicros = model.DollarsToMicros(svc.dailyBudget)
	svc.thresholdMicros = model.DollarsToMicros(svc.dailyBudget.Mul(svc.alertThreshold))

	return svc.DefaultService.Configure(ctx)
}

func (svc *BudgetService) Start() error {
	svc.sqlSvc = svc.Service(SqlServiceID()).(SqlService)
	svc.repo = repositories.NewProtectionRepository(svc.sqlSvc.Db())

	if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok {
		svc.redisSvc = redisSvc
	}

	return nil
}

func envDecimal(key, fallback string) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Invalid %s %q, using default %s", key, raw, fallback)
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

// CheckBudget reports whether today's aggregate spend still fits under
// the daily ceiling. Crossing the alert threshold logs a warning and
// bumps the alert metric but does not deny. A store failure is returned
// as an error so the caller fails closed.
func (svc *BudgetService) CheckBudget() (bool, string, error) {
	today := time.Now().Format(usageDateLayout)

	usage, err := svc.repo.GetUsage(today)
	if err != nil {
		return false, "", svc.sqlSvc.HandleError(err)
	}
	if usage == nil {
		return true, "", nil
	}

	if usage.CostMicros >= svc.budgetMicros {
		msg := fmt.Sprintf("Daily API budget of $%s exceeded. Please try again tomorrow.",
			svc.dailyBudget.StringFixed(2))
		return false, msg, nil
	}

	if usage.CostMicros >= svc.thresholdMicros {
		budgetAlertsTotal.Inc()
		log.WithFields(log.Fields{
			"spent":  usage.Cost().StringFixed(4),
			"budget": svc.dailyBudget.StringFixed(2),
		}).Warn("Approaching daily budget")
	}

	return true, "", nil
}

// RecordUsage folds one successful paid request into today's row. Called
// only after the downstream call succeeds; a nil costEstimate falls back
// to the configured per-request cost.
func (svc *BudgetService) RecordUsage(costEstimate *decimal.Decimal, tokensUsed int) error {
	cost := svc.costPerRequest
	if costEstimate != nil {
		cost = *costEstimate
	}

	today := time.Now().Format(usageDateLayout)
	usage, err := svc.repo.AddUsage(today, model.DollarsToMicros(cost), int64(tokensUsed))
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}

	budgetSpendDollars.Set(usage.Cost().InexactFloat64())
	svc.invalidateStatsCache()

	return nil
}

func (svc *BudgetService) DailyBudget() decimal.Decimal {
	return svc.dailyBudget
}

// GetUsageStats assembles the admin usage report: today's row plus the
// last week of history. Served from a short-lived redis cache when one is
// configured; the cache never sits on the admission path.
func (svc *BudgetService) GetUsageStats() (*dto.UsageStatsResponse, error) {
	ctx := context.Background()

	if svc.cacheEnabled() {
		var cached dto.UsageStatsResponse
		if err := svc.redisSvc.GetJSON(ctx, usageStatsCacheKey, &cached); err == nil && cached.Today.Date != "" {
			return &cached, nil
		}
	}

	today := time.Now().Format(usageDateLayout)
	usage, err := svc.repo.GetUsage(today)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	stats := &dto.UsageStatsResponse{
		Today: dto.DailyUsageResponse{
			Date: today,
			Cost: decimal.Zero.StringFixed(4),
		},
		DailyBudget: svc.dailyBudget.StringFixed(2),
		BudgetUsed:  "0.0",
	}
	if usage != nil {
		stats.Today = usageToResponse(usage)
		if svc.budgetMicros > 0 {
			used := usage.Cost().Div(svc.dailyBudget).Mul(decimal.NewFromInt(100))
			stats.BudgetUsed = used.StringFixed(1)
		}
	}

	recent, err := svc.repo.RecentUsage(7)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	for i := range recent {
		stats.Recent = append(stats.Recent, usageToResponse(&recent[i]))
	}

	if svc.cacheEnabled() {
		if err := svc.redisSvc.Set(ctx, usageStatsCacheKey, stats, usageStatsCacheTTL); err != nil {
			log.WithFields(log.Fields{"error": err.Error()}).Debug("Usage stats cache write failed")
		}
	}

	return stats, nil
}

func (svc *BudgetService) cacheEnabled() bool {
	return svc.redisSvc != nil && svc.redisSvc.GetClient() != nil
}

func (svc *BudgetService) invalidateStatsCache() {
	if !svc.cacheEnabled() {
		return
	}
	if err := svc.redisSvc.Delete(context.Background(), usageStatsCacheKey); err != nil {
		log.WithFields(log.Fields{"error": err.Error()}).Debug("Usage stats cache invalidation failed")
	}
}

func usageToResponse(usage *model.DailyUsage) dto.DailyUsageResponse {
	return dto.DailyUsageResponse{
		Date:         usage.Date,
		RequestCount: usage.RequestCount,
		Cost:         usage.Cost().StringFixed(4),
		TokensUsed:   usage.TokensUsed,
	}
}
