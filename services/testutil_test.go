package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful-labs/plateful_api/model"
	"github.com/plateful-labs/plateful_api/services/repositories"
)

// testSqlService backs the protection services with a throwaway sqlite
// database, one per test.
type testSqlService struct {
	db *gorm.DB
}

func (s *testSqlService) Db() *gorm.DB {
	return s.db
}

func (s *testSqlService) HandleError(err error) error {
	return err
}

func newTestSqlService(t *testing.T) *testSqlService {
	t.Helper()

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access underlying connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.RateLimitWindow{}, &model.DailyUsage{}, &model.BlockedIP{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return &testSqlService{db: db}
}

func newTestRateLimitService(sqlSvc *testSqlService, quota int) *RateLimitService {
	return &RateLimitService{
		requestsPerHour: quota,
		enabled:         true,
		sqlSvc:          sqlSvc,
		repo:            repositories.NewProtectionRepository(sqlSvc.db),
	}
}

func newTestBlocklistService(sqlSvc *testSqlService) *BlocklistService {
	return &BlocklistService{
		sqlSvc: sqlSvc,
		repo:   repositories.NewProtectionRepository(sqlSvc.db),
	}
}

func newTestBudgetService(sqlSvc *testSqlService, dailyBudget, costPerRequest string) *BudgetService {
	budget := decimal.RequireFromString(dailyBudget)
	threshold := decimal.RequireFromString(defaultAlertThreshold)

	return &BudgetService{
		dailyBudget:     budget,
		costPerRequest:  decimal.RequireFromString(costPerRequest),
		alertThreshold:  threshold,
		budgetMicros:    model.DollarsToMicros(budget),
		thresholdMicros: model.DollarsToMicros(budget.Mul(threshold)),
		sqlSvc:          sqlSvc,
		repo:            repositories.NewProtectionRepository(sqlSvc.db),
	}
}

func newTestGateService(blocklistSvc *BlocklistService, rateLimitSvc *RateLimitService, budgetSvc *BudgetService) *GateService {
	return &GateService{
		checks: []admissionCheck{
			&blocklistCheck{svc: blocklistSvc},
			&rateLimitCheck{svc: rateLimitSvc},
			&budgetCheck{svc: budgetSvc},
		},
		blocklistSvc: blocklistSvc,
		rateLimitSvc: rateLimitSvc,
		budgetSvc:    budgetSvc,
	}
}
