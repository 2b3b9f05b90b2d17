package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBudgetEmptyDayAllows(t *testing.T) {
	svc := newTestBudgetService(newTestSqlService(t), "5.00", "0.0015")

	allowed, msg, err := svc.CheckBudget()
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !allowed {
		t.Fatal("empty day should be under budget")
	}
	if msg != "" {
		t.Errorf("unexpected message %q", msg)
	}
}

// Repeated small default-cost increments must accumulate without any
// floating point drift.
func TestBudgetExactAccumulation(t *testing.T) {
	const n = 10000

	sqlSvc := newTestSqlService(t)
	svc := newTestBudgetService(sqlSvc, "5.00", "0.0015")

	for i := 0; i < n; i++ {
		if err := svc.RecordUsage(nil, 50); err != nil {
			t.Fatalf("record %d failed: %v", i+1, err)
		}
	}

	today := time.Now().Format(usageDateLayout)
	usage, err := svc.repo.GetUsage(today)
	if err != nil {
		t.Fatalf("failed to read usage: %v", err)
	}
	if usage == nil {
		t.Fatal("expected a usage row")
	}

	// n * $0.0015 = $15 exactly, no drift anywhere.
	if usage.CostMicros != n*1500 {
		t.Errorf("cost micros = %d, want %d", usage.CostMicros, n*1500)
	}
	if usage.RequestCount != n {
		t.Errorf("request count = %d, want %d", usage.RequestCount, n)
	}
	if usage.TokensUsed != n*50 {
		t.Errorf("tokens used = %d, want %d", usage.TokensUsed, n*50)
	}
	if got := usage.Cost().String(); got != "15" {
		t.Errorf("cost = %s, want 15", got)
	}
}

func TestBudgetExhaustion(t *testing.T) {
	svc := newTestBudgetService(newTestSqlService(t), "0.01", "0.005")

	for i := 0; i < 2; i++ {
		if err := svc.RecordUsage(nil, 10); err != nil {
			t.Fatalf("record failed: %v", err)
		}

		allowed, msg, err := svc.CheckBudget()
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}

		if i == 0 {
			if !allowed {
				t.Fatal("half-spent budget should still allow")
			}
			continue
		}

		if allowed {
			t.Fatal("spent budget should deny")
		}
		want := "Daily API budget of $0.01 exceeded. Please try again tomorrow."
		if msg != want {
			t.Errorf("message = %q, want %q", msg, want)
		}
	}
}

func TestBudgetThresholdDoesNotDeny(t *testing.T) {
	svc := newTestBudgetService(newTestSqlService(t), "1.00", "0.85")

	// One request lands at 85%, past the 80% alert threshold but under
	// the ceiling.
	if err := svc.RecordUsage(nil, 10); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	allowed, msg, err := svc.CheckBudget()
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !allowed {
		t.Fatal("crossing the alert threshold must not deny")
	}
	if msg != "" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestBudgetCustomCostEstimate(t *testing.T) {
	svc := newTestBudgetService(newTestSqlService(t), "5.00", "0.0015")

	est := decimal.RequireFromString("0.0042")
	if err := svc.RecordUsage(&est, 120); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	today := time.Now().Format(usageDateLayout)
	usage, err := svc.repo.GetUsage(today)
	if err != nil {
		t.Fatalf("failed to read usage: %v", err)
	}
	if usage.CostMicros != 4200 {
		t.Errorf("cost micros = %d, want 4200", usage.CostMicros)
	}
}

func TestBudgetUsageStats(t *testing.T) {
	svc := newTestBudgetService(newTestSqlService(t), "5.00", "0.0015")

	for i := 0; i < 4; i++ {
		if err := svc.RecordUsage(nil, 25); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	stats, err := svc.GetUsageStats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	today := time.Now().Format(usageDateLayout)
	if stats.Today.Date != today {
		t.Errorf("today = %q, want %q", stats.Today.Date, today)
	}
	if stats.Today.RequestCount != 4 {
		t.Errorf("request count = %d, want 4", stats.Today.RequestCount)
	}
	if stats.Today.Cost != "0.0060" {
		t.Errorf("cost = %q, want %q", stats.Today.Cost, "0.0060")
	}
	if stats.DailyBudget != "5.00" {
		t.Errorf("daily budget = %q, want %q", stats.DailyBudget, "5.00")
	}
	if !strings.HasPrefix(stats.BudgetUsed, "0.1") {
		t.Errorf("budget used = %q, want ~0.1%%", stats.BudgetUsed)
	}
	if len(stats.Recent) != 1 {
		t.Errorf("recent rows = %d, want 1", len(stats.Recent))
	}
}

func TestBudgetStatsEmptyDay(t *testing.T) {
	svc := newTestBudgetService(newTestSqlService(t), "5.00", "0.0015")

	stats, err := svc.GetUsageStats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Today.RequestCount != 0 {
		t.Errorf("request count = %d, want 0", stats.Today.RequestCount)
	}
	if stats.BudgetUsed != "0.0" {
		t.Errorf("budget used = %q, want %q", stats.BudgetUsed, "0.0")
	}
}
