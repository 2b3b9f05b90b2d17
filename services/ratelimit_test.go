package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/plateful-labs/plateful_api/shared"
)

func TestRateLimitQuotaExhaustion(t *testing.T) {
	svc := newTestRateLimitService(newTestSqlService(t), 3)

	for i := 0; i < 3; i++ {
		info, err := svc.Check("203.0.113.10", shared.EndpointParse)
		if err != nil {
			t.Fatalf("check %d failed: %v", i+1, err)
		}
		if !info.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		wantRemaining := 3 - (i + 1)
		if info.Remaining != wantRemaining {
			t.Errorf("request %d: remaining = %d, want %d", i+1, info.Remaining, wantRemaining)
		}
	}

	info, err := svc.Check("203.0.113.10", shared.EndpointParse)
	if err != nil {
		t.Fatalf("check over quota failed: %v", err)
	}
	if info.Allowed {
		t.Fatal("request over quota should be denied")
	}
	if info.Remaining != 0 {
		t.Errorf("denied remaining = %d, want 0", info.Remaining)
	}
	if info.RetryAfterSeconds < 1 {
		t.Errorf("retry after = %d, want >= 1", info.RetryAfterSeconds)
	}
	if info.ResetTime == nil {
		t.Error("denied response should carry a reset time")
	}
}

func TestRateLimitDeniedRequestNotCounted(t *testing.T) {
	sqlSvc := newTestSqlService(t)
	svc := newTestRateLimitService(sqlSvc, 2)

	for i := 0; i < 5; i++ {
		if _, err := svc.Check("203.0.113.11", shared.EndpointParse); err != nil {
			t.Fatalf("check failed: %v", err)
		}
	}

	var count int
	err := sqlSvc.db.Raw(`SELECT request_count FROM rate_limit_windows WHERE ip_address = ?`, "203.0.113.11").
		Scan(&count).Error
	if err != nil {
		t.Fatalf("failed to read window: %v", err)
	}
	if count != 2 {
		t.Errorf("stored count = %d, want 2 (denied requests must not push past quota)", count)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	svc := &RateLimitService{requestsPerHour: 1, enabled: false}

	for i := 0; i < 10; i++ {
		info, err := svc.Check("203.0.113.12", shared.EndpointParse)
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if !info.Allowed {
			t.Fatal("disabled limiter should always allow")
		}
		if info.Remaining != disabledRemaining {
			t.Errorf("remaining = %d, want %d", info.Remaining, disabledRemaining)
		}
	}
}

func TestRateLimitAddressesIndependent(t *testing.T) {
	svc := newTestRateLimitService(newTestSqlService(t), 1)

	if info, _ := svc.Check("203.0.113.20", shared.EndpointParse); !info.Allowed {
		t.Fatal("first address should be allowed")
	}
	if info, _ := svc.Check("203.0.113.20", shared.EndpointParse); info.Allowed {
		t.Fatal("first address should be exhausted")
	}
	if info, _ := svc.Check("203.0.113.21", shared.EndpointParse); !info.Allowed {
		t.Fatal("second address must not share the first address's window")
	}
}

func TestRateLimitEndpointsIndependent(t *testing.T) {
	svc := newTestRateLimitService(newTestSqlService(t), 1)

	if info, _ := svc.Check("203.0.113.22", shared.EndpointParse); !info.Allowed {
		t.Fatal("parse endpoint should be allowed")
	}
	if info, _ := svc.Check("203.0.113.22", shared.EndpointAPI); !info.Allowed {
		t.Fatal("a different endpoint must have its own window")
	}
}

func TestRateLimitReset(t *testing.T) {
	svc := newTestRateLimitService(newTestSqlService(t), 1)

	if info, _ := svc.Check("203.0.113.30", shared.EndpointParse); !info.Allowed {
		t.Fatal("first request should be allowed")
	}
	if info, _ := svc.Check("203.0.113.30", shared.EndpointParse); info.Allowed {
		t.Fatal("second request should be denied")
	}

	if err := svc.Reset("203.0.113.30", shared.EndpointParse); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if info, _ := svc.Check("203.0.113.30", shared.EndpointParse); !info.Allowed {
		t.Fatal("request after reset should be allowed")
	}
}

// Concurrent requests race for the same window; the single conditional
// upsert must admit exactly quota of them.
func TestRateLimitConcurrent(t *testing.T) {
	const quota = 5
	const attempts = 50

	svc := newTestRateLimitService(newTestSqlService(t), quota)

	var wg sync.WaitGroup
	results := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := svc.Check("203.0.113.40", shared.EndpointParse)
			if err != nil {
				t.Errorf("concurrent check failed: %v", err)
				results <- false
				return
			}
			results <- info.Allowed
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	if allowed != quota {
		t.Errorf("allowed = %d, want exactly %d", allowed, quota)
	}
}

func TestRateLimitActiveWindows(t *testing.T) {
	svc := newTestRateLimitService(newTestSqlService(t), 10)

	for i := 0; i < 3; i++ {
		ip := fmt.Sprintf("203.0.113.%d", 50+i)
		if _, err := svc.Check(ip, shared.EndpointParse); err != nil {
			t.Fatalf("check failed: %v", err)
		}
	}

	windows, err := svc.ActiveWindows()
	if err != nil {
		t.Fatalf("active windows failed: %v", err)
	}
	if windows != 3 {
		t.Errorf("active windows = %d, want 3", windows)
	}
}
