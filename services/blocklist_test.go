package services

import (
	"testing"
	"time"
)

func TestBlocklistPermanentBlock(t *testing.T) {
	svc := newTestBlocklistService(newTestSqlService(t))

	entry, err := svc.Block("198.51.100.1", "abuse", nil)
	if err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if entry.BlockedUntil != nil {
		t.Error("permanent block should have no expiry")
	}

	blocked, err := svc.IsBlocked("198.51.100.1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !blocked {
		t.Fatal("address should be blocked")
	}

	if err := svc.Unblock("198.51.100.1"); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if blocked, _ = svc.IsBlocked("198.51.100.1"); blocked {
		t.Fatal("address should be free after unblock")
	}
}

func TestBlocklistUnknownAddress(t *testing.T) {
	svc := newTestBlocklistService(newTestSqlService(t))

	blocked, err := svc.IsBlocked("198.51.100.2")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if blocked {
		t.Fatal("unknown address must not be blocked")
	}
}

// A lapsed temporary block is purged by the lookup that discovers it.
func TestBlocklistLazyExpiry(t *testing.T) {
	sqlSvc := newTestSqlService(t)
	svc := newTestBlocklistService(sqlSvc)

	past := -time.Minute
	if _, err := svc.Block("198.51.100.3", "scraping", &past); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	blocked, err := svc.IsBlocked("198.51.100.3")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if blocked {
		t.Fatal("lapsed block should not deny")
	}

	entry, err := svc.repo.GetBlockedIP("198.51.100.3")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if entry != nil {
		t.Error("lapsed entry should be deleted on lookup")
	}
}

func TestBlocklistTemporaryStillActive(t *testing.T) {
	svc := newTestBlocklistService(newTestSqlService(t))

	d := time.Hour
	if _, err := svc.Block("198.51.100.4", "burst", &d); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	blocked, err := svc.IsBlocked("198.51.100.4")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !blocked {
		t.Fatal("unexpired temporary block should deny")
	}
}

func TestBlocklistReblockRefreshes(t *testing.T) {
	svc := newTestBlocklistService(newTestSqlService(t))

	d := time.Minute
	if _, err := svc.Block("198.51.100.5", "first", &d); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if _, err := svc.Block("198.51.100.5", "second", nil); err != nil {
		t.Fatalf("reblock failed: %v", err)
	}

	entry, err := svc.repo.GetBlockedIP("198.51.100.5")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if entry.Reason != "second" {
		t.Errorf("reason = %q, want %q", entry.Reason, "second")
	}
	if entry.BlockedUntil != nil {
		t.Error("reblock without duration should make the block permanent")
	}
}

func TestBlocklistCountAndCleanup(t *testing.T) {
	svc := newTestBlocklistService(newTestSqlService(t))

	past := -time.Minute
	if _, err := svc.Block("198.51.100.6", "lapsed", &past); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if _, err := svc.Block("198.51.100.7", "forever", nil); err != nil {
		t.Fatalf("block failed: %v", err)
	}

	count, err := svc.ActiveCount()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("active count = %d, want 1", count)
	}

	if err := svc.CleanupExpired(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	entries, err := svc.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].IPAddress != "198.51.100.7" {
		t.Errorf("surviving entry = %q, want %q", entries[0].IPAddress, "198.51.100.7")
	}
}
