package service

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(time.Minute)

	ok, _ := ledger.Acquire(ctx, "t1")
	if !ok {
		t.Fatalf("first acquire should succeed")
	}
	if ok, _ := ledger.Acquire(ctx, "t1"); ok {
		t.Fatalf("second acquire while in flight should fail")
	}

	_ = ledger.Release(ctx, "t1")
	if ok, _ := ledger.Acquire(ctx, "t1"); !ok {
		t.Fatalf("acquire after release should succeed")
	}

	_ = ledger.Complete(ctx, "t1")
	if ok, _ := ledger.Acquire(ctx, "t1"); ok {
		t.Fatalf("acquire after completion should fail")
	}
}

func TestMemoryLedgerRemembersUtilityAcrossRelease(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(time.Minute)

	_, _ = ledger.Acquire(ctx, "t2")
	_ = ledger.SaveUtility(ctx, "t2", UtilityRecord{UtilityID: "5", Fingerprint: "fp"})
	_ = ledger.Release(ctx, "t2")

	rec, err := ledger.Utility(ctx, "t2")
	if err != nil || rec == nil || rec.UtilityID != "5" {
		t.Fatalf("expected remembered utility, got %+v (%v)", rec, err)
	}

	_ = ledger.Complete(ctx, "t2")
	if rec, _ := ledger.Utility(ctx, "t2"); rec != nil {
		t.Fatalf("completion should forget the utility, got %+v", rec)
	}
}

func TestMemoryLedgerExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ledger := NewMemoryLedger(time.Minute)
	ledger.now = func() time.Time { return now }

	_, _ = ledger.Acquire(ctx, "t3")
	_ = ledger.Complete(ctx, "t3")

	now = now.Add(2 * time.Minute)
	if ok, _ := ledger.Acquire(ctx, "t3"); !ok {
		t.Fatalf("expired token should be acquirable again")
	}
}
