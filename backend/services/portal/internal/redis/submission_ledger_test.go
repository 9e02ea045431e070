package redisstore

import (
	"testing"
	"time"
)

func TestLedgerKeys(t *testing.T) {
	if got := stateKey("abc"); got != "portal:submission:abc" {
		t.Fatalf("unexpected state key %q", got)
	}
	if got := utilityKey("abc"); got != "portal:submission:abc:utility" {
		t.Fatalf("unexpected utility key %q", got)
	}
}

func TestNewLedgerDefaultsTTL(t *testing.T) {
	if l := NewLedger(nil, 0); l.ttl != 10*time.Minute {
		t.Fatalf("expected default ttl, got %v", l.ttl)
	}
	if l := NewLedger(nil, time.Minute); l.ttl != time.Minute {
		t.Fatalf("expected configured ttl, got %v", l.ttl)
	}
}
