package service

import (
	"context"
	"sync"
	"time"
)

// UtilityRecord remembers a utility created for a submission whose bill step failed.
type UtilityRecord struct {
	UtilityID   string `json:"utility_id"`
	Fingerprint string `json:"fingerprint"`
}

// SubmissionLedger tracks enrollment submissions by form token.
type SubmissionLedger interface {
	// Acquire marks token in flight; false means it is in flight or already completed.
	Acquire(ctx context.Context, token string) (bool, error)
	// Release frees an in-flight token so the form can be submitted again.
	Release(ctx context.Context, token string) error
	// Complete marks token as finished; later Acquire calls fail until it expires.
	Complete(ctx context.Context, token string) error
	SaveUtility(ctx context.Context, token string, rec UtilityRecord) error
	// Utility returns the remembered record or nil.
	Utility(ctx context.Context, token string) (*UtilityRecord, error)
}

type memoryEntry struct {
	inFlight  bool
	completed bool
	utility   *UtilityRecord
	expiresAt time.Time
}

// MemoryLedger is the in-process SubmissionLedger.
type MemoryLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*memoryEntry
}

// NewMemoryLedger returns a ledger whose entries expire after ttl.
func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryLedger{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

// entry returns the live entry for token, dropping expired ones. Caller holds mu.
func (l *MemoryLedger) entry(token string) *memoryEntry {
	e, ok := l.entries[token]
	if !ok {
		return nil
	}
	if l.now().After(e.expiresAt) {
		delete(l.entries, token)
		return nil
	}
	return e
}

func (l *MemoryLedger) touch(token string) *memoryEntry {
	e := l.entry(token)
	if e == nil {
		e = &memoryEntry{}
		l.entries[token] = e
	}
	e.expiresAt = l.now().Add(l.ttl)
	return e
}

// Acquire implements SubmissionLedger.
func (l *MemoryLedger) Acquire(_ context.Context, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e := l.entry(token); e != nil && (e.inFlight || e.completed) {
		return false, nil
	}
	l.touch(token).inFlight = true
	return true, nil
}

// Release implements SubmissionLedger.
func (l *MemoryLedger) Release(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e := l.entry(token); e != nil {
		e.inFlight = false
		if e.utility == nil && !e.completed {
			delete(l.entries, token)
		}
	}
	return nil
}

// Complete implements SubmissionLedger.
func (l *MemoryLedger) Complete(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.touch(token)
	e.inFlight = false
	e.completed = true
	e.utility = nil
	return nil
}

// SaveUtility implements SubmissionLedger.
func (l *MemoryLedger) SaveUtility(_ context.Context, token string, rec UtilityRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	saved := rec
	l.touch(token).utility = &saved
	return nil
}

// Utility implements SubmissionLedger.
func (l *MemoryLedger) Utility(_ context.Context, token string) (*UtilityRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entry(token)
	if e == nil || e.utility == nil {
		return nil, nil
	}
	rec := *e.utility
	return &rec, nil
}
