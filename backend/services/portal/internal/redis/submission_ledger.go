package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"utilitypay/backend/services/portal/internal/service"
)

const (
	stateInFlight = "inflight"
	stateDone     = "done"
)

// Ledger is a redis-backed service.SubmissionLedger shared by portal replicas.
type Ledger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLedger returns redis-backed ledger.
func NewLedger(client *redis.Client, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Ledger{client: client, ttl: ttl}
}

func stateKey(token string) string {
	return fmt.Sprintf("portal:submission:%s", token)
}

func utilityKey(token string) string {
	return fmt.Sprintf("portal:submission:%s:utility", token)
}

// Acquire implements service.SubmissionLedger.
func (l *Ledger) Acquire(ctx context.Context, token string) (bool, error) {
	return l.client.SetNX(ctx, stateKey(token), stateInFlight, l.ttl).Result()
}

// Release implements service.SubmissionLedger.
func (l *Ledger) Release(ctx context.Context, token string) error {
	return l.client.Del(ctx, stateKey(token)).Err()
}

// Complete implements service.SubmissionLedger.
func (l *Ledger) Complete(ctx context.Context, token string) error {
	pipe := l.client.TxPipeline()
	pipe.Set(ctx, stateKey(token), stateDone, l.ttl)
	pipe.Del(ctx, utilityKey(token))
	_, err := pipe.Exec(ctx)
	return err
}

// SaveUtility implements service.SubmissionLedger.
func (l *Ledger) SaveUtility(ctx context.Context, token string, rec service.UtilityRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.client.Set(ctx, utilityKey(token), data, l.ttl).Err()
}

// Utility implements service.SubmissionLedger.
func (l *Ledger) Utility(ctx context.Context, token string) (*service.UtilityRecord, error) {
	result, err := l.client.Get(ctx, utilityKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec service.UtilityRecord
	if err := json.Unmarshal([]byte(result), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ service.SubmissionLedger = (*Ledger)(nil)
