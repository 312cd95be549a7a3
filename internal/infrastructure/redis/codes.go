package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/securescan-api/internal/domain"
)

const keyPrefix = "otp:pending:"

// codeRecord is the hash layout of a pending code.
type codeRecord struct {
	Identity    string `redis:"identity"`
	IssuanceID  string `redis:"issuance_id"`
	Code        int    `redis:"code"`
	ExpiresAtMS int64  `redis:"expires_at_ms"`
}

// CodeStore keeps pending codes as redis hashes that expire on their own at
// ExpiresAt, so abandoned codes never accumulate.
type CodeStore struct {
	client goredis.UniversalClient
}

func NewCodeStore(client goredis.UniversalClient) *CodeStore {
	return &CodeStore{client: client}
}

func key(identity string) string { return keyPrefix + identity }

func (s *CodeStore) Get(ctx context.Context, identity string) (*domain.PendingCode, error) {
	cmd := s.client.HGetAll(ctx, key(identity))
	vals, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall pending code: %w", err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("pending code not found: %w", domain.ErrNotFound)
	}
	var rec codeRecord
	if err := cmd.Scan(&rec); err != nil {
		return nil, fmt.Errorf("decode pending code: %w", err)
	}
	return &domain.PendingCode{
		Identity:   rec.Identity,
		IssuanceID: rec.IssuanceID,
		Code:       rec.Code,
		ExpiresAt:  time.UnixMilli(rec.ExpiresAtMS),
	}, nil
}

// Put replaces any record for the identity and sets its expiry in one MULTI/EXEC.
func (s *CodeStore) Put(ctx context.Context, pc *domain.PendingCode) error {
	k := key(pc.Identity)
	rec := codeRecord{
		Identity:    pc.Identity,
		IssuanceID:  pc.IssuanceID,
		Code:        pc.Code,
		ExpiresAtMS: pc.ExpiresAt.UnixMilli(),
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, rec)
		pipe.PExpireAt(ctx, k, pc.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store pending code: %w", err)
	}
	return nil
}

func (s *CodeStore) Delete(ctx context.Context, identity string) error {
	if err := s.client.Del(ctx, key(identity)).Err(); err != nil {
		return fmt.Errorf("delete pending code: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *CodeStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
