package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttler is the write cool-down store.
type Throttler interface {
	Enabled() bool
	IsThrottled(ctx context.Context, tokenHash, action string) (bool, error)
	RecordSuccess(ctx context.Context, tokenHash, action string, window time.Duration) error
}

// ThrottleService keeps the last successful write of each token in redis,
// expiring after the configured delay.
type ThrottleService struct {
	rdb     redis.Cmdable
	enabled bool
}

func NewThrottleService(rdb redis.Cmdable, enabled bool) *ThrottleService {
	return &ThrottleService{rdb: rdb, enabled: enabled}
}

// HashToken returns the hex sha256 of a client token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func ThrottleKey(action, tokenHash string) string {
	return fmt.Sprintf("throttle:%s:%s", action, tokenHash)
}

func (s *ThrottleService) Enabled() bool {
	return s != nil && s.enabled && s.rdb != nil
}

func (s *ThrottleService) IsThrottled(ctx context.Context, tokenHash, action string) (bool, error) {
	n, err := s.rdb.Exists(ctx, ThrottleKey(action, tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("check throttle: %w", err)
	}
	return n > 0, nil
}

// RecordSuccess starts the cool-down window. A non-positive window disables it.
func (s *ThrottleService) RecordSuccess(ctx context.Context, tokenHash, action string, window time.Duration) error {
	if window <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, ThrottleKey(action, tokenHash), time.Now().Unix(), window).Err(); err != nil {
		return fmt.Errorf("record throttle: %w", err)
	}
	return nil
}
