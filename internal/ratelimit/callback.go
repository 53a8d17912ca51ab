package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/shegerhomes/gebeya/internal/config"
)

const keyPaymentCallback = "payment:callback:%s"

// CallbackLimiter throttles the public payment callback endpoint per
// provider. Without a redis address it stays disabled and every request
// passes.
type CallbackLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewCallbackLimiter(cfg config.Config) *CallbackLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	if cfg.Payment.CallbackRatePerSec <= 0 || cfg.Payment.CallbackBurst <= 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &CallbackLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.Payment.CallbackRatePerSec,
		burst:   cfg.Payment.CallbackBurst,
	}
}

func (l *CallbackLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CallbackLimiter) AllowProvider(ctx context.Context, provider string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	key := fmt.Sprintf(keyPaymentCallback, strings.ToLower(strings.TrimSpace(provider)))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
