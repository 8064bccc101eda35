package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/adpricing/internal/config"
)

const (
	keyQuoteClient   = "adpricing:quote:client:%s"
	keyPublishConfig = "adpricing:publish:lock:%s"
)

var ErrPublishInProgress = errors.New("publish_in_progress")

// PricingGuard throttles public quotes per client and serializes publishes per
// config across instances. A guard without redis allows everything.
type PricingGuard struct {
	bucket *TokenBucket
	mutex  *mutex

	quoteEnabled bool
	quoteRate    float64
	quoteBurst   int
	lockTTL      time.Duration
}

func NewPricingGuard(cfg config.Config, client *redis.Client) (*PricingGuard, error) {
	limitCfg := cfg.RateLimit
	guard := &PricingGuard{
		bucket:     NewTokenBucket(client),
		mutex:      newMutex(client),
		quoteRate:  limitCfg.QuoteRate,
		quoteBurst: limitCfg.QuoteBurst,
		lockTTL:    time.Duration(limitCfg.PublishLockTTLSeconds) * time.Second,
	}
	if guard.lockTTL <= 0 {
		guard.lockTTL = 10 * time.Second
	}
	if limitCfg.Enabled {
		if client == nil {
			return nil, errors.New("rate limit requires redis to be enabled")
		}
		if limitCfg.QuoteRate <= 0 || limitCfg.QuoteBurst <= 0 {
			return nil, errors.New("quote rate limit must be positive")
		}
		guard.quoteEnabled = true
	}
	return guard, nil
}

func (g *PricingGuard) AllowQuote(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if g == nil || !g.quoteEnabled {
		return &RateLimitResult{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "anonymous"
	}
	return g.bucket.Allow(ctx, fmt.Sprintf(keyQuoteClient, clientKey), g.quoteRate, g.quoteBurst)
}

// LockPublish takes the cross-instance publish lock for a config. The returned
// release func is always non-nil.
func (g *PricingGuard) LockPublish(ctx context.Context, configID string) (func(), error) {
	noop := func() {}
	if g == nil || g.mutex == nil {
		return noop, nil
	}
	key := fmt.Sprintf(keyPublishConfig, strings.TrimSpace(configID))
	token, ok, err := g.mutex.acquire(ctx, key, g.lockTTL)
	if err != nil {
		return noop, err
	}
	if !ok {
		return noop, ErrPublishInProgress
	}
	return func() {
		_ = g.mutex.release(context.WithoutCancel(ctx), key, token)
	}, nil
}
