package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCouponTTL = 24 * time.Hour

// CouponGuard claims coupon codes before they reach the store so concurrent
// redemptions of the same code are cut short early.
// Key format: coupon:<code>
type CouponGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCouponGuard creates a CouponGuard wrapping the given Redis client.
func NewCouponGuard(client *redis.Client, ttl time.Duration) *CouponGuard {
	if ttl <= 0 {
		ttl = defaultCouponTTL
	}
	return &CouponGuard{client: client, ttl: ttl}
}

// Claim reports whether this call took the coupon. A false result means
// another redemption already holds it.
func (g *CouponGuard) Claim(ctx context.Context, code string) (bool, error) {
	ok, err := g.client.SetNX(ctx, key(code), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("coupon claim: %w", err)
	}
	return ok, nil
}

// Release drops a claim whose redemption was not stored.
func (g *CouponGuard) Release(ctx context.Context, code string) error {
	if err := g.client.Del(ctx, key(code)).Err(); err != nil {
		return fmt.Errorf("coupon release: %w", err)
	}
	return nil
}

func key(code string) string {
	return "coupon:" + code
}
