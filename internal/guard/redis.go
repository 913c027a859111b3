// gpay-mock-upi/internal/guard/redis.go
package guard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard хранит записи о платежах в Redis. SET NX с TTL даёт и
// уникальность ключа, и автоматическое истечение - фоновая чистка не нужна.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, paymentID string) error {
	ok, err := g.rdb.SetNX(ctx, "paymentlock:"+paymentID, 1, g.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

var _ PaymentGuard = (*RedisGuard)(nil)
