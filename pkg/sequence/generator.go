package sequence

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"bountyhub/pkg/rediskey"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

const SettlementPrefix = "STL"

type Generator interface {
	NextSettlementCode(ctx context.Context) (string, error)
}

// Counter hands out a monotonically increasing number per key.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type redisCounter struct {
	rdb *redis.Client
}

func (c *redisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	seq, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if seq == 1 && ttl > 0 {
		_ = c.rdb.Expire(ctx, key, ttl).Err()
	}
	return seq, nil
}

type DailyGenerator struct {
	counter Counter
	clock   clockwork.Clock
}

type Params struct {
	fx.In

	Redis *redis.Client
	Clock clockwork.Clock `optional:"true"`
}

func NewRedisGenerator(p Params) Generator {
	return NewDailyGenerator(&redisCounter{rdb: p.Redis}, p.Clock)
}

func NewDailyGenerator(counter Counter, clock clockwork.Clock) *DailyGenerator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DailyGenerator{counter: counter, clock: clock}
}

// NextSettlementCode returns codes like STL-261018-00AK7.
func (g *DailyGenerator) NextSettlementCode(ctx context.Context) (string, error) {
	return g.nextDailyCode(ctx, SettlementPrefix)
}

func (g *DailyGenerator) nextDailyCode(ctx context.Context, prefix string) (string, error) {
	now := g.clock.Now().UTC()
	today := now.Format("060102")
	key := rediskey.BuildDailySequenceKey(prefix, today)

	endOfDay := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	seq, err := g.counter.Incr(ctx, key, endOfDay.Sub(now))
	if err != nil {
		return "", fmt.Errorf("next %s sequence: %w", prefix, err)
	}

	suffix, err := randomAlphaNumeric(2)
	if err != nil {
		return "", err
	}

	return FormatCode(prefix, today, seq, suffix), nil
}

// FormatCode renders seq in upper-case base36, left padded to three digits.
func FormatCode(prefix, day string, seq int64, suffix string) string {
	encoded := strings.ToUpper(strconv.FormatInt(seq, 36))
	if len(encoded) < 3 {
		encoded = strings.Repeat("0", 3-len(encoded)) + encoded
	}
	return fmt.Sprintf("%s-%s-%s%s", prefix, day, encoded, suffix)
}

func randomAlphaNumeric(n int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b[i] = chars[num.Int64()]
	}
	return string(b), nil
}
