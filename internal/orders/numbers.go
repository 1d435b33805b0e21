package orders

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pawpantry/storefront-api/pkg/redis"
)

const (
	sequenceName = "order_number"
	// sequences wrap at one million orders per day.
	sequenceModulo = 1_000_000
)

// NumberGenerator issues human-readable order numbers.
type NumberGenerator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// SequenceNumbers draws a per-day counter from Redis:
// PREFIX-YYYYMMDD-000042.
type SequenceNumbers struct {
	prefix string
	seq    redis.SequenceSource
	ttl    time.Duration
}

func NewSequenceNumbers(prefix string, seq redis.SequenceSource, ttl time.Duration) *SequenceNumbers {
	return &SequenceNumbers{prefix: normalizePrefix(prefix), seq: seq, ttl: ttl}
}

func (g *SequenceNumbers) Next(ctx context.Context, now time.Time) (string, error) {
	n, err := g.seq.NextDailySequence(ctx, sequenceName, now, g.ttl)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return formatNumber(g.prefix, now, n%sequenceModulo), nil
}

// RandomNumbers is used when Redis is not configured. Collisions are
// possible and surface as a unique violation on insert.
type RandomNumbers struct {
	prefix string
}

func NewRandomNumbers(prefix string) *RandomNumbers {
	return &RandomNumbers{prefix: normalizePrefix(prefix)}
}

func (g *RandomNumbers) Next(_ context.Context, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(sequenceModulo))
	if err != nil {
		return "", fmt.Errorf("random order number: %w", err)
	}
	return formatNumber(g.prefix, now, n.Int64()), nil
}

func formatNumber(prefix string, now time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, now.UTC().Format("20060102"), n)
}

func normalizePrefix(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return "ORD"
	}
	return prefix
}
