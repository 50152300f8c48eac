// Package ledger holds usage ledgers that live outside the primary store.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

const (
	usageKeyPrefix = "quotagate:usage:"
	countPrefix    = "c:"
	updatedPrefix  = "t:"
)

// incrementBelowScript increments the count field only while it is below
// ARGV[3] and returns {count, admitted}.
var incrementBelowScript = redis.NewScript(`
local c = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
if c >= tonumber(ARGV[3]) then
  return {c, 0}
end
c = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
redis.call('HSET', KEYS[1], ARGV[2], ARGV[4])
return {c, 1}
`)

var _ usage.Ledger = (*RedisLedger)(nil)

// RedisLedger keeps one hash per user. Each endpoint owns a count field and
// a last-updated field holding unix nanoseconds.
type RedisLedger struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisLedger(client *redis.Client, logger logger.Interface) *RedisLedger {
	return &RedisLedger{
		client: client,
		logger: logger,
	}
}

func (l *RedisLedger) key(userID string) string {
	return usageKeyPrefix + userID
}

func (l *RedisLedger) GetCount(ctx context.Context, userID, endpoint string) (int64, error) {
	count, err := l.client.HGet(ctx, l.key(userID), countPrefix+endpoint).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		l.logger.Errorw("failed to get usage count", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to get usage count: %w", err)
	}
	return count, nil
}

func (l *RedisLedger) Increment(ctx context.Context, userID, endpoint string, at time.Time) (int64, error) {
	key := l.key(userID)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, countPrefix+endpoint, 1)
		pipe.HSet(ctx, key, updatedPrefix+endpoint, at.UnixNano())
		return nil
	})
	if err != nil {
		l.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return incr.Val(), nil
}

func (l *RedisLedger) IncrementBelow(ctx context.Context, userID, endpoint string, limit int64, at time.Time) (int64, bool, error) {
	res, err := incrementBelowScript.Run(ctx, l.client,
		[]string{l.key(userID)},
		countPrefix+endpoint, updatedPrefix+endpoint, limit, at.UnixNano(),
	).Int64Slice()
	if err != nil {
		l.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, false, fmt.Errorf("failed to increment usage: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("unexpected increment script result: %v", res)
	}
	return res[0], res[1] == 1, nil
}

func (l *RedisLedger) List(ctx context.Context, userID string) ([]usage.Counter, error) {
	fields, err := l.client.HGetAll(ctx, l.key(userID)).Result()
	if err != nil {
		l.logger.Errorw("failed to list usage counters", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list usage counters: %w", err)
	}

	counters := make([]usage.Counter, 0, len(fields)/2)
	for field, value := range fields {
		endpoint, ok := strings.CutPrefix(field, countPrefix)
		if !ok {
			continue
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid usage count for %s: %w", endpoint, err)
		}

		c := usage.Counter{UserID: userID, Endpoint: endpoint, Count: count}
		if nanos, err := strconv.ParseInt(fields[updatedPrefix+endpoint], 10, 64); err == nil {
			c.LastUpdated = time.Unix(0, nanos).UTC()
		}
		counters = append(counters, c)
	}

	sort.Slice(counters, func(i, j int) bool {
		return counters[i].Endpoint < counters[j].Endpoint
	})
	return counters, nil
}

func (l *RedisLedger) DeleteAll(ctx context.Context, userID string) error {
	if err := l.client.Del(ctx, l.key(userID)).Err(); err != nil {
		l.logger.Errorw("failed to delete usage counters", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete usage counters: %w", err)
	}
	return nil
}
