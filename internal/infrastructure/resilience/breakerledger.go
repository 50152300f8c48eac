// Package resilience wraps remote stores with circuit breakers.
package resilience

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/config"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type incrementResult struct {
	count    int64
	admitted bool
}

var _ usage.Ledger = (*BreakerLedger)(nil)

// BreakerLedger trips after consecutive ledger failures and then fails fast
// with an unavailable error until the breaker half-opens.
type BreakerLedger struct {
	next     usage.Ledger
	counts   *gobreaker.CircuitBreaker[int64]
	admits   *gobreaker.CircuitBreaker[incrementResult]
	counters *gobreaker.CircuitBreaker[[]usage.Counter]
	writes   *gobreaker.CircuitBreaker[struct{}]
	logger   logger.Interface
}

// NewBreakerLedger wraps next. gobreaker is generic over the result type, so
// counts, increments, listings and deletes each trip independently.
func NewBreakerLedger(name string, next usage.Ledger, cfg config.BreakerConfig, log logger.Interface) *BreakerLedger {
	l := &BreakerLedger{next: next, logger: log}

	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	settings := func(op string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name + "." + op,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval(),
			Timeout:     cfg.Timeout(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.IsAppError(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnw("ledger circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}
	}

	l.counts = gobreaker.NewCircuitBreaker[int64](settings("count"))
	l.admits = gobreaker.NewCircuitBreaker[incrementResult](settings("increment"))
	l.counters = gobreaker.NewCircuitBreaker[[]usage.Counter](settings("list"))
	l.writes = gobreaker.NewCircuitBreaker[struct{}](settings("delete"))
	return l
}

func (l *BreakerLedger) GetCount(ctx context.Context, userID, endpoint string) (int64, error) {
	count, err := l.counts.Execute(func() (int64, error) {
		return l.next.GetCount(ctx, userID, endpoint)
	})
	return count, l.translate(err)
}

func (l *BreakerLedger) Increment(ctx context.Context, userID, endpoint string, at time.Time) (int64, error) {
	res, err := l.admits.Execute(func() (incrementResult, error) {
		count, err := l.next.Increment(ctx, userID, endpoint, at)
		return incrementResult{count: count, admitted: true}, err
	})
	return res.count, l.translate(err)
}

func (l *BreakerLedger) IncrementBelow(ctx context.Context, userID, endpoint string, limit int64, at time.Time) (int64, bool, error) {
	res, err := l.admits.Execute(func() (incrementResult, error) {
		count, admitted, err := l.next.IncrementBelow(ctx, userID, endpoint, limit, at)
		return incrementResult{count: count, admitted: admitted}, err
	})
	return res.count, res.admitted, l.translate(err)
}

func (l *BreakerLedger) List(ctx context.Context, userID string) ([]usage.Counter, error) {
	counters, err := l.counters.Execute(func() ([]usage.Counter, error) {
		return l.next.List(ctx, userID)
	})
	return counters, l.translate(err)
}

func (l *BreakerLedger) DeleteAll(ctx context.Context, userID string) error {
	_, err := l.writes.Execute(func() (struct{}, error) {
		return struct{}{}, l.next.DeleteAll(ctx, userID)
	})
	return l.translate(err)
}

// State reports the state of the breaker guarding increments.
func (l *BreakerLedger) State() gobreaker.State {
	return l.admits.State()
}

func (l *BreakerLedger) translate(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.NewUnavailableError("usage ledger circuit breaker is open", err)
	}
	return err
}
