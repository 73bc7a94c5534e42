package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"metasearch/query"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 60 * time.Second
	defaultBreakerInterval           = 5 * time.Minute
)

// Breaker wraps an adapter with a circuit breaker. A provider that fails
// repeatedly is suspended: further searches report KindBlocked without a
// request until the circuit half-opens again.
type Breaker struct {
	inner   Adapter
	breaker *gobreaker.CircuitBreaker[[]Result]
}

func NewBreaker(inner Adapter, logger *zap.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker[[]Result](gobreaker.Settings{
		Name:        "engine:" + inner.Name(),
		MaxRequests: 1,
		Interval:    defaultBreakerInterval,
		Timeout:     defaultBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= defaultBreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("engine circuit state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Breaker{inner: inner, breaker: cb}
}

func (b *Breaker) Name() string        { return b.inner.Name() }
func (b *Breaker) Weight() float64     { return b.inner.Weight() }
func (b *Breaker) MaxResults() int     { return b.inner.MaxResults() }
func (b *Breaker) Modes() []query.Mode { return b.inner.Modes() }

func (b *Breaker) Languages() []string {
	if lr, ok := b.inner.(LanguageRestricted); ok {
		return lr.Languages()
	}
	return nil
}

func (b *Breaker) Search(ctx context.Context, q *query.Structured) ([]Result, error) {
	results, err := b.breaker.Execute(func() ([]Result, error) {
		return b.inner.Search(ctx, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, NewError(b.Name(), KindBlocked, err)
		}
		return nil, err
	}
	return results, nil
}
