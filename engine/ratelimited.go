package engine

import (
	"context"

	"golang.org/x/time/rate"

	"metasearch/query"
)

// RateLimited wraps an adapter with a token-bucket limiter so we never
// hammer a provider faster than it tolerates.
type RateLimited struct {
	inner   Adapter
	limiter *rate.Limiter
}

// NewRateLimited wraps inner, allowing rps requests per second with the
// given burst. rps <= 0 disables limiting.
func NewRateLimited(inner Adapter, rps float64, burst int) *RateLimited {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &RateLimited{inner: inner, limiter: limiter}
}

func (r *RateLimited) Name() string        { return r.inner.Name() }
func (r *RateLimited) Weight() float64     { return r.inner.Weight() }
func (r *RateLimited) MaxResults() int     { return r.inner.MaxResults() }
func (r *RateLimited) Modes() []query.Mode { return r.inner.Modes() }

func (r *RateLimited) Languages() []string {
	if lr, ok := r.inner.(LanguageRestricted); ok {
		return lr.Languages()
	}
	return nil
}

func (r *RateLimited) Search(ctx context.Context, q *query.Structured) ([]Result, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			// The wait only fails when the context runs out first.
			return nil, NewError(r.Name(), KindTimeout, err)
		}
	}
	return r.inner.Search(ctx, q)
}
