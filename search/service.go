package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"metasearch/cache"
	"metasearch/dispatch"
	"metasearch/engine"
	"metasearch/metrics"
	"metasearch/query"
	"metasearch/rank"
	"metasearch/snippet"
)

// snippetWorkers bounds how many result pages are fetched per search
// when snippet enrichment is on.
const snippetWorkers = 4

// Service runs a full search pass: parse, dispatch, merge, paginate.
type Service struct {
	dispatcher *dispatch.Dispatcher
	ranker     *rank.Ranker
	store      *cache.Store
	snippets   *snippet.Loader
	registry   *metrics.Registry
	pageSize   int
	logger     *zap.Logger
}

// Options carries the service's optional collaborators. Store, Snippets
// and Registry may each be nil.
type Options struct {
	Store    *cache.Store
	Snippets *snippet.Loader
	Registry *metrics.Registry
	PageSize int
}

func NewService(dispatcher *dispatch.Dispatcher, ranker *rank.Ranker, opts Options, logger *zap.Logger) *Service {
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = rank.DefaultPageSize
	}
	return &Service{
		dispatcher: dispatcher,
		ranker:     ranker,
		store:      opts.Store,
		snippets:   opts.Snippets,
		registry:   opts.Registry,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// Response is what the presentation boundary receives for one search.
type Response struct {
	ID      string                   `json:"id"`
	Query   string                   `json:"query"`
	Tokens  []string                 `json:"tokens"`
	Mode    query.Mode               `json:"mode"`
	Page    int                      `json:"page"`
	Total   int                      `json:"total"`
	Results []rank.Merged            `json:"results"`
	Errors  map[string]*engine.Error `json:"errors,omitempty"`
	Elapsed time.Duration            `json:"elapsed"`
	Cached  bool                     `json:"cached"`
}

// cachedPass is the page-independent part of a search stored in the
// result cache.
type cachedPass struct {
	Merged []rank.Merged            `json:"merged"`
	Errors map[string]*engine.Error `json:"errors,omitempty"`
}

// Search parses the raw query and runs it. query.ErrInvalidQuery is
// returned before any engine is contacted.
func (s *Service) Search(ctx context.Context, raw string, mode query.Mode, page int) (*Response, error) {
	q, err := query.Parse(raw, mode, page)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	start := time.Now()
	logger := s.logger.With(zap.String("search_id", id), zap.String("query", q.String()))

	resp := &Response{
		ID:     id,
		Query:  q.Raw,
		Tokens: q.Tokens,
		Mode:   q.Mode,
		Page:   q.Page,
	}

	cacheKey := cache.Key(q.String()+"\x00"+q.Lang, string(q.Mode), 0)
	if s.store != nil {
		var pass cachedPass
		if hit, err := s.store.Get(cacheKey, &pass); err == nil && hit {
			resp.Total = len(pass.Merged)
			resp.Results = rank.Page(pass.Merged, q.Page, s.pageSize)
			resp.Errors = pass.Errors
			resp.Elapsed = time.Since(start)
			resp.Cached = true
			logger.Debug("search served from cache", zap.Int("total", resp.Total))
			return resp, nil
		}
	}

	outcome := s.dispatcher.Dispatch(ctx, q)
	s.record(outcome)

	merged := s.ranker.Merge(outcome.Results, q)
	window := rank.Page(merged, q.Page, s.pageSize)
	s.enrich(ctx, window)

	if s.store != nil {
		if err := s.store.Put(cacheKey, cachedPass{Merged: merged, Errors: outcome.Errors}); err != nil {
			logger.Warn("failed to cache search outcome", zap.Error(err))
		}
	}

	resp.Total = len(merged)
	resp.Results = window
	resp.Errors = outcome.Errors
	resp.Elapsed = time.Since(start)

	logger.Info("search completed",
		zap.Int("raw_results", len(outcome.Results)),
		zap.Int("merged", len(merged)),
		zap.Int("failed_engines", len(outcome.Errors)),
		zap.Duration("elapsed", resp.Elapsed))

	return resp, nil
}

// record hands per-engine counters to the metrics registry.
func (s *Service) record(outcome *dispatch.Outcome) {
	if s.registry == nil {
		return
	}

	counts := make(map[string]int)
	for _, r := range outcome.Results {
		counts[r.Engine]++
	}
	// Every engine that completed has an Elapsed entry, so a success
	// with zero results still counts as a search.
	for name, elapsed := range outcome.Elapsed {
		if _, failed := outcome.Errors[name]; failed {
			continue
		}
		s.registry.RecordSuccess(name, counts[name], elapsed)
	}
	for name, engErr := range outcome.Errors {
		s.registry.RecordError(name, engErr.Kind, outcome.Elapsed[name])
	}
}

// enrich fills in missing content on the visible page by fetching the
// result pages themselves. Best effort under the request context.
func (s *Service) enrich(ctx context.Context, page []rank.Merged) {
	if s.snippets == nil {
		return
	}

	sem := make(chan struct{}, snippetWorkers)
	var wg sync.WaitGroup
	for i := range page {
		if page[i].Content != "" || page[i].URL == "" || page[i].Answer != "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(m *rank.Merged) {
			defer wg.Done()
			defer func() { <-sem }()
			if text := s.snippets.Load(ctx, m.URL); text != "" {
				m.Content = text
			}
		}(&page[i])
	}
	wg.Wait()
}
