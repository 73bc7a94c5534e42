package dispatch

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"metasearch/engine"
	"metasearch/query"
)

// Options bounds a single dispatch. It is built by the configuration
// loader at startup and treated as static input. EngineTimeouts
// overrides PerEngineTimeout for the named engines.
type Options struct {
	PerEngineTimeout time.Duration
	TotalBudget      time.Duration
	EngineTimeouts   map[string]time.Duration
}

func DefaultOptions() Options {
	return Options{
		PerEngineTimeout: 4 * time.Second,
		TotalBudget:      8 * time.Second,
	}
}

// Outcome is everything one query execution produced: the collected raw
// results and at most one error per failed engine. An engine either
// contributed results or appears in Errors, never both.
type Outcome struct {
	Results []engine.Result
	Errors  map[string]*engine.Error
	Elapsed map[string]time.Duration
}

// Dispatcher fans a structured query out to all eligible adapters
// concurrently, isolating each engine's failures.
type Dispatcher struct {
	adapters []engine.Adapter
	opts     Options
	logger   *zap.Logger
}

func New(adapters []engine.Adapter, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.PerEngineTimeout <= 0 {
		opts.PerEngineTimeout = DefaultOptions().PerEngineTimeout
	}
	if opts.TotalBudget <= 0 {
		opts.TotalBudget = DefaultOptions().TotalBudget
	}
	return &Dispatcher{adapters: adapters, opts: opts, logger: logger}
}

type engineReturn struct {
	name    string
	results []engine.Result
	err     *engine.Error
	elapsed time.Duration
}

// Dispatch runs the query against every adapter that supports its mode.
// Each adapter call is bounded by PerEngineTimeout and the whole pass by
// TotalBudget; engines still pending past either bound are cancelled and
// recorded as timeouts. Partial results from a failed engine are
// discarded. Zero eligible adapters is not an error: the outcome is
// simply empty.
func (d *Dispatcher) Dispatch(ctx context.Context, q *query.Structured) *Outcome {
	eligible := d.eligible(q)

	outcome := &Outcome{
		Errors:  make(map[string]*engine.Error, len(eligible)),
		Elapsed: make(map[string]time.Duration, len(eligible)),
	}
	if len(eligible) == 0 {
		return outcome
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.TotalBudget)
	defer cancel()

	returns := make(chan engineReturn, len(eligible))
	for _, adapter := range eligible {
		go d.searchOne(ctx, adapter, q, returns)
	}

	pending := make(map[string]struct{}, len(eligible))
	for _, adapter := range eligible {
		pending[adapter.Name()] = struct{}{}
	}

	d.collect(ctx, returns, pending, outcome)
	return outcome
}

// collect is the single writer of the outcome. The returns channel is
// buffered, so an adapter that ignores cancellation can still send its
// late return without leaking a goroutine while collection stops waiting
// for it. When the budget expires, returns already queued are still
// drained before the remaining engines are stamped as timeouts: a return
// sitting in the buffer is completed work, not a straggler.
func (d *Dispatcher) collect(ctx context.Context, returns <-chan engineReturn, pending map[string]struct{}, outcome *Outcome) {
	absorb := func(ret engineReturn) {
		delete(pending, ret.name)
		outcome.Elapsed[ret.name] = ret.elapsed
		if ret.err != nil {
			outcome.Errors[ret.name] = ret.err
			return
		}
		outcome.Results = append(outcome.Results, ret.results...)
	}

	for len(pending) > 0 {
		select {
		case ret := <-returns:
			absorb(ret)
		case <-ctx.Done():
			for len(pending) > 0 {
				select {
				case ret := <-returns:
					absorb(ret)
				default:
					for name := range pending {
						outcome.Errors[name] = engine.NewError(name, engine.KindTimeout, ctx.Err())
						d.logger.Warn("engine exceeded total budget",
							zap.String("engine", name),
							zap.Duration("budget", d.opts.TotalBudget))
					}
					return
				}
			}
			return
		}
	}
}

// searchOne runs one adapter under its own timeout and normalizes any
// failure into a typed engine error.
func (d *Dispatcher) searchOne(ctx context.Context, adapter engine.Adapter, q *query.Structured, returns chan<- engineReturn) {
	ctx, cancel := context.WithTimeout(ctx, d.engineTimeout(adapter.Name()))
	defer cancel()

	start := time.Now()
	results, err := adapter.Search(ctx, q)
	elapsed := time.Since(start)

	name := adapter.Name()
	if err != nil {
		engErr := asEngineError(ctx, name, err)
		d.logger.Warn("engine search failed",
			zap.String("engine", name),
			zap.String("kind", string(engErr.Kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		returns <- engineReturn{name: name, err: engErr, elapsed: elapsed}
		return
	}

	d.logger.Debug("engine search completed",
		zap.String("engine", name),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", elapsed))
	returns <- engineReturn{name: name, results: results, elapsed: elapsed}
}

// engineTimeout resolves the timeout for one engine, preferring its
// configured override over the dispatcher-wide default.
func (d *Dispatcher) engineTimeout(name string) time.Duration {
	if t, ok := d.opts.EngineTimeouts[name]; ok && t > 0 {
		return t
	}
	return d.opts.PerEngineTimeout
}

func (d *Dispatcher) eligible(q *query.Structured) []engine.Adapter {
	var eligible []engine.Adapter
	for _, adapter := range d.adapters {
		if !engine.Supports(adapter, q.Mode) {
			continue
		}
		if q.Lang != "" {
			if lr, ok := adapter.(engine.LanguageRestricted); ok {
				if langs := lr.Languages(); len(langs) > 0 && !slices.Contains(langs, q.Lang) {
					continue
				}
			}
		}
		eligible = append(eligible, adapter)
	}
	return eligible
}

// asEngineError coerces an adapter failure into a per-engine error,
// mapping context expiry onto KindTimeout.
func asEngineError(ctx context.Context, name string, err error) *engine.Error {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return engErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return engine.NewError(name, engine.KindTimeout, err)
	}
	return engine.NewError(name, engine.KindTransport, err)
}
