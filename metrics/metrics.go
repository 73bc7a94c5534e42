package metrics

import (
	"sync"
	"time"

	"metasearch/engine"
)

// EngineStats is the accumulated view of one engine's behavior.
type EngineStats struct {
	Searches int                   `json:"searches"`
	Results  int                   `json:"results"`
	Errors   map[engine.ErrKind]int `json:"errors,omitempty"`
	Elapsed  time.Duration          `json:"elapsed_total"`
}

// Registry collects per-engine success and failure counters.
type Registry struct {
	mu    sync.RWMutex
	stats map[string]*EngineStats
}

func NewRegistry() *Registry {
	return &Registry{stats: make(map[string]*EngineStats)}
}

func (r *Registry) engineStats(name string) *EngineStats {
	s, ok := r.stats[name]
	if !ok {
		s = &EngineStats{Errors: make(map[engine.ErrKind]int)}
		r.stats[name] = s
	}
	return s
}

// RecordSuccess counts one completed search for an engine.
func (r *Registry) RecordSuccess(name string, resultCount int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.engineStats(name)
	s.Searches++
	s.Results += resultCount
	s.Elapsed += elapsed
}

// RecordError counts one failed search for an engine.
func (r *Registry) RecordError(name string, kind engine.ErrKind, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.engineStats(name)
	s.Searches++
	s.Errors[kind]++
	s.Elapsed += elapsed
}

// Snapshot returns a copy of all counters.
func (r *Registry) Snapshot() map[string]EngineStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]EngineStats, len(r.stats))
	for name, s := range r.stats {
		copied := EngineStats{
			Searches: s.Searches,
			Results:  s.Results,
			Elapsed:  s.Elapsed,
		}
		if len(s.Errors) > 0 {
			copied.Errors = make(map[engine.ErrKind]int, len(s.Errors))
			for k, v := range s.Errors {
				copied.Errors[k] = v
			}
		}
		out[name] = copied
	}
	return out
}
