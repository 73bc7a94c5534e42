package engine

import (
	"context"
	"fmt"

	"metasearch/query"
)

// Result is a single hit reported by one upstream engine. It is owned by
// the dispatcher until handed to the ranker.
type Result struct {
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Content  string  `json:"content,omitempty"`
	ImageSrc string  `json:"img_src,omitempty"`
	Answer   string  `json:"answer,omitempty"`
	Score    float64 `json:"score"`
	Engine   string  `json:"engine"`
	Rank     int     `json:"rank"`
}

// ErrKind classifies why an engine failed for a query.
type ErrKind string

const (
	KindTimeout   ErrKind = "timeout"
	KindTransport ErrKind = "transport"
	KindParse     ErrKind = "parse"
	KindBlocked   ErrKind = "blocked"
)

// Error is a per-engine failure. At most one is recorded per engine per
// query execution.
type Error struct {
	Engine string  `json:"engine"`
	Kind   ErrKind `json:"kind"`
	cause  error
}

func NewError(engine string, kind ErrKind, cause error) *Error {
	return &Error{Engine: engine, Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Engine, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Adapter translates between the common query/result shape and one
// upstream provider's wire format.
type Adapter interface {
	// Search performs a search and returns the provider's results in
	// provider rank order. Malformed individual entries are skipped;
	// a fully unparsable response fails with KindParse.
	Search(ctx context.Context, q *query.Structured) ([]Result, error)

	// Name returns the engine identifier.
	Name() string

	// Weight is the trust multiplier applied to this engine's scores.
	Weight() float64

	// MaxResults is the most results one search may return.
	MaxResults() int

	// Modes lists the search modes this engine supports.
	Modes() []query.Mode
}

// LanguageRestricted is implemented by adapters limited to certain
// languages. An empty list means no restriction.
type LanguageRestricted interface {
	Languages() []string
}

// Supports reports whether the adapter handles the given mode.
func Supports(a Adapter, mode query.Mode) bool {
	for _, m := range a.Modes() {
		if m == mode {
			return true
		}
	}
	return false
}
