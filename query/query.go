package query

import (
	"errors"
	"strings"
)

// ErrInvalidQuery is returned when the raw query is empty after trimming
// or the requested page is below 1.
var ErrInvalidQuery = errors.New("invalid query")

// Mode determines which type of results a search returns.
type Mode string

const (
	ModeWeb    Mode = "web"
	ModeImages Mode = "images"
	ModeAnswer Mode = "answer"
)

// ParseMode converts a mode string into a Mode, defaulting to web.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeImages:
		return ModeImages
	case ModeAnswer:
		return ModeAnswer
	default:
		return ModeWeb
	}
}

// Structured is a parsed search query. It is immutable once built by Parse.
type Structured struct {
	Raw    string
	Tokens []string
	Mode   Mode
	Page   int
	Lang   string
	Site   string
}

// Parse tokenizes a raw query string into a Structured query.
// Whitespace separates tokens, double quotes group a phrase into a single
// token, and lang:/site: operators become hints instead of tokens.
func Parse(raw string, mode Mode, page int) (*Structured, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || page < 1 {
		return nil, ErrInvalidQuery
	}

	q := &Structured{
		Raw:  trimmed,
		Mode: mode,
		Page: page,
	}

	for _, tok := range tokenize(trimmed) {
		switch {
		case strings.HasPrefix(tok, "lang:") && len(tok) > len("lang:"):
			q.Lang = strings.ToLower(tok[len("lang:"):])
		case strings.HasPrefix(tok, "site:") && len(tok) > len("site:"):
			q.Site = strings.ToLower(tok[len("site:"):])
		default:
			q.Tokens = append(q.Tokens, tok)
		}
	}

	if len(q.Tokens) == 0 {
		return nil, ErrInvalidQuery
	}

	return q, nil
}

// tokenize splits on whitespace while keeping quoted phrases together.
// An unterminated quote runs to the end of the input. Quoted phrases that
// are empty or all whitespace are dropped.
func tokenize(s string) []string {
	var tokens []string
	var buf strings.Builder
	inQuote := false

	flush := func() {
		tok := strings.TrimSpace(buf.String())
		buf.Reset()
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}

	for _, r := range s {
		switch {
		case r == '"':
			flush()
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			buf.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// String reassembles the query for an upstream provider. Phrases with
// embedded whitespace are re-quoted and the site filter is re-appended.
func (q *Structured) String() string {
	var b strings.Builder
	for i, tok := range q.Tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		if strings.ContainsAny(tok, " \t") {
			b.WriteByte('"')
			b.WriteString(tok)
			b.WriteByte('"')
		} else {
			b.WriteString(tok)
		}
	}
	if q.Site != "" {
		b.WriteString(" site:")
		b.WriteString(q.Site)
	}
	return b.String()
}
