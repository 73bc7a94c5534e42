package snippet

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 2 << 20
	maxRuneLen   = 400
)

// Loader fetches a result's page and extracts a short readable excerpt
// to enrich the snippet an engine reported. Failures are not errors:
// the result simply keeps its original content.
type Loader struct {
	client *http.Client
	logger *zap.Logger
}

func NewLoader(client *http.Client, logger *zap.Logger) *Loader {
	return &Loader{client: client, logger: logger}
}

// Load returns a text excerpt for pageURL, or "" when the page cannot
// be fetched or yields no readable content.
func (l *Loader) Load(ctx context.Context, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Debug("snippet fetch failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		l.logger.Debug("snippet extraction failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	return truncate(strings.Join(strings.Fields(article.TextContent), " "), maxRuneLen)
}

// truncate cuts at a word boundary close to limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
