package rank

import (
	"net/url"
	"sort"
	"strings"
)

// Canonical reduces a raw URL to the key used for deduplication across
// engines. Two URLs that differ only in scheme (https vs http), a www.
// prefix, fragment, query parameter order, duplicate or trailing
// slashes, or host/scheme case map to the same key. Mobile Wikipedia
// hosts fold into their desktop host, and Wikipedia paths treat the
// en-dash as a hyphen. An unparsable URL falls back to the raw string so
// it still dedupes against itself.
func Canonical(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "https" {
		scheme = "http"
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	if strings.HasSuffix(host, ".m.wikipedia.org") {
		host = strings.TrimSuffix(host, ".m.wikipedia.org") + ".wikipedia.org"
	}

	path := u.EscapedPath()
	if strings.HasSuffix(host, ".wikipedia.org") {
		// Wikipedia uses en-dash and hyphen interchangeably in article
		// paths.
		path = strings.ReplaceAll(path, "%E2%80%93", "-")
	}
	path = collapseSlashes(path)
	path = strings.TrimSuffix(path, "/")

	key := scheme + "://" + host + path
	if q := sortedQuery(u.Query()); q != "" {
		key += "?" + q
	}
	return key
}

// sortedQuery re-encodes query parameters in key order, keeping blank
// values so ?foo and ?bar stay distinct.
func sortedQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vs := values[k]
		sort.Strings(vs)
		for _, v := range vs {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

func collapseSlashes(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}
