package rank

import (
	"net/url"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Host boosts and penalties carried over from operating experience:
// community and reference sites rank up, content farms rank down.
var hostFactors = map[string]float64{
	"reddit.com":        2.0,
	"stackoverflow.com": 1.5,
	"github.com":        1.5,
	"docs.python.org":   1.5,
}

// SpamFilter adjusts a result's rating based on its host and on spam
// keyword hits in its visible text.
type SpamFilter struct {
	domains  map[string]struct{}
	matcher  *ahocorasick.Matcher
	keywords []string
}

// NewSpamFilter builds a filter from a spam-domain list and a list of
// spam keywords/phrases. Both may be empty.
func NewSpamFilter(domains []string, keywords []string) *SpamFilter {
	domainSet := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domainSet[d] = struct{}{}
		}
	}

	cleaned := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}

	var matcher *ahocorasick.Matcher
	if len(cleaned) > 0 {
		matcher = ahocorasick.NewStringMatcher(cleaned)
	}

	return &SpamFilter{
		domains:  domainSet,
		matcher:  matcher,
		keywords: cleaned,
	}
}

// Factor returns the rating multiplier for a result with the given
// display URL and visible text.
func (f *SpamFilter) Factor(displayURL, text string) float64 {
	factor := 1.0

	if host := hostOf(displayURL); host != "" {
		switch {
		case f.isSpamDomain(host):
			factor *= 0.5
		case strings.HasSuffix(host, ".fandom.com"):
			factor *= 0.5
		case strings.HasSuffix(host, ".wikipedia.org"):
			factor *= 1.25
		default:
			if boost, ok := hostFactors[host]; ok {
				factor *= boost
			}
		}
	}

	if f.matcher != nil && text != "" {
		if matches := f.matcher.MatchThreadSafe([]byte(strings.ToLower(text))); len(matches) > 0 {
			factor *= 0.5
		}
	}

	return factor
}

func (f *SpamFilter) isSpamDomain(host string) bool {
	if _, ok := f.domains[host]; ok {
		return true
	}
	// A listed domain also covers its subdomains.
	for d := range f.domains {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
