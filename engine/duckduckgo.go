package engine

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"metasearch/query"
)

// DuckDuckGo scrapes the static html.duckduckgo.com result page.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
	weight  float64
}

// NewDuckDuckGo builds the adapter. An empty baseURL uses the public
// endpoint; a non-positive weight uses the default of 1.3.
func NewDuckDuckGo(baseURL string, client *http.Client, weight float64) *DuckDuckGo {
	if baseURL == "" {
		baseURL = "https://html.duckduckgo.com"
	}
	if weight <= 0 {
		weight = 1.3
	}
	return &DuckDuckGo{baseURL: baseURL, client: client, weight: weight}
}

func (d *DuckDuckGo) Name() string        { return "duckduckgo" }
func (d *DuckDuckGo) Weight() float64     { return d.weight }
func (d *DuckDuckGo) MaxResults() int     { return 25 }
func (d *DuckDuckGo) Modes() []query.Mode { return []query.Mode{query.ModeWeb} }

func (d *DuckDuckGo) Search(ctx context.Context, q *query.Structured) ([]Result, error) {
	params := url.Values{}
	params.Set("q", q.String())
	if q.Page > 1 {
		params.Set("s", strconv.Itoa((q.Page-1)*d.MaxResults()))
	}

	req, err := http.NewRequest(http.MethodGet, d.baseURL+"/html/?"+params.Encode(), nil)
	if err != nil {
		return nil, NewError(d.Name(), KindTransport, err)
	}

	body, ferr := fetch(ctx, d.client, d.Name(), req)
	if ferr != nil {
		return nil, ferr
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, NewError(d.Name(), KindParse, err)
	}

	if doc.Find("div.anomaly-modal__modal, form#challenge-form").Length() > 0 {
		return nil, NewError(d.Name(), KindBlocked, nil)
	}

	var results []Result
	doc.Find("div.result").Each(func(i int, s *goquery.Selection) {
		if len(results) >= d.MaxResults() {
			return
		}
		link := s.Find("a.result__a")
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		href = unwrapRedirect(href)
		title := strings.TrimSpace(link.Text())
		if href == "" || title == "" {
			return
		}
		results = append(results, Result{
			URL:     href,
			Title:   title,
			Content: strings.TrimSpace(s.Find("a.result__snippet").Text()),
			Engine:  d.Name(),
			Rank:    len(results),
		})
	})

	if len(results) == 0 && doc.Find("div.serp__results, div#links").Length() == 0 {
		return nil, NewError(d.Name(), KindParse, nil)
	}

	return results, nil
}

// unwrapRedirect resolves the //duckduckgo.com/l/?uddg=... indirection
// to the target URL. Anything unexpected is passed through untouched.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "/l/?") && !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
