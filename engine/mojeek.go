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

// Mojeek scrapes the Mojeek HTML result page.
type Mojeek struct {
	baseURL string
	client  *http.Client
	weight  float64
}

// NewMojeek builds the adapter. An empty baseURL uses the public
// endpoint; a non-positive weight uses the default of 1.0.
func NewMojeek(baseURL string, client *http.Client, weight float64) *Mojeek {
	if baseURL == "" {
		baseURL = "https://www.mojeek.com"
	}
	if weight <= 0 {
		weight = 1.0
	}
	return &Mojeek{baseURL: baseURL, client: client, weight: weight}
}

func (m *Mojeek) Name() string        { return "mojeek" }
func (m *Mojeek) Weight() float64     { return m.weight }
func (m *Mojeek) MaxResults() int     { return 10 }
func (m *Mojeek) Modes() []query.Mode { return []query.Mode{query.ModeWeb} }

func (m *Mojeek) Search(ctx context.Context, q *query.Structured) ([]Result, error) {
	params := url.Values{}
	params.Set("q", q.String())
	if q.Page > 1 {
		params.Set("s", strconv.Itoa((q.Page-1)*m.MaxResults()+1))
	}

	req, err := http.NewRequest(http.MethodGet, m.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, NewError(m.Name(), KindTransport, err)
	}

	body, ferr := fetch(ctx, m.client, m.Name(), req)
	if ferr != nil {
		return nil, ferr
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, NewError(m.Name(), KindParse, err)
	}

	var results []Result
	doc.Find("ul.results-standard li").Each(func(i int, s *goquery.Selection) {
		if len(results) >= m.MaxResults() {
			return
		}
		link := s.Find("h2 a.title")
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}
		results = append(results, Result{
			URL:     href,
			Title:   title,
			Content: strings.TrimSpace(s.Find("p.s").Text()),
			Engine:  m.Name(),
			Rank:    len(results),
		})
	})

	if len(results) == 0 && doc.Find("ul.results-standard").Length() == 0 {
		// No result list at all means the page layout was not what we
		// expect, not merely an empty result set.
		return nil, NewError(m.Name(), KindParse, nil)
	}

	return results, nil
}
