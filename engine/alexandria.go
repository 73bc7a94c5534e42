package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"metasearch/query"
)

// Alexandria queries the english-only api.alexandria.org JSON API.
type Alexandria struct {
	baseURL string
	client  *http.Client
	weight  float64
}

type alexandriaResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// NewAlexandria builds the adapter. An empty baseURL uses the public
// endpoint; a non-positive weight uses the default of 1.0.
func NewAlexandria(baseURL string, client *http.Client, weight float64) *Alexandria {
	if baseURL == "" {
		baseURL = "https://api.alexandria.org"
	}
	if weight <= 0 {
		weight = 1.0
	}
	return &Alexandria{baseURL: baseURL, client: client, weight: weight}
}

func (a *Alexandria) Name() string        { return "alexandria" }
func (a *Alexandria) Weight() float64     { return a.weight }
func (a *Alexandria) MaxResults() int     { return 20 }
func (a *Alexandria) Modes() []query.Mode { return []query.Mode{query.ModeWeb} }
func (a *Alexandria) Languages() []string { return []string{"en"} }

func (a *Alexandria) Search(ctx context.Context, q *query.Structured) ([]Result, error) {
	params := url.Values{}
	params.Set("a", "1")
	params.Set("c", "a")
	params.Set("q", q.String())

	req, err := http.NewRequest(http.MethodGet, a.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, NewError(a.Name(), KindTransport, err)
	}

	body, ferr := fetch(ctx, a.client, a.Name(), req)
	if ferr != nil {
		return nil, ferr
	}

	var resp alexandriaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewError(a.Name(), KindParse, err)
	}

	var results []Result
	for _, r := range resp.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		results = append(results, Result{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Snippet,
			Engine:  a.Name(),
			Rank:    len(results),
		})
		if len(results) >= a.MaxResults() {
			break
		}
	}

	return results, nil
}
