package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"metasearch/query"
)

// SearXNG queries a SearXNG instance through its JSON API. It covers all
// modes: the instance itself already aggregates answers and images.
type SearXNG struct {
	baseURL string
	client  *http.Client
	weight  float64
}

type searxngResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		ImgSrc  string  `json:"img_src"`
		Score   float64 `json:"score"`
	} `json:"results"`
	Answers []json.RawMessage `json:"answers"`
}

// NewSearXNG builds the adapter for one SearXNG instance. A non-positive
// weight uses the default of 1.0.
func NewSearXNG(baseURL string, client *http.Client, weight float64) *SearXNG {
	if weight <= 0 {
		weight = 1.0
	}
	return &SearXNG{baseURL: baseURL, client: client, weight: weight}
}

func (s *SearXNG) Name() string        { return "searxng" }
func (s *SearXNG) Weight() float64     { return s.weight }
func (s *SearXNG) MaxResults() int     { return 30 }
func (s *SearXNG) Modes() []query.Mode {
	return []query.Mode{query.ModeWeb, query.ModeImages, query.ModeAnswer}
}

func (s *SearXNG) Search(ctx context.Context, q *query.Structured) ([]Result, error) {
	params := url.Values{}
	params.Set("q", q.String())
	params.Set("format", "json")
	params.Set("categories", searxCategory(q.Mode))
	if q.Page > 1 {
		params.Set("pageno", strconv.Itoa(q.Page))
	}
	if q.Lang != "" {
		params.Set("language", q.Lang)
	}

	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, NewError(s.Name(), KindTransport, err)
	}
	// The instance's bot detection wants a forwarded client address.
	req.Header.Set("X-Real-IP", "127.0.0.1")
	req.Header.Set("X-Forwarded-For", "127.0.0.1")

	body, ferr := fetch(ctx, s.client, s.Name(), req)
	if ferr != nil {
		return nil, ferr
	}

	var resp searxngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewError(s.Name(), KindParse, err)
	}

	var results []Result
	for _, r := range resp.Answers {
		// Answers arrive either as plain strings or {answer: ...} objects
		// depending on the instance version.
		var answer string
		if err := json.Unmarshal(r, &answer); err != nil {
			var obj struct {
				Answer string `json:"answer"`
				URL    string `json:"url"`
			}
			if err := json.Unmarshal(r, &obj); err != nil || obj.Answer == "" {
				continue
			}
			results = append(results, Result{
				URL:    obj.URL,
				Answer: obj.Answer,
				Engine: s.Name(),
				Rank:   len(results),
			})
			continue
		}
		results = append(results, Result{Answer: answer, Engine: s.Name(), Rank: len(results)})
	}

	for _, r := range resp.Results {
		if r.URL == "" || (q.Mode != query.ModeImages && r.Title == "") {
			continue
		}
		if q.Mode == query.ModeImages && r.ImgSrc == "" {
			continue
		}
		results = append(results, Result{
			URL:      r.URL,
			Title:    r.Title,
			Content:  r.Content,
			ImageSrc: r.ImgSrc,
			Score:    r.Score,
			Engine:   s.Name(),
			Rank:     len(results),
		})
		if len(results) >= s.MaxResults() {
			break
		}
	}

	return results, nil
}

// searxCategory maps a search mode onto the instance's category name.
func searxCategory(mode query.Mode) string {
	switch mode {
	case query.ModeImages:
		return "images"
	default:
		return "general"
	}
}
