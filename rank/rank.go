package rank

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"metasearch/engine"
	"metasearch/query"
)

// DefaultPageSize is the number of merged results per page.
const DefaultPageSize = 12

// Merged is one deduplicated entity shown to the presentation layer.
// It is immutable once Merge returns.
type Merged struct {
	Key      string   `json:"-"`
	URL      string   `json:"url,omitempty"`
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content,omitempty"`
	ImageSrc string   `json:"img_src,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Rating   float64  `json:"rating"`
	Engines  []string `json:"engines"`

	firstRank int
}

// Ranker merges raw results from all engines into a deduplicated,
// deterministically ordered list.
type Ranker struct {
	weights map[string]float64
	spam    *SpamFilter
}

// New builds a ranker. weights maps engine name to trust multiplier;
// unknown engines get weight 1. spam may be nil.
func New(weights map[string]float64, spam *SpamFilter) *Ranker {
	if spam == nil {
		spam = NewSpamFilter(nil, nil)
	}
	return &Ranker{weights: weights, spam: spam}
}

// accumulator collects the contributions for one canonical key while
// merging. The best-engine fields win; the rating sums over engines.
type accumulator struct {
	merged     Merged
	bestWeight float64
	sum        float64
	engines    map[string]struct{}
}

// Merge deduplicates results by canonical URL and rates them. The output
// is a pure function of the input set: feeding the same results in any
// order yields the identical ordering.
func (r *Ranker) Merge(results []engine.Result, q *query.Structured) []Merged {
	// Fix a canonical processing order first so merging decisions do
	// not depend on engine arrival order.
	ordered := make([]engine.Result, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Engine != ordered[j].Engine {
			return ordered[i].Engine < ordered[j].Engine
		}
		return ordered[i].Rank < ordered[j].Rank
	})

	accs := make(map[string]*accumulator)
	var keys []string

	for _, res := range ordered {
		key := r.keyOf(res)
		if key == "" {
			continue
		}
		weight := r.weightOf(res.Engine)
		base := rankScore(res) * weight

		acc, ok := accs[key]
		if !ok {
			acc = &accumulator{
				merged: Merged{
					Key:       key,
					URL:       res.URL,
					Title:     res.Title,
					Content:   res.Content,
					ImageSrc:  res.ImageSrc,
					Answer:    res.Answer,
					firstRank: res.Rank,
				},
				bestWeight: weight,
				engines:    map[string]struct{}{res.Engine: {}},
				sum:        base,
			}
			accs[key] = acc
			keys = append(keys, key)
			continue
		}

		acc.absorb(res, weight, base)
	}

	merged := make([]Merged, 0, len(accs))
	for _, key := range keys {
		acc := accs[key]
		m := acc.merged

		m.Engines = make([]string, 0, len(acc.engines))
		for name := range acc.engines {
			m.Engines = append(m.Engines, name)
		}
		sort.Strings(m.Engines)

		rating := acc.sum * engineCountBonus(len(acc.engines))
		if m.Answer == "" {
			rating *= r.spam.Factor(m.URL, m.Title+" "+m.Content)
			rating *= r.stemBoost(m.Title, q)
			rating *= scriptFactor(m.Title+" "+m.Content, queryLang(q))
		}
		m.Rating = rating

		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		aAnswer, bAnswer := a.Answer != "", b.Answer != ""
		if aAnswer != bAnswer {
			return aAnswer
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.firstRank != b.firstRank {
			return a.firstRank < b.firstRank
		}
		return a.Key < b.Key
	})

	return merged
}

// absorb folds one more engine's copy of the same entity into the
// accumulator. Field preference goes to the highest-weight engine,
// falling back to the longer text on equal weight. Each engine's score
// counts once per key.
func (a *accumulator) absorb(res engine.Result, weight, base float64) {
	better := weight > a.bestWeight
	sameWeight := weight == a.bestWeight

	if better {
		a.merged.URL = res.URL
		a.merged.ImageSrc = preferNonEmpty(res.ImageSrc, a.merged.ImageSrc)
		a.bestWeight = weight
	} else if a.merged.ImageSrc == "" {
		a.merged.ImageSrc = res.ImageSrc
	}
	if better || (sameWeight && len(res.Title) > len(a.merged.Title)) || a.merged.Title == "" {
		a.merged.Title = preferNonEmpty(res.Title, a.merged.Title)
	}
	if better || (sameWeight && len(res.Content) > len(a.merged.Content)) || a.merged.Content == "" {
		a.merged.Content = preferNonEmpty(res.Content, a.merged.Content)
	}
	if res.Rank < a.merged.firstRank {
		a.merged.firstRank = res.Rank
	}

	if _, seen := a.engines[res.Engine]; !seen {
		a.engines[res.Engine] = struct{}{}
		a.sum += base
	}
}

// keyOf returns the deduplication key. Answers without a URL dedupe on
// their text.
func (r *Ranker) keyOf(res engine.Result) string {
	if res.Answer != "" && res.URL == "" {
		return "answer:" + res.Answer
	}
	if res.URL == "" {
		return ""
	}
	return Canonical(res.URL)
}

func (r *Ranker) weightOf(name string) float64 {
	if w, ok := r.weights[name]; ok && w > 0 {
		return w
	}
	return 1.0
}

// rankScore converts a result's per-engine position into a base score.
// An engine-supplied score wins over the positional fallback.
func rankScore(res engine.Result) float64 {
	if res.Score > 0 {
		return res.Score
	}
	return 10 * math.Pow(1.25, -float64(res.Rank))
}

// engineCountBonus rewards cross-engine agreement. It is strictly
// increasing in n, so another contributing engine never lowers a rating.
func engineCountBonus(n int) float64 {
	if n < 1 {
		return 1
	}
	return 1 + math.Log(float64(n))/2
}

// stemBoost nudges up results whose title shares stemmed terms with the
// query.
func (r *Ranker) stemBoost(title string, q *query.Structured) float64 {
	if q == nil || len(q.Tokens) == 0 || title == "" {
		return 1
	}

	titleStems := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(title)) {
		titleStems[stem(word)] = struct{}{}
	}

	matched := 0
	total := 0
	for _, tok := range q.Tokens {
		for _, word := range strings.Fields(strings.ToLower(tok)) {
			total++
			if _, ok := titleStems[stem(word)]; ok {
				matched++
			}
		}
	}
	if total == 0 {
		return 1
	}
	return 1 + 0.1*float64(matched)/float64(total)
}

// scriptFactor halves the rating of results containing Han script when
// the query does not ask for Chinese.
func scriptFactor(text, lang string) float64 {
	if lang == "zh" {
		return 1
	}
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return 0.5
		}
	}
	return 1
}

func queryLang(q *query.Structured) string {
	if q == nil {
		return ""
	}
	return q.Lang
}

func stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

func preferNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Page selects the 1-indexed fixed-size window over the ranked list.
// Out-of-range pages return an empty slice, never an error.
func Page(merged []Merged, page, size int) []Merged {
	if page < 1 || size < 1 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(merged) {
		return nil
	}
	end := start + size
	if end > len(merged) {
		end = len(merged)
	}
	return merged[start:end]
}
