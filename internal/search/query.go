package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit applies when a search asks for no explicit limit.
const DefaultLimit = 10

// MaxLimit caps how many hits one search returns.
const MaxLimit = 100

// Hit is one ranked search result.
type Hit struct {
	ID    string
	Score float64
	Title string
}

// Search runs a full-text query over titles, authors and genres and returns
// hits ordered by relevance.
func (s *Index) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(text), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})
	req.Fields = []string{"title"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildQuery matches the title most strongly, then the author, then an exact
// genre tag. A fuzzy and a prefix clause on the title tolerate typos and
// partial input.
func buildQuery(text string) query.Query {
	text = strings.TrimSpace(text)
	if text == "" {
		return bleve.NewMatchAllQuery()
	}

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(text)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	genreTerm := bleve.NewTermQuery(text)
	genreTerm.SetField("genres")

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)

	clauses := []query.Query{titleMatch, authorMatch, genreTerm, fuzzy}

	if len(text) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		clauses = append(clauses, prefix)
	}

	return bleve.NewDisjunctionQuery(clauses...)
}
