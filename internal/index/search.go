package index

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/models"
	"github.com/evandr/foliant/internal/store"
)

// DefaultSearchLimit caps results when the caller passes no limit.
const DefaultSearchLimit = 10

// Token weights. Callers surface the numeric score (e.g. "relevance: N"),
// so these values are part of the external contract.
const (
	weightTitle   = 10
	weightHeading = 5
	weightOther   = 1
	weightPath    = 2
)

// Searcher answers relevance-ranked queries over one owner's index nodes.
// Scoring is substring containment, not tokenized relevance: deliberately
// simple and deterministic.
type Searcher struct {
	store store.Store
}

// NewSearcher creates a Searcher.
func NewSearcher(st store.Store) *Searcher {
	return &Searcher{store: st}
}

// Search lowercases and whitespace-splits the query, drops tokens of length
// two or shorter, and scores every index node of the owner: a node-text
// containment adds the node-kind weight, a path containment adds a flat +2.
// Nodes are grouped by item, per-item scores summed, and the surviving items
// sorted by score descending. Ties break by most recently updated item, then
// item id. A query with no surviving tokens returns an empty result set.
func (s *Searcher) Search(ownerID, query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len(tok) > 2 {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return []models.SearchHit{}, nil
	}

	nodes, err := s.store.NodesByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	type partial struct {
		score   int
		matched []models.MatchedNode
	}
	byItem := make(map[string]*partial)
	var order []string // first-seen scan order, keeps grouping deterministic

	for _, n := range nodes {
		text := strings.ToLower(n.Text)
		path := strings.ToLower(n.Path)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				switch n.Kind {
				case models.NodeTitle:
					score += weightTitle
				case models.NodeHeading:
					score += weightHeading
				default:
					score += weightOther
				}
			}
			if strings.Contains(path, tok) {
				score += weightPath
			}
		}
		if score == 0 {
			continue
		}
		p, ok := byItem[n.ItemID]
		if !ok {
			p = &partial{}
			byItem[n.ItemID] = p
			order = append(order, n.ItemID)
		}
		p.score += score
		p.matched = append(p.matched, models.MatchedNode{NodeType: n.Kind, Path: n.Path, Text: n.Text})
	}

	type scored struct {
		hit       models.SearchHit
		updatedAt time.Time
	}
	var results []scored
	for _, itemID := range order {
		// Resolve the current title; the item may have been renamed or
		// removed since the last rebuild (accepted staleness window).
		item, err := s.store.GetItem(ownerID, itemID)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p := byItem[itemID]
		results = append(results, scored{
			hit: models.SearchHit{
				ItemID:       itemID,
				Title:        item.Title,
				Score:        p.score,
				MatchedNodes: p.matched,
			},
			updatedAt: item.UpdatedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].hit.Score != results[j].hit.Score {
			return results[i].hit.Score > results[j].hit.Score
		}
		if !results[i].updatedAt.Equal(results[j].updatedAt) {
			return results[i].updatedAt.After(results[j].updatedAt)
		}
		return results[i].hit.ItemID < results[j].hit.ItemID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	hits := make([]models.SearchHit, len(results))
	for i, r := range results {
		hits[i] = r.hit
	}
	return hits, nil
}
