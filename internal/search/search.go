// Package search answers free-text queries against the sigil catalog. It
// ranks sigils by fuzzy similarity of their name and primary trait and
// never touches loadout state.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/kingrea/sigilforge/internal/catalog"
)

// Field identifies which attribute of a sigil produced a match.
type Field string

const (
	FieldNone  Field = ""
	FieldName  Field = "name"
	FieldTrait Field = "trait"
)

// Result is one ranked sigil.
type Result struct {
	Sigil          catalog.Sigil `json:"sigil"`
	Score          int           `json:"score"`
	Field          Field         `json:"field,omitempty"`
	MatchedIndexes []int         `json:"matched_indexes,omitempty"`
}

// Index is an immutable query index over a catalog.
type Index struct {
	sigils []catalog.Sigil
}

// New indexes every sigil in cat.
func New(cat *catalog.Catalog) *Index {
	return &Index{sigils: cat.Sigils()}
}

// Len reports the number of indexed sigils.
func (x *Index) Len() int { return len(x.sigils) }

// Query returns sigils matching q, best first. An empty query lists every
// sigil in catalog order so the builder opens on a browsable catalog rather
// than an empty list (DESIGN.md, decision 7). limit <= 0 means no limit.
func (x *Index) Query(q string, limit int) []Result {
	q = strings.TrimSpace(q)
	if q == "" {
		out := make([]Result, 0, len(x.sigils))
		for _, s := range x.sigils {
			out = append(out, Result{Sigil: s})
		}
		return truncate(out, limit)
	}

	best := make(map[int]Result, len(x.sigils))
	collect := func(field Field, matches fuzzy.Matches) {
		for _, m := range matches {
			current, seen := best[m.Index]
			if seen && current.Score >= m.Score {
				continue
			}
			best[m.Index] = Result{
				Sigil:          x.sigils[m.Index],
				Score:          m.Score,
				Field:          field,
				MatchedIndexes: m.MatchedIndexes,
			}
		}
	}
	// Names first so an equal trait score never displaces a name match.
	collect(FieldName, fuzzy.FindFrom(q, nameSource(x.sigils)))
	collect(FieldTrait, fuzzy.FindFrom(q, traitSource(x.sigils)))

	order := make([]int, 0, len(best))
	for idx := range best {
		order = append(order, idx)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := best[order[i]], best[order[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Field != b.Field {
			return a.Field == FieldName
		}
		return order[i] < order[j]
	})
	out := make([]Result, 0, len(order))
	for _, idx := range order {
		out = append(out, best[idx])
	}
	return truncate(out, limit)
}

func truncate(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

type nameSource []catalog.Sigil

func (s nameSource) String(i int) string { return s[i].Name }
func (s nameSource) Len() int            { return len(s) }

type traitSource []catalog.Sigil

func (s traitSource) String(i int) string { return s[i].Trait }
func (s traitSource) Len() int            { return len(s) }
