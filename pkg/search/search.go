// Package search filters and fuzzy-searches policy collections.
//
// Text matching uses github.com/sahilm/fuzzy over a fixed set of fields
// (name, summary, city, district, issuer and tags). A policy matches when
// any of its fields matches; results are ranked by their best field score.
// The exact filters (city, status, benefit category, tag) are applied after
// the text match and keep its order.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/opcmap/policymap/pkg/record"
)

// Fields lists the searchable policy fields, in the order they are indexed.
var Fields = []string{"name", "summary", "city", "district", "issuer", "tags"}

// Query selects policies. Zero-valued fields do not filter.
type Query struct {
	Text    string        `json:"q,omitempty"`
	City    string        `json:"city,omitempty"`
	Status  record.Status `json:"status,omitempty"`
	Benefit string        `json:"benefit,omitempty"`
	Tag     string        `json:"tag,omitempty"`
}

// IsZero reports whether the query has no criteria.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Text) == "" && q.City == "" && q.Status == "" && q.Benefit == "" && q.Tag == ""
}

// Apply returns the policies matching q. The input is not modified.
func Apply(policies []record.Policy, q Query) []record.Policy {
	result := policies
	if text := strings.TrimSpace(q.Text); text != "" {
		result = Fuzzy(policies, text)
	}

	out := []record.Policy{}
	for i := range result {
		p := &result[i]
		if q.City != "" && p.City != q.City {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.Benefit != "" && !p.Benefits.Has(q.Benefit) {
			continue
		}
		if q.Tag != "" && !p.HasTag(q.Tag) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Fuzzy returns the policies with at least one field matching text, best
// match first. Policies with equal scores keep collection order.
func Fuzzy(policies []record.Policy, text string) []record.Policy {
	idx := newIndex(policies)
	matches := fuzzy.FindFrom(text, idx)

	best := make(map[int]int)
	for _, m := range matches {
		owner := idx.owner[m.Index]
		if score, ok := best[owner]; !ok || m.Score > score {
			best[owner] = m.Score
		}
	}

	hits := make([]int, 0, len(best))
	for i := range best {
		hits = append(hits, i)
	}
	sort.Slice(hits, func(a, b int) bool {
		sa, sb := best[hits[a]], best[hits[b]]
		if sa != sb {
			return sa > sb
		}
		return hits[a] < hits[b]
	})

	out := make([]record.Policy, len(hits))
	for i, h := range hits {
		out[i] = policies[h]
	}
	return out
}

// index flattens every searchable field of every policy into one list so a
// single fuzzy pass covers them all. owner maps an entry back to its policy.
type index struct {
	values []string
	owner  []int
}

func newIndex(policies []record.Policy) *index {
	idx := &index{}
	for i := range policies {
		p := &policies[i]
		for _, v := range []string{p.Name, p.Summary, p.City, p.District, p.Issuer} {
			idx.add(i, v)
		}
		for _, t := range p.Tags {
			idx.add(i, t)
		}
	}
	return idx
}

func (x *index) add(owner int, v string) {
	if v == "" {
		return
	}
	x.values = append(x.values, v)
	x.owner = append(x.owner, owner)
}

// String implements fuzzy.Source.
func (x *index) String(i int) string { return x.values[i] }

// Len implements fuzzy.Source.
func (x *index) Len() int { return len(x.values) }
