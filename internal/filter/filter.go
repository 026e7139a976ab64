// Package filter narrows record collections by a Spec of optional constraints.
package filter

import (
	"strings"

	"github.com/KaramelBytes/pedlens/internal/borough"
	"github.com/KaramelBytes/pedlens/internal/dataset"
)

// Spec holds optional constraints. A zero-valued field means "no restriction".
type Spec struct {
	Boroughs   []string `json:"boroughs,omitempty"`
	Categories []string `json:"categories,omitempty"`
	MinCount   *float64 `json:"min_count,omitempty"`
	MaxCount   *float64 `json:"max_count,omitempty"`
	Search     string   `json:"search,omitempty"`
}

// IsEmpty reports whether the spec restricts nothing.
func (s Spec) IsEmpty() bool {
	return len(nonBlank(s.Boroughs)) == 0 && len(nonBlank(s.Categories)) == 0 &&
		s.MinCount == nil && s.MaxCount == nil && strings.TrimSpace(s.Search) == ""
}

// Apply returns the records matching spec, in input order. Borough labels are
// resolved against known (see borough.Normalize). The input slice is not modified.
func Apply(records []dataset.Record, known []string, spec Spec) []dataset.Record {
	out := make([]dataset.Record, 0, len(records))
	if spec.IsEmpty() {
		return append(out, records...)
	}

	var boroughs map[string]struct{}
	if labels := nonBlank(spec.Boroughs); len(labels) > 0 {
		boroughs = borough.NormalizeAll(labels, known)
	}
	var categories map[string]struct{}
	if labels := nonBlank(spec.Categories); len(labels) > 0 {
		categories = toSet(labels)
	}
	search := strings.ToLower(strings.TrimSpace(spec.Search))

	for _, r := range records {
		if boroughs != nil {
			if _, ok := boroughs[r.Borough]; !ok {
				continue
			}
		}
		if categories != nil {
			if _, ok := categories[r.Category]; !ok {
				continue
			}
		}
		if spec.MinCount != nil && (!r.HasCount() || *r.AvgCount < *spec.MinCount) {
			continue
		}
		if spec.MaxCount != nil && (!r.HasCount() || *r.AvgCount > *spec.MaxCount) {
			continue
		}
		if search != "" && !MatchesSearch(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MatchesSearch reports whether the lower-cased term occurs in the street name,
// the clean street name or the location code.
func MatchesSearch(r dataset.Record, term string) bool {
	for _, field := range []string{r.StreetName, r.StreetClean, r.LocationCode} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// ByBorough scopes records to a single borough label; an empty label keeps all.
func ByBorough(records []dataset.Record, known []string, label string) []dataset.Record {
	if strings.TrimSpace(label) == "" {
		return append([]dataset.Record(nil), records...)
	}
	return Apply(records, known, Spec{Boroughs: []string{label}})
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[s] = struct{}{}
	}
	return set
}
