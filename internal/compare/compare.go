// Package compare contrasts the count statistics of two record cohorts.
package compare

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/pedlens/internal/borough"
	"github.com/KaramelBytes/pedlens/internal/dataset"
	"github.com/KaramelBytes/pedlens/internal/stats"
	"github.com/KaramelBytes/pedlens/internal/validation"
)

// Dimensions a cohort can be defined on.
const (
	DimensionBorough  = "borough"
	DimensionCategory = "category"
)

// GroupSpec defines a cohort: records whose dimension value is one of Values.
type GroupSpec struct {
	Dimension string   `json:"type" validate:"required,oneof=borough category"`
	Values    []string `json:"values" validate:"required,min=1,dive,required"`
}

// GroupResult is the resolved cohort and its statistics.
type GroupResult struct {
	Dimension string   `json:"type"`
	Values    []string `json:"values"`
	// Members is the number of records in the cohort, with or without a count.
	Members    int              `json:"members"`
	Statistics stats.Statistics `json:"statistics"`
}

// Difference is group1 minus group2, absolute and relative to group2.
// Percentage is 0 with PercentageUndefined set when group2's value is zero.
type Difference struct {
	Absolute            float64 `json:"absolute"`
	Percentage          float64 `json:"percentage"`
	PercentageUndefined bool    `json:"percentage_undefined,omitempty"`
}

// Differences holds the compared metrics.
type Differences struct {
	Count  Difference `json:"count"`
	Mean   Difference `json:"mean"`
	Median Difference `json:"median"`
	Max    Difference `json:"max"`
}

// Result is the outcome of Compare.
type Result struct {
	Group1      GroupResult `json:"group1"`
	Group2      GroupResult `json:"group2"`
	Differences Differences `json:"differences"`
}

// Compare resolves both cohorts from records and diffs their statistics. Borough
// cohorts use borough.Normalize against known; category cohorts match exactly.
func Compare(records []dataset.Record, known []string, g1, g2 GroupSpec) (*Result, error) {
	if err := validation.Struct(g1); err != nil {
		return nil, fmt.Errorf("group1: %w", err)
	}
	if err := validation.Struct(g2); err != nil {
		return nil, fmt.Errorf("group2: %w", err)
	}
	r1 := resolve(records, known, g1)
	r2 := resolve(records, known, g2)
	s1, s2 := r1.Statistics, r2.Statistics
	return &Result{
		Group1: r1,
		Group2: r2,
		Differences: Differences{
			Count:  Diff(float64(s1.Count), float64(s2.Count)),
			Mean:   Diff(s1.Mean, s2.Mean),
			Median: Diff(s1.Median, s2.Median),
			Max:    Diff(s1.Max, s2.Max),
		},
	}, nil
}

// Members returns the records belonging to a cohort, in input order.
func Members(records []dataset.Record, known []string, g GroupSpec) []dataset.Record {
	var match func(dataset.Record) bool
	switch g.Dimension {
	case DimensionBorough:
		set := borough.NormalizeAll(g.Values, known)
		match = func(r dataset.Record) bool { _, ok := set[r.Borough]; return ok }
	case DimensionCategory:
		set := make(map[string]struct{}, len(g.Values))
		for _, v := range g.Values {
			set[v] = struct{}{}
		}
		match = func(r dataset.Record) bool { _, ok := set[r.Category]; return ok }
	default:
		return nil
	}
	var out []dataset.Record
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func resolve(records []dataset.Record, known []string, g GroupSpec) GroupResult {
	members := Members(records, known, g)
	return GroupResult{
		Dimension:  g.Dimension,
		Values:     append([]string(nil), g.Values...),
		Members:    len(members),
		Statistics: stats.Describe(stats.Values(members)),
	}
}

// Diff computes a-b and its percentage of b, both rounded to two decimals.
func Diff(a, b float64) Difference {
	abs := a - b
	if b == 0 {
		return Difference{Absolute: round2(abs), PercentageUndefined: true}
	}
	return Difference{Absolute: round2(abs), Percentage: round2(abs / b * 100)}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
