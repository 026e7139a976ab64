// Package stats computes descriptive statistics over average pedestrian counts.
package stats

import (
	"math"
	"sort"

	"github.com/KaramelBytes/pedlens/internal/dataset"
)

// Statistics describes a numeric sample. Count is the size of the cleaned sample
// (NaN and infinite values removed).
type Statistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Describe computes statistics with the population standard deviation.
// An empty sample yields all zeros.
func Describe(values []float64) Statistics {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean = append(clean, v)
	}
	n := len(clean)
	if n == 0 {
		return Statistics{}
	}
	sort.Float64s(clean)

	var sum float64
	for _, v := range clean {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range clean {
		d := v - mean
		sq += d * d
	}

	median := clean[n/2]
	if n%2 == 0 {
		median = (clean[n/2-1] + clean[n/2]) / 2
	}
	return Statistics{
		Count:  n,
		Mean:   mean,
		Median: median,
		Min:    clean[0],
		Max:    clean[n-1],
		StdDev: math.Sqrt(sq / float64(n)),
	}
}

// Values extracts the usable average counts of records.
func Values(records []dataset.Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if r.HasCount() {
			out = append(out, *r.AvgCount)
		}
	}
	return out
}

// Group is the statistics of one partition.
type Group struct {
	Key string `json:"key"`
	// LocationCount is the number of records in the partition.
	LocationCount int `json:"location_count"`
	Statistics
}

// KeyFunc returns the partition key of a record; ok=false skips the record.
type KeyFunc func(dataset.Record) (key string, ok bool)

// DescribeBy partitions records by key, skipping records without a key or without
// a usable average count, and describes each partition. Groups are returned in
// the order their key first appears.
func DescribeBy(records []dataset.Record, key KeyFunc) []Group {
	buckets := make(map[string][]float64)
	var order []string
	for _, r := range records {
		k, ok := key(r)
		if !ok || !r.HasCount() {
			continue
		}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], *r.AvgCount)
	}
	out := make([]Group, 0, len(order))
	for _, k := range order {
		vals := buckets[k]
		out = append(out, Group{Key: k, LocationCount: len(vals), Statistics: Describe(vals)})
	}
	return out
}

// ByBorough keys records by their borough label.
func ByBorough(r dataset.Record) (string, bool) { return r.Borough, r.Borough != "" }

// ByCategory keys records by their category label.
func ByCategory(r dataset.Record) (string, bool) { return r.Category, r.Category != "" }
