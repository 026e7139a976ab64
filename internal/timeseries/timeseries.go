// Package timeseries rebuilds dated count observations from the historical
// period properties of a location (keys such as May07_AM_num).
package timeseries

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/KaramelBytes/pedlens/internal/dataset"
)

// Point is one observation.
type Point struct {
	Date   string `json:"count_date"`
	Period string `json:"period"`
	Value  int64  `json:"count_value"`
}

var periodKey = regexp.MustCompile(`^(May|Sept|Oct|June|Jun|Apr|Mar|Feb|Jan|Nov|Dec|Jul|Aug)(\d{2})_(AM|MD|PM)_num$`)

var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March, "Apr": time.April,
	"May": time.May, "June": time.June, "Jun": time.June, "Jul": time.July,
	"Aug": time.August, "Sept": time.September, "Oct": time.October,
	"Nov": time.November, "Dec": time.December,
}

var periodRank = map[string]int{"AM": 1, "MD": 2, "PM": 3}

// observationDay is the day of month assigned to every observation; the source
// only records month and year.
const observationDay = 15

// Reconstruct returns the positive observations found in props, ordered by date
// and then AM, MD, PM. Values are rounded to whole counts.
func Reconstruct(props map[string]interface{}) []Point {
	out := []Point{}
	for key := range props {
		m := periodKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		v := dataset.NumberProperty(props, key)
		if v == nil || math.IsInf(*v, 0) || *v <= 0 {
			continue
		}
		yy, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		date := time.Date(2000+yy, months[m[1]], observationDay, 0, 0, 0, 0, time.UTC)
		out = append(out, Point{
			Date:   date.Format(time.DateOnly),
			Period: m[3],
			Value:  int64(math.Round(*v)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return periodRank[out[i].Period] < periodRank[out[j].Period]
	})
	return out
}
