// Package report renders query results as plain Markdown for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/pedlens/internal/compare"
	"github.com/KaramelBytes/pedlens/internal/dataset"
	"github.com/KaramelBytes/pedlens/internal/filter"
	"github.com/KaramelBytes/pedlens/internal/query"
	"github.com/KaramelBytes/pedlens/internal/stats"
)

// Summary renders summary statistics and the filter that produced them.
func Summary(s *query.Summary, spec filter.Spec) string {
	var b strings.Builder
	b.WriteString("[SUMMARY STATISTICS]\n")
	writeFilter(&b, spec)
	b.WriteString(fmt.Sprintf("Locations: %d\n", s.TotalLocations))
	writeStats(&b, s.Statistics)
	return b.String()
}

func writeFilter(b *strings.Builder, spec filter.Spec) {
	if spec.IsEmpty() {
		return
	}
	var parts []string
	if len(spec.Boroughs) > 0 {
		parts = append(parts, "borough="+strings.Join(spec.Boroughs, "|"))
	}
	if len(spec.Categories) > 0 {
		parts = append(parts, "category="+strings.Join(spec.Categories, "|"))
	}
	if spec.MinCount != nil {
		parts = append(parts, "min="+dataset.FormatNumber(*spec.MinCount))
	}
	if spec.MaxCount != nil {
		parts = append(parts, "max="+dataset.FormatNumber(*spec.MaxCount))
	}
	if s := strings.TrimSpace(spec.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search=%q", s))
	}
	b.WriteString("Filter: " + strings.Join(parts, ", ") + "\n")
}

func writeStats(b *strings.Builder, s stats.Statistics) {
	b.WriteString(fmt.Sprintf("- samples: %d\n", s.Count))
	b.WriteString(fmt.Sprintf("- mean: %.2f\n", s.Mean))
	b.WriteString(fmt.Sprintf("- median: %.2f\n", s.Median))
	b.WriteString(fmt.Sprintf("- min: %.2f\n", s.Min))
	b.WriteString(fmt.Sprintf("- max: %.2f\n", s.Max))
	b.WriteString(fmt.Sprintf("- std dev: %.2f\n", s.StdDev))
}

// Groups renders grouped statistics as a table.
func Groups(dimension string, groups []stats.Group) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[STATISTICS BY %s]\n", strings.ToUpper(dimension)))
	if len(groups) == 0 {
		b.WriteString("(no data)\n")
		return b.String()
	}
	writeRow(&b, safeName(dimension), "locations", "mean", "median", "min", "max", "std dev")
	writeRule(&b, 7)
	for _, g := range groups {
		writeRow(&b, safeVal(g.Key), fmt.Sprint(g.LocationCount),
			f2(g.Mean), f2(g.Median), f2(g.Min), f2(g.Max), f2(g.StdDev))
	}
	return b.String()
}

// TopSites renders a ranking.
func TopSites(t *query.TopSites, boroughLabel string) string {
	var b strings.Builder
	b.WriteString("[TOP SITES]\n")
	if boroughLabel != "" {
		b.WriteString(fmt.Sprintf("Borough: %s\n", boroughLabel))
	}
	if t.Count == 0 {
		b.WriteString("(no sites)\n")
		return b.String()
	}
	writeRow(&b, "#", "id", "loc", "borough", "street", "category", "avg count")
	writeRule(&b, 7)
	for i, s := range t.Sites {
		l := s.Location
		writeRow(&b, fmt.Sprint(i+1), fmt.Sprint(l.ID), safeVal(l.LocID), safeVal(l.Borough),
			safeVal(firstNonEmpty(l.StreetNameClean, l.StreetClean)), safeVal(l.Category), f2(s.AvgCount))
	}
	return b.String()
}

// Comparison renders a two-group comparison.
func Comparison(r *compare.Result) string {
	var b strings.Builder
	b.WriteString("[COMPARISON]\n")
	g1 := groupLabel(r.Group1)
	g2 := groupLabel(r.Group2)
	b.WriteString(fmt.Sprintf("Group 1: %s (%d locations)\n", g1, r.Group1.Members))
	b.WriteString(fmt.Sprintf("Group 2: %s (%d locations)\n\n", g2, r.Group2.Members))
	writeRow(&b, "metric", "group 1", "group 2", "difference", "change")
	writeRule(&b, 5)
	s1, s2, d := r.Group1.Statistics, r.Group2.Statistics, r.Differences
	writeRow(&b, "count", fmt.Sprint(s1.Count), fmt.Sprint(s2.Count), f2(d.Count.Absolute), pct(d.Count))
	writeRow(&b, "mean", f2(s1.Mean), f2(s2.Mean), f2(d.Mean.Absolute), pct(d.Mean))
	writeRow(&b, "median", f2(s1.Median), f2(s2.Median), f2(d.Median.Absolute), pct(d.Median))
	writeRow(&b, "max", f2(s1.Max), f2(s2.Max), f2(d.Max.Absolute), pct(d.Max))
	return b.String()
}

func groupLabel(g compare.GroupResult) string {
	return fmt.Sprintf("%s=%s", g.Dimension, strings.Join(g.Values, "|"))
}

func pct(d compare.Difference) string {
	if d.PercentageUndefined {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", d.Percentage)
}

// Locations renders the joined features as a table.
func Locations(fc *dataset.FeatureCollection) string {
	var b strings.Builder
	b.WriteString("[LOCATIONS]\n")
	b.WriteString(fmt.Sprintf("Features: %d\n", fc.Len()))
	if fc.Len() == 0 {
		return b.String()
	}
	b.WriteString("\n")
	writeRow(&b, "id", "borough", "street", "category", "avg count", "lon", "lat")
	writeRule(&b, 7)
	for _, f := range fc.Features {
		p := f.Properties
		lon, lat, _ := dataset.PointCoords(f)
		avg := "-"
		if n := dataset.NumberProperty(p, "avg_recent_count"); n != nil {
			avg = f2(*n)
		}
		writeRow(&b, dataset.PropertyString(p, "id"), safeVal(dataset.PropertyString(p, "borough")),
			safeVal(dataset.PropertyString(p, "street_name_clean")), safeVal(dataset.PropertyString(p, "category")),
			avg, fmt.Sprintf("%.5f", lon), fmt.Sprintf("%.5f", lat))
	}
	return b.String()
}

// Series renders a reconstructed time series.
func Series(s *query.Series) string {
	var b strings.Builder
	b.WriteString("[TIME SERIES]\n")
	b.WriteString(fmt.Sprintf("Location: %d", s.LocationID))
	if l := s.Location; l != nil {
		b.WriteString(fmt.Sprintf(" (%s, %s)", safeVal(firstNonEmpty(l.StreetNameClean, l.StreetClean)), safeVal(l.Borough)))
	} else {
		b.WriteString(" (not found)")
	}
	b.WriteString(fmt.Sprintf("\nObservations: %d\n", s.TotalRecords))
	if len(s.Counts) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	writeRow(&b, "date", "period", "count")
	writeRule(&b, 3)
	for _, p := range s.Counts {
		writeRow(&b, p.Date, p.Period, fmt.Sprint(p.Value))
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func writeRule(b *strings.Builder, n int) {
	b.WriteString("|")
	b.WriteString(strings.Repeat(" --- |", n))
	b.WriteString("\n")
}

func f2(v float64) string { return fmt.Sprintf("%.2f", v) }

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
