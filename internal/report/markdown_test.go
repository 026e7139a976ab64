package report

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/pedlens/internal/compare"
	"github.com/KaramelBytes/pedlens/internal/filter"
	"github.com/KaramelBytes/pedlens/internal/query"
	"github.com/KaramelBytes/pedlens/internal/stats"
	"github.com/KaramelBytes/pedlens/internal/timeseries"
)

func TestSummaryMarkdown(t *testing.T) {
	lo := 10.0
	md := Summary(&query.Summary{TotalLocations: 4, Statistics: stats.Statistics{Count: 3, Mean: 11.666}},
		filter.Spec{Boroughs: []string{"Bronx"}, MinCount: &lo})
	for _, want := range []string{"[SUMMARY STATISTICS]", "Filter: borough=Bronx, min=10", "Locations: 4", "- mean: 11.67"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q: %s", want, md)
		}
	}
}

func TestGroupsMarkdown(t *testing.T) {
	md := Groups("borough", []stats.Group{{Key: "Queens|East", LocationCount: 2, Statistics: stats.Statistics{Mean: 20}}})
	if !strings.Contains(md, "[STATISTICS BY BOROUGH]") || !strings.Contains(md, "| Queens/East | 2 | 20.00 |") {
		t.Fatalf("unexpected markdown: %s", md)
	}
	if !strings.Contains(Groups("category", nil), "(no data)") {
		t.Fatal("empty groups should say so")
	}
}

func TestComparisonMarkdown(t *testing.T) {
	md := Comparison(&compare.Result{
		Group1:      compare.GroupResult{Dimension: "borough", Values: []string{"Manhattan"}, Members: 2},
		Group2:      compare.GroupResult{Dimension: "borough", Values: []string{"Bronx", "Queens"}},
		Differences: compare.Differences{Mean: compare.Difference{Absolute: 5, Percentage: 12.5}, Max: compare.Difference{PercentageUndefined: true}},
	})
	for _, want := range []string{"Group 1: borough=Manhattan (2 locations)", "borough=Bronx|Queens", "+12.50%", "n/a"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q: %s", want, md)
		}
	}
}

func TestSeriesMarkdown(t *testing.T) {
	md := Series(&query.Series{
		LocationID:   7,
		Location:     &query.LocationInfo{ID: 7, Borough: "Queens", StreetNameClean: "Main St"},
		Counts:       []timeseries.Point{{Date: "2007-05-15", Period: "AM", Value: 120}},
		TotalRecords: 1,
	})
	if !strings.Contains(md, "Location: 7 (Main St, Queens)") || !strings.Contains(md, "| 2007-05-15 | AM | 120 |") {
		t.Fatalf("unexpected markdown: %s", md)
	}
	if !strings.Contains(Series(&query.Series{LocationID: 9}), "(not found)") {
		t.Fatal("missing location should be reported")
	}
}

func TestTopSitesMarkdown(t *testing.T) {
	md := TopSites(&query.TopSites{Sites: []query.Site{{Location: query.LocationInfo{ID: 4, Borough: "Brooklyn", StreetClean: "Flatbush"}, AvgCount: 80}}, Count: 1}, "Brooklyn")
	if !strings.Contains(md, "| 1 | 4 |") || !strings.Contains(md, "Flatbush") || !strings.Contains(md, "80.00") {
		t.Fatalf("unexpected markdown: %s", md)
	}
}
