package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/KaramelBytes/pedlens/internal/compare"
	"github.com/KaramelBytes/pedlens/internal/dataset"
	"github.com/KaramelBytes/pedlens/internal/filter"
	"github.com/KaramelBytes/pedlens/internal/metrics"
)

const testCSV = `OBJECTID,Loc,Borough,Street_Nam_clean,street_clean,Category,segmentid,avg_recent_count
1,11,Manhattan,Broadway,Broadway,Global,100,5
2,12,Bronx,Grand Concourse,Grand Concourse,Neighborhood,200,50
3,13,Manhattan,"Fifth Ave, North",Fifth Ave,Global,300,20
4,14,Brooklyn,Flatbush Ave,Flatbush Ave,Neighborhood,400,80
5,15,East River Bridges,Brooklyn Bridge,Brooklyn Bridge,Global,500,10
6,16,Queens,Main St,Main St,Global,600,
`

const testGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"Point","coordinates":[-73.98,40.75]},
 "properties":{"OBJECTID":1,"Loc":11,"Borough":"Manhattan","Street_Nam_clean":"Broadway","Category":"Global","May07_AM_num":"120","Sept07_PM_num":"0","May07_PM_num":45}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[-73.92,40.83]},"properties":{"objectid":"2"}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[-73.97,40.77]},"properties":{"OBJECTID":3}},
{"type":"Feature","geometry":null,"properties":{"OBJECTID":4}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[-73.99,40.70]},"properties":{"OBJECTID":5}}
]}`

func newTestService(t *testing.T, docs map[string]string) (*Service, *metrics.Metrics) {
	t.Helper()
	fetch := dataset.FetcherFunc(func(_ context.Context, loc string) ([]byte, error) {
		doc, ok := docs[loc]
		if !ok {
			return nil, errors.New("not found: " + loc)
		}
		return []byte(doc), nil
	})
	m := metrics.New(prometheus.NewRegistry())
	loader := dataset.NewLoader(dataset.Options{
		CSVSource:     "counts.csv",
		GeoJSONSource: "counts.geojson",
		Fetcher:       fetch,
		Observer:      m,
	})
	return NewService(loader, m), m
}

func defaultService(t *testing.T) *Service {
	s, _ := newTestService(t, map[string]string{"counts.csv": testCSV, "counts.geojson": testGeoJSON})
	return s
}

func TestTopSites(t *testing.T) {
	s := defaultService(t)
	ctx := context.Background()

	top, err := s.TopSites(ctx, 3, "")
	if err != nil {
		t.Fatalf("TopSites: %v", err)
	}
	if top.Count != 3 || len(top.Sites) != 3 {
		t.Fatalf("top = %+v", top)
	}
	wantIDs := []int64{4, 2, 3}
	for i, id := range wantIDs {
		if top.Sites[i].Location.ID != id {
			t.Fatalf("site %d = %+v, want id %d", i, top.Sites[i], id)
		}
	}
	if top.Sites[0].AvgCount != 80 {
		t.Fatalf("first count = %v", top.Sites[0].AvgCount)
	}

	manhattan, err := s.TopSites(ctx, 10, "manhattan")
	if err != nil {
		t.Fatalf("TopSites: %v", err)
	}
	if manhattan.Count != 2 || manhattan.Sites[0].Location.ID != 3 {
		t.Fatalf("manhattan = %+v", manhattan)
	}

	none, err := s.TopSites(ctx, 0, "")
	if err != nil || none.Count != 0 {
		t.Fatalf("limit 0 = %+v, %v", none, err)
	}
}

func TestSiteCount(t *testing.T) {
	s := defaultService(t)
	ctx := context.Background()
	tests := []struct {
		borough string
		want    int
	}{
		{"", 5},
		{"Manhattan", 2},
		{"Bridges", 1},
		{"Staten Island", 0},
	}
	for _, tt := range tests {
		got, err := s.SiteCount(ctx, tt.borough)
		if err != nil {
			t.Fatalf("SiteCount(%q): %v", tt.borough, err)
		}
		if got != tt.want {
			t.Fatalf("SiteCount(%q) = %d, want %d", tt.borough, got, tt.want)
		}
	}
}

func TestSummaryStatistics(t *testing.T) {
	s := defaultService(t)
	sum, err := s.SummaryStatistics(context.Background(), filter.Spec{Categories: []string{"Global"}})
	if err != nil {
		t.Fatalf("SummaryStatistics: %v", err)
	}
	if sum.TotalLocations != 4 {
		t.Fatalf("total = %d, want 4", sum.TotalLocations)
	}
	if sum.Statistics.Count != 3 || sum.Statistics.Max != 20 || sum.Statistics.Min != 5 {
		t.Fatalf("statistics = %+v", sum.Statistics)
	}
}

func TestGroupedStatistics(t *testing.T) {
	s := defaultService(t)
	ctx := context.Background()

	byBorough, err := s.GroupedStatistics(ctx, DimensionBorough)
	if err != nil {
		t.Fatalf("GroupedStatistics: %v", err)
	}
	if len(byBorough) != 4 || byBorough[0].Key != "Manhattan" || byBorough[0].LocationCount != 2 {
		t.Fatalf("borough groups = %+v", byBorough)
	}

	byCategory, err := s.GroupedStatistics(ctx, DimensionCategory)
	if err != nil {
		t.Fatalf("GroupedStatistics: %v", err)
	}
	if len(byCategory) != 2 || byCategory[0].Key != "Neighborhood" || byCategory[0].Mean != 65 {
		t.Fatalf("category groups = %+v", byCategory)
	}

	if _, err := s.GroupedStatistics(ctx, "street"); !errors.Is(err, ErrUnknownDimension) {
		t.Fatalf("err = %v, want ErrUnknownDimension", err)
	}
}

func TestLocationsJoin(t *testing.T) {
	s := defaultService(t)
	fc, err := s.Locations(context.Background(), filter.Spec{})
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	// 4 has no geometry, 6 has no feature.
	if fc.Len() != 4 {
		t.Fatalf("features = %d, want 4", fc.Len())
	}
	f, ok := fc.Lookup(2)
	if !ok {
		t.Fatal("feature 2 missing")
	}
	p := f.Properties
	if p["borough"] != "Bronx" || p["street_name_clean"] != "Grand Concourse" || p["avg_recent_count"] != float64(50) {
		t.Fatalf("properties = %+v", p)
	}
	if p["loc_id"] != "12" || p["id"] != int64(2) {
		t.Fatalf("ids = %v %v", p["loc_id"], p["id"])
	}
}

func TestExportGeoSpatialRoundTrip(t *testing.T) {
	s := defaultService(t)
	ctx := context.Background()
	spec := filter.Spec{Boroughs: []string{"Manhattan", "Bridges"}}

	want, err := s.Locations(ctx, spec)
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	b, err := s.ExportGeoSpatial(ctx, spec)
	if err != nil {
		t.Fatalf("ExportGeoSpatial: %v", err)
	}
	got, err := dataset.ParseFeatureCollection(b)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if got.Len() != want.Len() || got.Len() != 3 {
		t.Fatalf("round trip = %d features, want %d", got.Len(), want.Len())
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil || raw["type"] != "FeatureCollection" {
		t.Fatalf("export is not a FeatureCollection: %v", err)
	}
}

func TestExportTabular(t *testing.T) {
	s := defaultService(t)
	b, err := s.ExportTabular(context.Background(), filter.Spec{Search: "fifth"})
	if err != nil {
		t.Fatalf("ExportTabular: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != `"OBJECTID","Loc","Borough","Street_Nam_clean","street_clean","Category","segmentid","avg_recent_count"` {
		t.Fatalf("header = %s", lines[0])
	}
	if lines[1] != `"3","13","Manhattan","Fifth Ave, North","Fifth Ave","Global","300","20"` {
		t.Fatalf("row = %s", lines[1])
	}
}

func TestCompareGroups(t *testing.T) {
	s := defaultService(t)
	res, err := s.CompareGroups(context.Background(),
		compare.GroupSpec{Dimension: DimensionBorough, Values: []string{"Manhattan"}},
		compare.GroupSpec{Dimension: DimensionBorough, Values: []string{"Staten Island"}},
	)
	if err != nil {
		t.Fatalf("CompareGroups: %v", err)
	}
	if res.Differences.Mean.Percentage != 0 || !res.Differences.Mean.PercentageUndefined {
		t.Fatalf("mean diff = %+v", res.Differences.Mean)
	}
	if res.Group1.Statistics.Mean != 12.5 {
		t.Fatalf("group1 = %+v", res.Group1)
	}
}

func TestTimeSeries(t *testing.T) {
	s := defaultService(t)
	ctx := context.Background()

	series, err := s.TimeSeries(ctx, 1)
	if err != nil {
		t.Fatalf("TimeSeries: %v", err)
	}
	if series.TotalRecords != 2 || series.Location == nil || series.Location.Borough != "Manhattan" {
		t.Fatalf("series = %+v", series)
	}
	first := series.Counts[0]
	if first.Date != "2007-05-15" || first.Period != "AM" || first.Value != 120 {
		t.Fatalf("first point = %+v", first)
	}
	for _, p := range series.Counts {
		if strings.HasPrefix(p.Date, "2007-09") {
			t.Fatalf("zero-valued entry kept: %+v", p)
		}
	}

	missing, err := s.TimeSeries(ctx, 999)
	if err != nil {
		t.Fatalf("TimeSeries: %v", err)
	}
	if missing.Location != nil || len(missing.Counts) != 0 || missing.TotalRecords != 0 {
		t.Fatalf("missing = %+v", missing)
	}
}

func TestDataUnavailable(t *testing.T) {
	s, m := newTestService(t, map[string]string{})
	_, err := s.TopSites(context.Background(), 3, "")
	if !errors.Is(err, dataset.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
	var uerr *dataset.UnavailableError
	if !errors.As(err, &uerr) || uerr.Source != "counts.csv" {
		t.Fatalf("err = %#v", err)
	}
	if got := testutil.ToFloat64(m.DatasetFallbacks); got != 1 {
		t.Fatalf("fallbacks = %v", got)
	}
}

func TestQueriesAreCounted(t *testing.T) {
	s, m := newTestService(t, map[string]string{"counts.csv": testCSV, "counts.geojson": testGeoJSON})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := s.SiteCount(ctx, ""); err != nil {
			t.Fatalf("SiteCount: %v", err)
		}
	}
	if got := testutil.ToFloat64(m.Queries.WithLabelValues("site_count")); got != 2 {
		t.Fatalf("site_count queries = %v", got)
	}
	if got := testutil.ToFloat64(m.DatasetLoads.WithLabelValues(dataset.SourceCSV, dataset.OutcomeSuccess)); got != 1 {
		t.Fatalf("csv loads = %v, want cached after first", got)
	}
}
