// Package query is the entry point for analytical questions over the pedestrian
// counting dataset. Every call loads (or reuses) the cached dataset, narrows it
// with a filter.Spec and hands the result to the statistics, comparison or
// time-series engines.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/KaramelBytes/pedlens/internal/borough"
	"github.com/KaramelBytes/pedlens/internal/compare"
	"github.com/KaramelBytes/pedlens/internal/dataset"
	"github.com/KaramelBytes/pedlens/internal/filter"
	"github.com/KaramelBytes/pedlens/internal/logging"
	"github.com/KaramelBytes/pedlens/internal/metrics"
	"github.com/KaramelBytes/pedlens/internal/stats"
	"github.com/KaramelBytes/pedlens/internal/timeseries"
)

// Grouping dimensions accepted by GroupedStatistics.
const (
	DimensionBorough  = compare.DimensionBorough
	DimensionCategory = compare.DimensionCategory
)

// ErrUnknownDimension is returned for a grouping dimension other than borough or category.
var ErrUnknownDimension = errors.New("unknown dimension")

// Source provides the two dataset resources. *dataset.Loader implements it.
type Source interface {
	Records(ctx context.Context) (*dataset.Table, error)
	Features(ctx context.Context) (*dataset.FeatureCollection, error)
}

// Service answers queries. It is safe for concurrent use.
type Service struct {
	src     Source
	metrics *metrics.Metrics
}

// NewService returns a Service over src. m may be nil.
func NewService(src Source, m *metrics.Metrics) *Service {
	return &Service{src: src, metrics: m}
}

// Summary is the statistics of a filtered record set.
type Summary struct {
	// TotalLocations is the number of records passing the filter.
	TotalLocations int              `json:"total_locations"`
	Statistics     stats.Statistics `json:"statistics"`
}

// LocationInfo is the display metadata of one counting location.
type LocationInfo struct {
	ID              int64    `json:"id"`
	ObjectID        int64    `json:"objectid"`
	LocID           string   `json:"loc_id"`
	Borough         string   `json:"borough"`
	StreetNameClean string   `json:"street_name_clean"`
	StreetClean     string   `json:"street_clean"`
	Category        string   `json:"category"`
	SegmentID       *float64 `json:"segmentid,omitempty"`
}

// Site is one ranked location.
type Site struct {
	Location LocationInfo `json:"location"`
	AvgCount float64      `json:"avg_recent_count"`
}

// TopSites is the result of a top-N ranking.
type TopSites struct {
	Sites []Site `json:"sites"`
	Count int    `json:"count"`
}

// Series is the reconstructed history of one location.
type Series struct {
	LocationID   int64              `json:"location_id"`
	Location     *LocationInfo      `json:"location,omitempty"`
	Counts       []timeseries.Point `json:"counts"`
	TotalRecords int                `json:"total_records"`
}

// table loads the records and their known borough labels.
func (s *Service) table(ctx context.Context, op string) (*dataset.Table, []string, error) {
	s.metrics.ObserveQuery(op)
	tbl, err := s.src.Records(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tbl, borough.KnownLabels(tbl.Records), nil
}

// Locations joins the filtered records to their geometry. Records without a
// feature or without a valid point are dropped.
func (s *Service) Locations(ctx context.Context, spec filter.Spec) (*dataset.FeatureCollection, error) {
	tbl, known, err := s.table(ctx, "locations")
	if err != nil {
		return nil, err
	}
	fc, err := s.src.Features(ctx)
	if err != nil {
		return nil, err
	}
	recs := filter.Apply(tbl.Records, known, spec)
	out := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(recs))}
	for _, r := range recs {
		f, ok := fc.Lookup(r.ID)
		if !ok {
			continue
		}
		if _, _, ok := dataset.PointCoords(f); !ok {
			continue
		}
		out.Features = append(out.Features, joinFeature(r, f))
	}
	log := logging.With("query")
	log.Debug().Int("records", len(recs)).Int("features", len(out.Features)).Msg("locations")
	return dataset.NewFeatureCollection(out), nil
}

func joinFeature(r dataset.Record, f *geojson.Feature) *geojson.Feature {
	props := make(map[string]interface{}, len(f.Properties)+10)
	for k, v := range f.Properties {
		props[k] = v
	}
	props["objectid"] = r.ID
	props["id"] = r.ID
	props["loc_id"] = r.LocationCode
	props["borough"] = r.Borough
	props["street_name_clean"] = firstNonEmpty(r.StreetName, dataset.PropertyString(f.Properties, dataset.ColStreetName))
	props["street_clean"] = firstNonEmpty(r.StreetClean, dataset.PropertyString(f.Properties, dataset.ColStreet))
	props["category"] = r.Category
	props["segmentid"] = optional(r.SegmentID)
	props["avg_recent_count"] = optional(r.AvgCount)
	return &geojson.Feature{ID: f.ID, BBox: f.BBox, Geometry: f.Geometry, Properties: props}
}

// SummaryStatistics describes the average counts of the filtered records.
func (s *Service) SummaryStatistics(ctx context.Context, spec filter.Spec) (*Summary, error) {
	tbl, known, err := s.table(ctx, "summary")
	if err != nil {
		return nil, err
	}
	recs := filter.Apply(tbl.Records, known, spec)
	return &Summary{TotalLocations: len(recs), Statistics: stats.Describe(stats.Values(recs))}, nil
}

// GroupedStatistics partitions all records by borough or category. Borough groups
// keep first-seen order; category groups are ordered by mean, highest first.
func (s *Service) GroupedStatistics(ctx context.Context, dimension string) ([]stats.Group, error) {
	var key stats.KeyFunc
	switch dimension {
	case DimensionBorough:
		key = stats.ByBorough
	case DimensionCategory:
		key = stats.ByCategory
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
	}
	tbl, _, err := s.table(ctx, "grouped_"+dimension)
	if err != nil {
		return nil, err
	}
	groups := stats.DescribeBy(tbl.Records, key)
	if dimension == DimensionCategory {
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Mean > groups[j].Mean })
	}
	return groups, nil
}

// ranked returns the records with a usable count, scoped to a borough label
// (empty keeps all) and sorted by count descending. Ties keep input order.
func (s *Service) ranked(ctx context.Context, op, label string) ([]dataset.Record, error) {
	tbl, known, err := s.table(ctx, op)
	if err != nil {
		return nil, err
	}
	recs := make([]dataset.Record, 0, len(tbl.Records))
	for _, r := range tbl.Records {
		if r.HasCount() {
			recs = append(recs, r)
		}
	}
	recs = filter.ByBorough(recs, known, label)
	sort.SliceStable(recs, func(i, j int) bool { return *recs[i].AvgCount > *recs[j].AvgCount })
	return recs, nil
}

// TopSites returns up to limit locations with the highest average count.
func (s *Service) TopSites(ctx context.Context, limit int, boroughLabel string) (*TopSites, error) {
	recs, err := s.ranked(ctx, "top_sites", boroughLabel)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if limit < len(recs) {
		recs = recs[:limit]
	}
	out := &TopSites{Sites: make([]Site, 0, len(recs))}
	for _, r := range recs {
		out.Sites = append(out.Sites, Site{Location: info(r), AvgCount: *r.AvgCount})
	}
	out.Count = len(out.Sites)
	return out, nil
}

// SiteCount is the number of rankable locations in a borough (empty = all), the
// upper bound for a TopSites limit.
func (s *Service) SiteCount(ctx context.Context, boroughLabel string) (int, error) {
	recs, err := s.ranked(ctx, "site_count", boroughLabel)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// CompareGroups contrasts two cohorts over all records.
func (s *Service) CompareGroups(ctx context.Context, g1, g2 compare.GroupSpec) (*compare.Result, error) {
	tbl, known, err := s.table(ctx, "compare")
	if err != nil {
		return nil, err
	}
	return compare.Compare(tbl.Records, known, g1, g2)
}

// TimeSeries reconstructs the history of the location with the given identifier.
// An unknown identifier yields an empty series.
func (s *Service) TimeSeries(ctx context.Context, id int64) (*Series, error) {
	s.metrics.ObserveQuery("time_series")
	fc, err := s.src.Features(ctx)
	if err != nil {
		return nil, err
	}
	out := &Series{LocationID: id, Counts: []timeseries.Point{}}
	f, ok := fc.Lookup(id)
	if !ok {
		return out, nil
	}
	p := f.Properties
	out.Location = &LocationInfo{
		ID:              id,
		ObjectID:        id,
		LocID:           dataset.PropertyString(p, dataset.ColLoc),
		Borough:         dataset.PropertyString(p, dataset.ColBorough),
		StreetNameClean: dataset.PropertyString(p, dataset.ColStreetName),
		StreetClean:     dataset.PropertyString(p, dataset.ColStreet),
		Category:        dataset.PropertyString(p, dataset.ColCategory),
		SegmentID:       dataset.NumberProperty(p, dataset.ColSegmentID),
	}
	out.Counts = timeseries.Reconstruct(p)
	out.TotalRecords = len(out.Counts)
	return out, nil
}

func info(r dataset.Record) LocationInfo {
	return LocationInfo{
		ID:              r.ID,
		ObjectID:        r.ID,
		LocID:           r.LocationCode,
		Borough:         r.Borough,
		StreetNameClean: r.StreetName,
		StreetClean:     r.StreetClean,
		Category:        r.Category,
		SegmentID:       r.SegmentID,
	}
}

func optional(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
