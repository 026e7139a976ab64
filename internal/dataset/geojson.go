package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Source names reported on tables and metrics.
const (
	SourceCSV     = "csv"
	SourceGeoJSON = "geojson"
)

// FeatureCollection is the loaded geometry resource plus an identifier index.
type FeatureCollection struct {
	*geojson.FeatureCollection
	byID map[int64]*geojson.Feature
}

// NewFeatureCollection indexes fc by integer identifier. The first feature wins
// when identifiers repeat.
func NewFeatureCollection(fc *geojson.FeatureCollection) *FeatureCollection {
	if fc == nil {
		fc = &geojson.FeatureCollection{}
	}
	out := &FeatureCollection{FeatureCollection: fc, byID: make(map[int64]*geojson.Feature, len(fc.Features))}
	for _, f := range fc.Features {
		id, ok := FeatureID(f)
		if !ok {
			continue
		}
		if _, dup := out.byID[id]; !dup {
			out.byID[id] = f
		}
	}
	return out
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection document.
func ParseFeatureCollection(data []byte) (*FeatureCollection, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Features == nil {
		return nil, errors.New("decode geojson: no features array")
	}
	return NewFeatureCollection(&fc), nil
}

// Len returns the number of features.
func (fc *FeatureCollection) Len() int {
	if fc == nil || fc.FeatureCollection == nil {
		return 0
	}
	return len(fc.Features)
}

// Lookup returns the feature joined to a record identifier.
func (fc *FeatureCollection) Lookup(id int64) (*geojson.Feature, bool) {
	if fc == nil {
		return nil, false
	}
	f, ok := fc.byID[id]
	return f, ok
}

// FeatureID parses the OBJECTID (or objectid) property as an integer. Values that
// are not valid identifiers are treated as absent.
func FeatureID(f *geojson.Feature) (int64, bool) {
	if f == nil {
		return 0, false
	}
	for _, key := range []string{"OBJECTID", "objectid"} {
		if id, ok := Identifier(numberValue(f.Properties[key])); ok {
			return id, true
		}
	}
	return 0, false
}

// PointCoords returns longitude and latitude of a two-dimensional point geometry.
func PointCoords(f *geojson.Feature) (lon, lat float64, ok bool) {
	if f == nil {
		return 0, 0, false
	}
	pt, isPoint := f.Geometry.(*geom.Point)
	if !isPoint || pt == nil || pt.Layout() != geom.XY || len(pt.FlatCoords()) != 2 {
		return 0, 0, false
	}
	lon, lat = pt.X(), pt.Y()
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return 0, 0, false
	}
	return lon, lat, true
}

// PropertyString renders a property value as text; missing values render empty.
func PropertyString(props map[string]interface{}, key string) string {
	return valueString(props[key])
}

// NumberProperty parses a property as a number, accepting numeric strings.
func NumberProperty(props map[string]interface{}, key string) *float64 {
	return numberValue(props[key])
}

func valueString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatNumber(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func numberValue(v interface{}) *float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return &x
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case nil:
		return nil
	default:
		return ParseOptionalNumber(valueString(x))
	}
}

var canonicalColumns = []string{
	ColObjectID, ColLoc, ColBorough, ColStreetName, ColStreet,
	ColCategory, ColSegmentID, ColAvgCount, ColLatitude, ColLongitude,
}

// TableFromFeatures reshapes feature properties into the tabular record convention.
// Features without an identifier are dropped.
func TableFromFeatures(fc *FeatureCollection) *Table {
	tbl := &Table{Source: SourceGeoJSON}
	extra := map[string]struct{}{}
	if fc.Len() == 0 {
		tbl.Columns = append([]string(nil), canonicalColumns...)
		return tbl
	}
	for i, f := range fc.Features {
		id, ok := FeatureID(f)
		if !ok {
			tbl.Anomalies = append(tbl.Anomalies, ParseAnomaly{Line: i + 1, Reason: "feature without identifier"})
			continue
		}
		fields := make(map[string]string, len(f.Properties)+len(canonicalColumns))
		for k, v := range f.Properties {
			fields[k] = valueString(v)
			extra[k] = struct{}{}
		}
		fields[ColObjectID] = strconv.FormatInt(id, 10)
		fields[ColStreetName] = firstNonEmpty(fields[ColStreetName], fields["Street_Nam"])
		fields[ColStreet] = firstNonEmpty(fields[ColStreet], fields[ColStreetName])
		if lon, lat, ok := PointCoords(f); ok {
			fields[ColLongitude] = FormatNumber(lon)
			fields[ColLatitude] = FormatNumber(lat)
		}
		rec, ok := recordFromFields(fields)
		if !ok {
			continue
		}
		tbl.Records = append(tbl.Records, rec)
	}
	tbl.Columns = append([]string(nil), canonicalColumns...)
	for _, c := range canonicalColumns {
		delete(extra, c)
	}
	rest := make([]string, 0, len(extra))
	for k := range extra {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	tbl.Columns = append(tbl.Columns, rest...)
	return tbl
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
