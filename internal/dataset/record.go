package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Column names of the tabular resource.
const (
	ColObjectID   = "OBJECTID"
	ColLoc        = "Loc"
	ColBorough    = "Borough"
	ColStreetName = "Street_Nam_clean"
	ColStreet     = "street_clean"
	ColCategory   = "Category"
	ColSegmentID  = "segmentid"
	ColAvgCount   = "avg_recent_count"
	ColLatitude   = "latitude"
	ColLongitude  = "longitude"
)

// Record is one counting location from the tabular dataset.
type Record struct {
	ID           int64
	LocationCode string
	Borough      string
	StreetName   string
	StreetClean  string
	Category     string
	SegmentID    *float64
	AvgCount     *float64
	Latitude     *float64
	Longitude    *float64
	// Fields holds every raw column, including historical period columns.
	Fields map[string]string
}

// HasCoordinates reports whether both coordinates are present and finite.
func (r Record) HasCoordinates() bool {
	return finite(r.Latitude) && finite(r.Longitude)
}

// HasCount reports whether the average recent count is a usable number.
func (r Record) HasCount() bool { return finite(r.AvgCount) }

func finite(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

// Table is the loaded tabular dataset. It is never mutated after load.
type Table struct {
	Columns   []string
	Records   []Record
	Source    string
	Anomalies []ParseAnomaly
}

// ParseOptionalNumber parses a trimmed, unquoted numeric string. It never fails:
// blank or non-numeric input yields nil.
func ParseOptionalNumber(s string) *float64 {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

// FormatNumber renders a number the way it reads in the source data (12, 3.5).
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// maxIdentifier is 2^63, the first float64 outside the int64 range.
const maxIdentifier = float64(1 << 63)

// Identifier converts a parsed number to a record identifier. Only finite, whole,
// non-zero values inside the int64 range qualify; fractions are rejected rather
// than truncated so that 2.7 cannot collide with 2.
func Identifier(n *float64) (int64, bool) {
	if !finite(n) {
		return 0, false
	}
	f := *n
	if f != math.Trunc(f) || f >= maxIdentifier || f < -maxIdentifier || f == 0 {
		return 0, false
	}
	return int64(f), true
}

// recordFromFields builds a Record from a raw column map. ok is false when the
// identifier is missing or not a valid integer (see Identifier).
func recordFromFields(fields map[string]string) (Record, bool) {
	id, ok := Identifier(ParseOptionalNumber(fields[ColObjectID]))
	if !ok {
		return Record{}, false
	}
	r := Record{
		ID:          id,
		Borough:     fields[ColBorough],
		StreetName:  fields[ColStreetName],
		StreetClean: fields[ColStreet],
		Category:    fields[ColCategory],
		SegmentID:   ParseOptionalNumber(fields[ColSegmentID]),
		AvgCount:    ParseOptionalNumber(fields[ColAvgCount]),
		Latitude:    ParseOptionalNumber(fields[ColLatitude]),
		Longitude:   ParseOptionalNumber(fields[ColLongitude]),
		Fields:      fields,
	}
	if loc := ParseOptionalNumber(fields[ColLoc]); loc != nil {
		r.LocationCode = FormatNumber(*loc)
	} else {
		r.LocationCode = strings.TrimSpace(fields[ColLoc])
	}
	return r, true
}
