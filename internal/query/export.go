package query

import (
	"bytes"
	"context"
	"strings"

	"github.com/goccy/go-json"

	"github.com/KaramelBytes/pedlens/internal/filter"
)

// ExportTabular renders the filtered records as CSV. The header is the table's
// column order and every value is double-quoted.
func (s *Service) ExportTabular(ctx context.Context, spec filter.Spec) ([]byte, error) {
	tbl, known, err := s.table(ctx, "export_csv")
	if err != nil {
		return nil, err
	}
	recs := filter.Apply(tbl.Records, known, spec)

	var buf bytes.Buffer
	writeRow(&buf, tbl.Columns)
	row := make([]string, len(tbl.Columns))
	for _, r := range recs {
		for i, col := range tbl.Columns {
			row[i] = r.Fields[col]
		}
		writeRow(&buf, row)
	}
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(c, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// ExportGeoSpatial renders Locations(spec) as an indented GeoJSON FeatureCollection.
func (s *Service) ExportGeoSpatial(ctx context.Context, spec filter.Spec) ([]byte, error) {
	fc, err := s.Locations(ctx, spec)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(fc.FeatureCollection, "", "  ")
}
