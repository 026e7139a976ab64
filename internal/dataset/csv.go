package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseCSV decodes the tabular resource. The first line is the header; later lines
// are mapped positionally. Short rows leave trailing columns empty, long rows lose
// their extra cells, and rows that cannot be tokenized are skipped as anomalies.
func ParseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = cleanCell(h)
	}
	if len(cols) == 0 || (len(cols) == 1 && cols[0] == "") {
		return nil, errors.New("csv: empty header")
	}

	tbl := &Table{Columns: cols, Source: SourceCSV}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				tbl.Anomalies = append(tbl.Anomalies, ParseAnomaly{Line: pe.StartLine, Reason: pe.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := r.FieldPos(0)
		if blankRow(rec) {
			continue
		}
		if len(rec) != len(cols) {
			tbl.Anomalies = append(tbl.Anomalies, ParseAnomaly{
				Line:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", len(cols), len(rec)),
			})
		}
		fields := make(map[string]string, len(cols))
		for i, name := range cols {
			if i < len(rec) {
				fields[name] = cleanCell(rec[i])
			} else {
				fields[name] = ""
			}
		}
		row, ok := recordFromFields(fields)
		if !ok {
			reason := "missing identifier"
			if raw := fields[ColObjectID]; raw != "" {
				reason = fmt.Sprintf("invalid identifier %q", raw)
			}
			tbl.Anomalies = append(tbl.Anomalies, ParseAnomaly{Line: line, Reason: reason})
			continue
		}
		tbl.Records = append(tbl.Records, row)
	}
	return tbl, nil
}

func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
