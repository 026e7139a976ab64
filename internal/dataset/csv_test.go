package dataset

import (
	"strings"
	"testing"
)

const sampleCSV = `OBJECTID,Loc,Borough,Street_Nam_clean,street_clean,Category,segmentid,avg_recent_count,May07_AM,May07_AM_num
"1","101","Manhattan","Broadway","Broadway","Global","55","120.5","120","120"
"2","102","Bronx","Grand Concourse","Grand Concourse","Neighborhood","abc","","",""

"","103","Queens","Main St","Main St","Global","1","10","",""
"3","104","Brooklyn"
"4","105","Queens","Main St","Main St","Global","1","10","","","extra"
"Infinity","106","Queens","A St","A St","Global","1","10","",""
"1e30","107","Queens","B St","B St","Global","1","10","",""
"2.7","108","Queens","C St","C St","Global","1","10","",""
`

func TestParseCSV_LenientRows(t *testing.T) {
	tbl, err := ParseCSV([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if tbl.Source != SourceCSV {
		t.Fatalf("source = %q", tbl.Source)
	}
	if len(tbl.Columns) != 10 || tbl.Columns[0] != ColObjectID {
		t.Fatalf("columns = %#v", tbl.Columns)
	}
	if len(tbl.Records) != 4 {
		t.Fatalf("records = %d, want 4 (rows without a valid identifier dropped)", len(tbl.Records))
	}

	first := tbl.Records[0]
	if first.ID != 1 || first.LocationCode != "101" || first.Borough != "Manhattan" {
		t.Fatalf("first record = %+v", first)
	}
	if first.AvgCount == nil || *first.AvgCount != 120.5 {
		t.Fatalf("avg count = %v", first.AvgCount)
	}
	if first.Fields["May07_AM_num"] != "120" {
		t.Fatalf("historical column lost: %#v", first.Fields)
	}

	second := tbl.Records[1]
	if second.SegmentID != nil {
		t.Fatalf("non-numeric segment id should be nil, got %v", *second.SegmentID)
	}
	if second.AvgCount != nil {
		t.Fatalf("blank avg count should be nil")
	}

	short := tbl.Records[2]
	if short.ID != 3 || short.Borough != "Brooklyn" || short.Category != "" {
		t.Fatalf("short row = %+v", short)
	}
	if short.HasCoordinates() {
		t.Fatalf("short row must not be geometrically usable")
	}

	long := tbl.Records[3]
	if long.ID != 4 || long.Borough != "Queens" || long.AvgCount == nil || *long.AvgCount != 10 {
		t.Fatalf("long row = %+v", long)
	}
	if len(long.Fields) != 10 {
		t.Fatalf("extra cell leaked into fields: %#v", long.Fields)
	}
	for _, v := range long.Fields {
		if v == "extra" {
			t.Fatalf("extra cell leaked into fields: %#v", long.Fields)
		}
	}

	var sawShort, sawLong, sawMissing bool
	invalid := map[string]bool{}
	for _, a := range tbl.Anomalies {
		switch {
		case strings.Contains(a.Reason, "expected 10 columns, got 3"):
			sawShort = true
		case strings.Contains(a.Reason, "expected 10 columns, got 11"):
			sawLong = true
		case a.Reason == "missing identifier":
			sawMissing = true
		case strings.HasPrefix(a.Reason, "invalid identifier"):
			invalid[a.Reason] = true
		}
	}
	if !sawShort || !sawLong || !sawMissing {
		t.Fatalf("anomalies = %#v", tbl.Anomalies)
	}
	for _, raw := range []string{"Infinity", "1e30", "2.7"} {
		if !invalid[`invalid identifier "`+raw+`"`] {
			t.Fatalf("no invalid identifier anomaly for %s: %#v", raw, tbl.Anomalies)
		}
	}
	for _, r := range tbl.Records {
		if r.ID <= 0 || r.ID > 4 {
			t.Fatalf("unexpected identifier %d", r.ID)
		}
	}
}

func TestParseCSV_EmptyInput(t *testing.T) {
	if _, err := ParseCSV(nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestParseOptionalNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"12", ptr(12)},
		{` "3.5" `, ptr(3.5)},
		{"", nil},
		{"n/a", nil},
		{"NaN", nil},
	}
	for _, tt := range tests {
		got := ParseOptionalNumber(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Fatalf("ParseOptionalNumber(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Fatalf("ParseOptionalNumber(%q) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func ptr(f float64) *float64 { return &f }

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12", 12, true},
		{"12.0", 12, true},
		{"-3", -3, true},
		{"0", 0, false},
		{"2.7", 0, false},
		{"Infinity", 0, false},
		{"-Inf", 0, false},
		{"1e30", 0, false},
		{"9223372036854775808", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := Identifier(ParseOptionalNumber(tt.in))
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Identifier(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
