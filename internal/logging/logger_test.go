package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitJSONOutput(t *testing.T) {
	defer Init(DefaultConfig())
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	Debug().Msg("hidden")
	l := With("loader")
	l.Info().Str("source", "csv").Msg("dataset loaded")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug event should be filtered at info level: %s", out)
	}
	if !strings.Contains(out, `"component":"loader"`) || !strings.Contains(out, `"source":"csv"`) {
		t.Fatalf("missing structured fields: %s", out)
	}
}
