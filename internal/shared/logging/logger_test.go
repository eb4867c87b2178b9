package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
		"warning": slog.LevelWarn,
		"err":     slog.LevelError,
		"trace":   slog.LevelDebug - 2,
		"bogus":   slog.LevelInfo,
	}
	for input, expected := range cases {
		if got := ParseLevel(input); got != expected {
			t.Fatalf("ParseLevel(%q) expected %v got %v", input, expected, got)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "debug", Format: "json"})
	logger.Debug("hub publish", slog.String("group", "DataSync"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if record["group"] != "DataSync" {
		t.Fatalf("unexpected group attribute: %#v", record["group"])
	}
}
