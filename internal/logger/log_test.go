package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewAddsServiceFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{LogLevel: "debug", ServiceName: "switchcore", InstanceID: "i-1"}, &buf)
	l.Debug().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["service"] != "switchcore" || line["instance"] != "i-1" || line["message"] != "hello" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"WARN":    zerolog.WarnLevel,
		" debug ": zerolog.DebugLevel,
		"nope":    zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSamplingKeepsWarnings(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{LogLevel: "info", ServiceName: "s", InstanceID: "i", LogSampleN: 1000}, &buf)
	for i := 0; i < 10; i++ {
		l.Warn().Msg("warn")
	}
	if got := strings.Count(buf.String(), `"warn"`); got < 10 {
		t.Fatalf("expected every warning to be written, got %d", got)
	}
}
