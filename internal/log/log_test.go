package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitWriterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("warn", &buf)

	Info("quiet", "key", "a")
	Warn("loud", "key", "b")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info record emitted at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "key=b") {
		t.Errorf("warn record missing or malformed: %q", out)
	}

	// Re-initialization is a no-op; output stays on the first writer.
	var other bytes.Buffer
	InitWriter("debug", &other)
	Error("still here")
	if other.Len() != 0 {
		t.Errorf("second InitWriter took effect: %q", other.String())
	}
	if !strings.Contains(buf.String(), "still here") {
		t.Error("error record missing from original writer")
	}
}
