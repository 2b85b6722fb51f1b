package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	l.Debug("should not appear")
	l.Info("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("buffer = %q, want empty (below configured level)", buf.String())
	}

	l.Warn("disk getting full", "free_bytes", 128)
	out := buf.String()
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "disk getting full") {
		t.Errorf("unexpected log line: %q", out)
	}
	if !strings.Contains(out, "free_bytes=128") {
		t.Errorf("log line missing key=value args: %q", out)
	}
}

func TestDefaultLoggerIsReplaceable(t *testing.T) {
	var buf bytes.Buffer
	old := Default()
	defer SetDefault(old)

	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	Error("boom")
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("Error() did not reach replaced default logger: %q", buf.String())
	}
}
