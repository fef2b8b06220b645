package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debug("hidden", "key", "value")
	l.Info("shown", "sdk", "7.0.0.GA")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug output written without verbose: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "sdk=7.0.0.GA") {
		t.Errorf("info output missing: %q", out)
	}

	buf.Reset()
	l = New(&buf, true)
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug output missing with verbose: %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	OrNop(nil).Error("discarded")

	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}
