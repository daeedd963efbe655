package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, logrus.WarnLevel)

	logger.Info("hidden")
	logger.WithField("component", "download").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=download") {
		t.Errorf("Expected warn entry with fields, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Expected no color codes for a buffer, got %q", out)
	}
}

func TestIsTerminalWriter(t *testing.T) {
	if IsTerminalWriter(&bytes.Buffer{}) {
		t.Error("A buffer is not a terminal")
	}
}
