package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerWritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info().Str("k", "v").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestNewLoggerMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Info().Msg("fanout")

	if !strings.Contains(a.String(), "fanout") || !strings.Contains(b.String(), "fanout") {
		t.Errorf("both writers should receive the line: %q / %q", a.String(), b.String())
	}
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf).With().Str("component", "export").Logger()
	logger.Info().Msg("tagged")

	if !strings.Contains(buf.String(), `"component":"export"`) {
		t.Errorf("component field missing: %q", buf.String())
	}
}
