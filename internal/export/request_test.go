package export

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gidway/videocut/internal/ffmpeg"
)

func TestValidateUnknownCodec(t *testing.T) {
	dir := t.TempDir()
	req := validRequest(t, dir)
	req.Codec = ffmpeg.Codec("vp9")
	if err := req.Validate(); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestValidateCopyCodecDefaultsClean(t *testing.T) {
	dir := t.TempDir()
	req := validRequest(t, dir)
	req.Codec = ffmpeg.CodecCopy
	if err := req.Validate(); err != nil {
		t.Errorf("copy codec should validate: %v", err)
	}
}

func TestValidateEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	req := validRequest(t, dir)
	req.OutputPath = ""
	if err := req.Validate(); err != ErrNotWritable {
		t.Errorf("expected ErrNotWritable, got %v", err)
	}
}

func TestTempOutputPath(t *testing.T) {
	tmp := tempOutputPath("/videos/clip.mp4", "0123456789abcdef")
	if filepath.Dir(tmp) != "/videos" {
		t.Errorf("temp file must live next to the destination: %q", tmp)
	}
	base := filepath.Base(tmp)
	if !strings.HasPrefix(base, ".clip.part-01234567") {
		t.Errorf("unexpected temp name %q", base)
	}
	if !strings.HasSuffix(base, ".mp4") {
		t.Errorf("temp name must keep the extension: %q", base)
	}
}

func TestTailBuffer(t *testing.T) {
	tail := newTailBuffer(3)
	for _, line := range []string{"one", "", "two", "three", "four"} {
		tail.add(line)
	}
	got := tail.String()
	if got != "two\nthree\nfour" {
		t.Errorf("tail = %q", got)
	}
}

func TestTailBufferFiltersProgressKeys(t *testing.T) {
	tail := newTailBuffer(5)
	tail.add("frame=42")
	tail.add("speed=1.5x")
	tail.add("progress=continue")
	tail.add("Error opening output file")
	if got := tail.String(); got != "Error opening output file" {
		t.Errorf("tail = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("x", 20)
	got := truncate(long, 10)
	if len([]rune(got)) != 11 || !strings.HasPrefix(got, strings.Repeat("x", 10)) {
		t.Errorf("got %q", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	// "é" is 2 bytes; a cut landing inside it must back up to the
	// boundary instead of emitting an invalid byte
	s := "caf" + strings.Repeat("é", 4)
	got := truncate(s, 4)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if got != "caf…" {
		t.Errorf("got %q, want %q", got, "caf…")
	}
	if whole := truncate(s, len(s)); whole != s {
		t.Errorf("no-op truncate changed %q to %q", s, whole)
	}
}

func TestEstimateFraction(t *testing.T) {
	cases := []struct {
		out, total time.Duration
		want       float64
	}{
		{5 * time.Second, 10 * time.Second, 0.5},
		{0, 10 * time.Second, 0},
		{15 * time.Second, 10 * time.Second, 1},
		{5 * time.Second, 0, 0},
	}
	for _, c := range cases {
		if got := EstimateFraction(c.out, c.total); got != c.want {
			t.Errorf("EstimateFraction(%v, %v) = %f, want %f", c.out, c.total, got, c.want)
		}
	}
}
