package util

import (
	"testing"
	"time"
)

func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{-5 * time.Second, "00:00:00.000"},
		{1500 * time.Millisecond, "00:00:01.500"},
		{time.Hour + 11*time.Minute + 22*time.Second, "01:11:22.000"},
		{10*time.Second + 1*time.Millisecond, "00:00:10.001"},
	}
	for _, c := range cases {
		if got := FormatClock(c.in); got != c.want {
			t.Errorf("FormatClock(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(10 * time.Second); got != "10.000" {
		t.Errorf("got %q, want 10.000", got)
	}
	if got := FormatSeconds(1500 * time.Millisecond); got != "1.500" {
		t.Errorf("got %q, want 1.500", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"45.5", 45*time.Second + 500*time.Millisecond, false},
		{"1:30", 90 * time.Second, false},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second, false},
		{" 10 ", 10 * time.Second, false},
		{"1:2:3:4", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
		{"1::2", 0, true},
	}
	for _, c := range cases {
		got, err := ParseTimestamp(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30000/1001"); got < 29.9 || got > 30.0 {
		t.Errorf("NTSC rate = %f", got)
	}
	if got := ParseFrameRate("25/1"); got != 25 {
		t.Errorf("got %f, want 25", got)
	}
	if got := ParseFrameRate("bogus"); got != 0 {
		t.Errorf("got %f, want 0", got)
	}
	if got := ParseFrameRate("1/0"); got != 0 {
		t.Errorf("got %f, want 0", got)
	}
}

func TestClipFileName(t *testing.T) {
	got := ClipFileName("/videos/match.mkv", 10*time.Second, 20*time.Second)
	want := "match_00-00-10-000_00-00-20-000.mp4"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsVideoFile(t *testing.T) {
	if !IsVideoFile("a.MP4") || !IsVideoFile("b.mkv") {
		t.Error("expected video extensions to match")
	}
	if IsVideoFile("notes.txt") || IsVideoFile("noext") {
		t.Error("expected non-video paths to be rejected")
	}
}
