package ffmpeg

import (
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	e, err := New(logger, "", "")
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	if e.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if e.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
}

func TestExecutorMissingBinary(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	_, err := New(logger, "definitely-not-ffmpeg-binary", "")
	if err == nil {
		t.Fatal("expected error for missing ffmpeg binary")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should mention the missing executable: %v", err)
	}
}

func TestParseCodec(t *testing.T) {
	cases := []struct {
		in      string
		want    Codec
		wantErr bool
	}{
		{"", CodecCopy, false},
		{"copy", CodecCopy, false},
		{"h264", CodecH264, false},
		{"AVC", CodecH264, false},
		{"hevc", CodecH265, false},
		{"x265", CodecH265, false},
		{"av1", "", true},
	}
	for _, c := range cases {
		got, err := ParseCodec(c.in)
		if c.wantErr != (err != nil) {
			t.Errorf("ParseCodec(%q) err = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseCodec(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEncoderArgs(t *testing.T) {
	cases := []struct {
		codec   Codec
		hwaccel bool
		want    string
	}{
		{CodecCopy, false, "-c copy"},
		{CodecCopy, true, "-c copy"},
		{CodecH264, false, "-c:v libx264 -crf 23 -preset medium -c:a copy"},
		{CodecH264, true, "-c:v h264_nvenc -preset medium -c:a copy"},
		{CodecH265, false, "-c:v libx265 -crf 23 -preset medium -c:a copy"},
		{CodecH265, true, "-c:v hevc_nvenc -preset medium -c:a copy"},
	}
	for _, c := range cases {
		args, err := EncoderArgs(c.codec, c.hwaccel, EncodeSettings{})
		if err != nil {
			t.Errorf("EncoderArgs(%q, %v): %v", c.codec, c.hwaccel, err)
			continue
		}
		if got := strings.Join(args, " "); got != c.want {
			t.Errorf("EncoderArgs(%q, %v) = %q, want %q", c.codec, c.hwaccel, got, c.want)
		}
	}

	if _, err := EncoderArgs(Codec("vp9"), false, EncodeSettings{}); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestEncoderArgsCustomSettings(t *testing.T) {
	args, err := EncoderArgs(CodecH264, false, EncodeSettings{Preset: "fast", CRF: 18})
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(args, " ")
	want := "-c:v libx264 -crf 18 -preset fast -c:a copy"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInputArgs(t *testing.T) {
	if got := InputArgs(false); got != nil {
		t.Errorf("expected no input args without hwaccel, got %v", got)
	}
	if got := strings.Join(InputArgs(true), " "); got != "-hwaccel cuda" {
		t.Errorf("got %q", got)
	}
}

func TestStreamOutputProgress(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}

	input := strings.Join([]string{
		"frame=120",
		"fps=59.9",
		"bitrate=1200.0kbits/s",
		"out_time_ms=2500000",
		"out_time=00:00:02.500000",
		"speed=2.01x",
		"progress=continue",
		"frame=240",
		"out_time_ms=5000000",
		"progress=end",
	}, "\n")

	var got []Progress
	e.streamOutput(strings.NewReader(input), func(p Progress) {
		got = append(got, p)
	}, nil)

	if len(got) != 2 {
		t.Fatalf("expected 2 progress blocks, got %d", len(got))
	}
	if got[0].Frame != 120 {
		t.Errorf("frame = %d, want 120", got[0].Frame)
	}
	if got[0].OutTime != 2500*time.Millisecond {
		t.Errorf("out time = %v, want 2.5s", got[0].OutTime)
	}
	if got[0].Speed != "2.01x" {
		t.Errorf("speed = %q", got[0].Speed)
	}
	if got[1].OutTime != 5*time.Second {
		t.Errorf("second block out time = %v, want 5s", got[1].OutTime)
	}
}

func TestStreamOutputLogLines(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}

	var lines []string
	e.streamOutput(strings.NewReader("Stream mapping:\n  Stream #0:0 -> #0:0 (copy)\n"), nil, func(s string) {
		lines = append(lines, s)
	})

	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
}
