package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Codec selects the output video codec for a cut.
type Codec string

const (
	// CodecCopy remuxes the segment without re-encoding.
	CodecCopy Codec = "copy"
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
)

// ParseCodec converts a user-supplied codec name.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "copy":
		return CodecCopy, nil
	case "h264", "avc", "x264":
		return CodecH264, nil
	case "h265", "hevc", "x265":
		return CodecH265, nil
	}
	return "", fmt.Errorf("unknown codec %q (want copy, h264 or h265)", s)
}

// EncodeSettings tunes the software encoders.
type EncodeSettings struct {
	Preset string
	CRF    int
}

func (s EncodeSettings) preset() string {
	if s.Preset == "" {
		return DefaultPreset
	}
	return s.Preset
}

func (s EncodeSettings) crf() int {
	if s.CRF == 0 {
		return DefaultCRF
	}
	return s.CRF
}

// InputArgs returns the decoder-side arguments that must precede -i.
func InputArgs(hwaccel bool) []string {
	if hwaccel {
		return []string{"-hwaccel", "cuda"}
	}
	return nil
}

// EncoderArgs maps a codec choice and the hardware-acceleration flag to
// the encoder arguments placed after -i. Audio is always stream-copied.
func EncoderArgs(codec Codec, hwaccel bool, settings EncodeSettings) ([]string, error) {
	switch codec {
	case CodecCopy:
		return []string{"-c", "copy"}, nil
	case CodecH264:
		if hwaccel {
			return []string{"-c:v", "h264_nvenc", "-preset", settings.preset(), "-c:a", "copy"}, nil
		}
		return []string{"-c:v", "libx264", "-crf", strconv.Itoa(settings.crf()), "-preset", settings.preset(), "-c:a", "copy"}, nil
	case CodecH265:
		if hwaccel {
			return []string{"-c:v", "hevc_nvenc", "-preset", settings.preset(), "-c:a", "copy"}, nil
		}
		return []string{"-c:v", "libx265", "-crf", strconv.Itoa(settings.crf()), "-preset", settings.preset(), "-c:a", "copy"}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", codec)
}

// HardwareEncoders reports which of the nvenc encoders this ffmpeg
// build offers. Presence does not guarantee a usable GPU; a missing
// device still fails at encode time and is surfaced as a failed export.
func (e *Executor) HardwareEncoders(ctx context.Context) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, "-hide_banner", "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("listing encoders: %w", err)
	}

	found := make(map[string]bool)
	for _, name := range []string{"h264_nvenc", "hevc_nvenc"} {
		found[name] = strings.Contains(string(out), name)
	}
	return found, nil
}
