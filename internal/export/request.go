package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gidway/videocut/internal/ffmpeg"
	"github.com/gidway/videocut/pkg/util"
)

// Rejection reasons. Export returns these synchronously, before any
// encoder process is spawned.
var (
	ErrNoSource          = errors.New("no source loaded")
	ErrInvalidRange      = errors.New("invalid range")
	ErrNotWritable       = errors.New("output path not writable")
	ErrOutputExists      = errors.New("output already exists (overwrite not confirmed)")
	ErrInProgress        = errors.New("export already in progress")
	ErrInsufficientSpace = errors.New("insufficient disk space")
)

// Status of a finished export.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result is the outcome of one export. Diagnostic is set only on
// failure and carries the tail of the encoder's stderr.
type Result struct {
	Status     Status
	Diagnostic string
}

// Request describes one segment export. It is built at the moment the
// user triggers the export and consumed immediately.
type Request struct {
	SourcePath string
	In         time.Duration
	Out        time.Duration
	OutputPath string

	Codec   ffmpeg.Codec
	HWAccel bool

	// AllowOverwrite must be set explicitly for an existing output
	// path to be replaced; the orchestrator never overwrites silently.
	AllowOverwrite bool

	// SourceDuration, when known, bounds Out and sizes the disk-space
	// estimate. Zero means unknown.
	SourceDuration time.Duration

	// Progress, if non-nil, receives the completed fraction in [0, 1]
	// from a worker goroutine.
	Progress func(fraction float64)
}

// Validate checks the request without spawning anything.
func (r Request) Validate() error {
	if r.SourcePath == "" {
		return ErrNoSource
	}
	f, err := os.Open(r.SourcePath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoSource, r.SourcePath)
	}
	f.Close()

	if r.In < 0 || r.Out <= r.In {
		return ErrInvalidRange
	}
	if r.SourceDuration > 0 && r.Out > r.SourceDuration {
		return fmt.Errorf("%w: out mark past end of source", ErrInvalidRange)
	}

	if _, err := ffmpeg.EncoderArgs(r.Codec, r.HWAccel, ffmpeg.EncodeSettings{}); err != nil {
		return err
	}

	if r.OutputPath == "" {
		return ErrNotWritable
	}
	dir := filepath.Dir(r.OutputPath)
	probe, err := os.CreateTemp(dir, ".videocut-writable-")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotWritable, dir)
	}
	probe.Close()
	os.Remove(probe.Name())

	if !r.AllowOverwrite && util.FileExists(r.OutputPath) {
		return ErrOutputExists
	}

	return nil
}

// segment returns the marked duration.
func (r Request) segment() time.Duration {
	return r.Out - r.In
}
