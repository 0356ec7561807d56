package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gidway/videocut/pkg/util"
)

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	killGrace   time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithThreads limits the number of encoder threads.
func WithThreads(n int) Option {
	return func(e *Executor) { e.threads = n }
}

// WithKillGrace bounds the wait between interrupt and kill when a run
// is cancelled.
func WithKillGrace(d time.Duration) Option {
	return func(e *Executor) { e.killGrace = d }
}

// New creates a new ffmpeg executor. Both binaries must be resolvable
// in PATH (or be absolute paths).
func New(logger zerolog.Logger, ffmpegBin, ffprobeBin string, opts ...Option) (*Executor, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(ffmpegBin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath(ffprobeBin)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	e := &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		killGrace:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	baseArgs := []string{"-hide_banner", "-loglevel", "info", "-nostdin"}

	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", strconv.Itoa(e.threads))
	}

	baseArgs = append(baseArgs, "-progress", "pipe:2")
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", e.ffmpegPath).
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = e.killGrace

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var g errgroup.Group

	// stderr carries both the log and the -progress key=value blocks
	g.Go(func() error {
		e.streamOutput(stderr, opts.ProgressHandler, opts.LogHandler)
		return nil
	})

	g.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
		return nil
	})

	_ = g.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	var cur Progress

	for scanner.Scan() {
		line := scanner.Text()

		if logHandler != nil {
			logHandler(line)
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			cur.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			cur.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			cur.Bitrate = value
		case "out_time_ms":
			// despite the name this is microseconds
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				cur.OutTime = time.Duration(us) * time.Microsecond
			}
		case "out_time":
			if cur.OutTime == 0 {
				if d, err := util.ParseTimestamp(value); err == nil {
					cur.OutTime = d
				}
			}
		case "speed":
			cur.Speed = value
		case "progress":
			// end of a progress block
			if progressHandler != nil {
				progressHandler(cur)
			}
			cur = Progress{}
		}
	}
}

// Path returns the resolved ffmpeg binary path.
func (e *Executor) Path() string {
	return e.ffmpegPath
}
