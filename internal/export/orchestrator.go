// Package export turns IN/OUT marks and encode options into a single
// supervised ffmpeg run: write to a temp path, rename on success, never
// leave a truncated file at the destination.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/gidway/videocut/internal/ffmpeg"
	"github.com/gidway/videocut/internal/store"
	"github.com/gidway/videocut/pkg/util"
)

const maxDiagnosticLen = 600

// Runner executes an encoder invocation. *ffmpeg.Executor satisfies it;
// tests inject a fake.
type Runner interface {
	Run(ctx context.Context, opts ffmpeg.RunOptions) error
}

// HistoryRecorder receives the outcome of completed exports.
type HistoryRecorder interface {
	RecordExport(store.HistoryEntry) error
}

// Orchestrator runs at most one export at a time.
type Orchestrator struct {
	runner    Runner
	logger    zerolog.Logger
	history   HistoryRecorder
	settings  ffmpeg.EncodeSettings
	tailLines int
	freeSpace func(dir string) (uint64, error)

	mu      sync.Mutex
	running bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithHistory records export outcomes to the given store.
func WithHistory(h HistoryRecorder) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithEncodeSettings overrides preset/CRF for the software encoders.
func WithEncodeSettings(s ffmpeg.EncodeSettings) Option {
	return func(o *Orchestrator) { o.settings = s }
}

// WithTailLines sets how many stderr lines feed the failure diagnostic.
func WithTailLines(n int) Option {
	return func(o *Orchestrator) { o.tailLines = n }
}

// WithFreeSpaceFunc overrides the free-disk probe (used in tests).
func WithFreeSpaceFunc(fn func(dir string) (uint64, error)) Option {
	return func(o *Orchestrator) { o.freeSpace = fn }
}

// New creates an Orchestrator around the given runner.
func New(runner Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:    runner,
		logger:    zerolog.Nop(),
		tailLines: 12,
		freeSpace: func(dir string) (uint64, error) {
			usage, err := disk.Usage(dir)
			if err != nil {
				return 0, err
			}
			return usage.Free, nil
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With().Str("component", "export").Logger()
	return o
}

// Job is the handle for a running export. The caller observes
// completion via Done/Wait and may Cancel at any time.
type Job struct {
	ID      string
	Request Request

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	result Result
}

// Done is closed once the result is available and all file-system side
// effects are finalized.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result is valid after Done is closed.
func (j *Job) Result() Result {
	return j.result
}

// Wait blocks until the export finishes and returns its result.
func (j *Job) Wait() Result {
	<-j.done
	return j.result
}

// Cancel stops the export. The child process gets a bounded grace
// before being killed and the partial output is removed.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) complete(r Result) {
	j.once.Do(func() {
		j.result = r
		close(j.done)
	})
}

// Export validates the request and, if it passes, starts the encoder on
// a worker goroutine. The Job handle is returned immediately; a second
// call while one export runs fails with ErrInProgress.
func (o *Orchestrator) Export(ctx context.Context, req Request) (*Job, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrInProgress
	}

	if err := req.Validate(); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if err := o.checkDiskSpace(req); err != nil {
		o.mu.Unlock()
		return nil, err
	}

	o.running = true
	o.mu.Unlock()

	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:      uuid.NewString(),
		Request: req,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Str("source", req.SourcePath).
		Str("output", req.OutputPath).
		Str("codec", string(req.Codec)).
		Bool("hwaccel", req.HWAccel).
		Dur("in", req.In).
		Dur("out", req.Out).
		Msg("starting export")

	go o.run(jobCtx, cancel, job)
	return job, nil
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, job *Job) {
	defer cancel()
	req := job.Request

	tmpPath := tempOutputPath(req.OutputPath, job.ID)
	result := o.execute(ctx, req, tmpPath)

	if result.Status == StatusSuccess {
		if err := os.Rename(tmpPath, req.OutputPath); err != nil {
			util.CleanupFiles(tmpPath)
			result = Result{Status: StatusFailed, Diagnostic: fmt.Sprintf("finalizing output: %v", err)}
		}
	} else {
		util.CleanupFiles(tmpPath)
	}

	o.record(job, result)

	if result.Status == StatusSuccess {
		o.logger.Info().Str("job_id", job.ID).Str("output", req.OutputPath).Msg("export complete")
	} else {
		o.logger.Warn().Str("job_id", job.ID).Str("diagnostic", result.Diagnostic).Msg("export failed")
	}

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	job.complete(result)
}

// execute runs ffmpeg writing to tmpPath and maps the outcome to a
// Result. It never touches the final output path.
func (o *Orchestrator) execute(ctx context.Context, req Request, tmpPath string) Result {
	args := []string{"-y"}
	args = append(args, ffmpeg.InputArgs(req.HWAccel)...)
	args = append(args,
		"-ss", util.FormatSeconds(req.In),
		"-t", util.FormatSeconds(req.segment()),
		"-i", req.SourcePath,
	)
	encArgs, err := ffmpeg.EncoderArgs(req.Codec, req.HWAccel, o.settings)
	if err != nil {
		return Result{Status: StatusFailed, Diagnostic: err.Error()}
	}
	args = append(args, encArgs...)
	args = append(args, tmpPath)

	tail := newTailBuffer(o.tailLines)
	total := req.segment()

	runErr := o.runner.Run(ctx, ffmpeg.RunOptions{
		Args: args,
		ProgressHandler: func(p ffmpeg.Progress) {
			if req.Progress == nil || total <= 0 {
				return
			}
			req.Progress(EstimateFraction(p.OutTime, total))
		},
		LogHandler: func(line string) {
			tail.add(line)
			o.logger.Debug().Str("ffmpeg", line).Msg("encoder output")
		},
	})

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || ctx.Err() != nil {
			return Result{Status: StatusFailed, Diagnostic: "export cancelled"}
		}
		diag := tail.String()
		if diag == "" {
			diag = runErr.Error()
		}
		return Result{Status: StatusFailed, Diagnostic: truncate(diag, maxDiagnosticLen)}
	}

	if _, err := os.Stat(tmpPath); err != nil {
		return Result{Status: StatusFailed, Diagnostic: "encoder produced no output"}
	}

	if req.Progress != nil {
		req.Progress(1)
	}
	return Result{Status: StatusSuccess}
}

func (o *Orchestrator) record(job *Job, result Result) {
	if o.history == nil {
		return
	}
	req := job.Request
	err := o.history.RecordExport(store.HistoryEntry{
		ID:         job.ID,
		SourcePath: req.SourcePath,
		OutputPath: req.OutputPath,
		In:         req.In,
		Out:        req.Out,
		Codec:      string(req.Codec),
		HWAccel:    req.HWAccel,
		Status:     string(result.Status),
		Diagnostic: result.Diagnostic,
	})
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to record export history")
	}
}

// checkDiskSpace estimates the segment size from the source size scaled
// by the marked fraction. Skipped when the source duration is unknown.
func (o *Orchestrator) checkDiskSpace(req Request) error {
	if req.SourceDuration <= 0 || o.freeSpace == nil {
		return nil
	}
	info, err := os.Stat(req.SourcePath)
	if err != nil {
		return nil
	}
	free, err := o.freeSpace(filepath.Dir(req.OutputPath))
	if err != nil {
		return nil
	}
	estimate := uint64(float64(info.Size()) * (float64(req.segment()) / float64(req.SourceDuration)))
	if free < estimate {
		return fmt.Errorf("%w: need ~%d MiB, %d MiB free",
			ErrInsufficientSpace, estimate>>20, free>>20)
	}
	return nil
}

// tempOutputPath builds a hidden sibling of the destination that keeps
// the extension, so ffmpeg still infers the container format.
func tempOutputPath(outputPath, jobID string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return filepath.Join(dir, fmt.Sprintf(".%s.part-%s%s", stem, short, ext))
}

// truncate cuts s to at most n bytes, backing up to a rune boundary so
// a multi-byte character is never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

// tailBuffer keeps the last n non-empty lines of encoder output.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	n     int
}

func newTailBuffer(n int) *tailBuffer {
	if n <= 0 {
		n = 12
	}
	return &tailBuffer{n: n}
}

func (t *tailBuffer) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	// progress key=value lines are machine noise, not diagnostics
	if key, _, ok := strings.Cut(line, "="); ok && !strings.Contains(key, " ") {
		switch key {
		case "frame", "fps", "bitrate", "total_size", "out_time_us",
			"out_time_ms", "out_time", "dup_frames", "drop_frames",
			"speed", "progress", "stream_0_0_q":
			return
		}
	}
	t.mu.Lock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
	t.mu.Unlock()
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

// EstimateFraction exposes the progress math for callers that display
// elapsed encoder time directly.
func EstimateFraction(outTime, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(outTime) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
