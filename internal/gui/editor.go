// Package gui is the control surface: a Fyne window with the scrub
// slider, IN/OUT marking, option checkboxes and the export flow. Video
// itself renders in mpv's window, driven through internal/player.
package gui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/gidway/videocut/internal/config"
	"github.com/gidway/videocut/internal/export"
	"github.com/gidway/videocut/internal/ffmpeg"
	"github.com/gidway/videocut/internal/marks"
	"github.com/gidway/videocut/internal/player"
	"github.com/gidway/videocut/internal/store"
	"github.com/gidway/videocut/pkg/util"
)

const (
	defaultWidth  = 900
	defaultHeight = 280
	pollInterval  = 200 * time.Millisecond
	nudgeStep     = 200 * time.Millisecond
)

// Editor owns the control window and wires the collaborators together.
type Editor struct {
	fyneApp fyne.App
	win     fyne.Window
	cfg     *config.Config
	store   *store.Store
	exec    *ffmpeg.Executor
	orch    *export.Orchestrator
	session *marks.Session
	logger  zerolog.Logger

	client *player.Client

	// shared between the UI goroutine, the poll goroutine and
	// openSource; accessed only through the helpers below
	mu         sync.Mutex
	playerCmd  *exec.Cmd
	sourcePath string
	duration   time.Duration
	activeJob  *export.Job

	slider      *widget.Slider
	timeLabel   *widget.Label
	marksLabel  *widget.Label
	statusLabel *widget.Label
	exportBtn   *widget.Button
	hwCheck     *widget.Check
	h265Check   *widget.Check
	sizeCheck   *widget.Check

	scrubbing     bool
	settingSlider bool
	stopOnce      sync.Once
	closeOnce     sync.Once
	stopTicker    chan struct{}
}

// New builds the editor around already-constructed collaborators.
func New(cfg *config.Config, st *store.Store, ex *ffmpeg.Executor, orch *export.Orchestrator, logger zerolog.Logger) *Editor {
	return &Editor{
		cfg:        cfg,
		store:      st,
		exec:       ex,
		orch:       orch,
		session:    marks.NewSession(),
		logger:     logger.With().Str("component", "gui").Logger(),
		client:     player.NewClient(cfg.Player.SocketPath),
		stopTicker: make(chan struct{}),
	}
}

func (e *Editor) setSource(path string) {
	e.mu.Lock()
	e.sourcePath = path
	e.mu.Unlock()
}

// media returns the loaded source path and its duration.
func (e *Editor) media() (string, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sourcePath, e.duration
}

func (e *Editor) setDuration(d time.Duration) {
	e.mu.Lock()
	e.duration = d
	e.mu.Unlock()
	e.session.SetDuration(d)
}

func (e *Editor) durationValue() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Editor) setPlayerCmd(cmd *exec.Cmd) {
	e.mu.Lock()
	e.playerCmd = cmd
	e.mu.Unlock()
}

func (e *Editor) takePlayerCmd() *exec.Cmd {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmd := e.playerCmd
	e.playerCmd = nil
	return cmd
}

func (e *Editor) setActiveJob(job *export.Job) {
	e.mu.Lock()
	e.activeJob = job
	e.mu.Unlock()
}

func (e *Editor) takeActiveJob() *export.Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	job := e.activeJob
	e.activeJob = nil
	return job
}

// Run shows the window and blocks until it closes. initialPath may be
// empty; the user then opens a file through the dialog.
func (e *Editor) Run(initialPath string) {
	e.fyneApp = app.NewWithID("net.gidway.videocut")
	e.win = e.fyneApp.NewWindow("VideoCut")

	width, height := defaultWidth, defaultHeight
	if e.store.Bool(store.KeyRememberSize, true) {
		width = e.store.Int(store.KeyWindowWidth, defaultWidth)
		height = e.store.Int(store.KeyWindowHeight, defaultHeight)
	}
	e.win.Resize(fyne.NewSize(float32(width), float32(height)))

	e.buildWidgets()
	e.bindShortcuts()
	e.win.SetCloseIntercept(e.confirmClose)

	e.session.OnChange(func(snap marks.Snapshot) {
		fyne.Do(func() { e.renderMarks(snap) })
	})

	go e.pollPlayback()

	if initialPath != "" {
		go e.openSource(initialPath)
	}

	e.win.ShowAndRun()
}

func (e *Editor) buildWidgets() {
	e.timeLabel = widget.NewLabel("00:00:00.000 / 00:00:00.000")
	e.marksLabel = widget.NewLabel("IN: –  OUT: –")
	e.statusLabel = widget.NewLabel("No video loaded")

	e.slider = widget.NewSlider(0, 1)
	e.slider.Step = 0.05
	e.slider.OnChanged = func(v float64) {
		if e.settingSlider {
			return
		}
		e.scrubbing = true
		e.timeLabel.SetText(e.clockText(secondsToDuration(v)))
	}
	e.slider.OnChangeEnded = func(v float64) {
		if !e.scrubbing {
			return
		}
		e.scrubbing = false
		go e.client.Seek(secondsToDuration(v))
	}

	playBtn := widget.NewButton("Play/Pause", func() { go e.client.TogglePause() })
	inBtn := widget.NewButton("IN (I)", e.markIn)
	outBtn := widget.NewButton("OUT (O)", e.markOut)
	clearBtn := widget.NewButton("Clear", e.session.Clear)
	e.exportBtn = widget.NewButton("Export (E)", e.exportClip)
	e.exportBtn.Disable()
	openBtn := widget.NewButton("Open…", e.openFileDialog)
	closeBtn := widget.NewButton("Close", e.confirmClose)

	e.hwCheck = widget.NewCheck("NVIDIA decode/encode (CUDA)", nil)
	e.hwCheck.SetChecked(e.store.Bool(store.KeyUseHWAccel, false))
	e.h265Check = widget.NewCheck("Export as H.265", nil)
	e.h265Check.SetChecked(e.store.String(store.KeyCodec, string(ffmpeg.CodecCopy)) == string(ffmpeg.CodecH265))
	e.sizeCheck = widget.NewCheck("Remember window size", nil)
	e.sizeCheck.SetChecked(e.store.Bool(store.KeyRememberSize, true))

	e.win.SetContent(container.NewVBox(
		e.statusLabel,
		e.slider,
		container.NewHBox(playBtn, e.timeLabel, e.marksLabel),
		container.NewHBox(inBtn, outBtn, clearBtn, e.exportBtn, openBtn, closeBtn),
		container.NewHBox(e.hwCheck, e.h265Check, e.sizeCheck),
	))
}

func (e *Editor) bindShortcuts() {
	e.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeySpace:
			go e.client.TogglePause()
		case fyne.KeyI:
			e.markIn()
		case fyne.KeyO:
			e.markOut()
		case fyne.KeyE:
			e.exportClip()
		case fyne.KeyRight:
			go e.client.FrameStep()
		case fyne.KeyLeft:
			go e.client.FrameBackStep()
		}
	})

	add := func(key fyne.KeyName, mod fyne.KeyModifier, fn func()) {
		sc := &desktop.CustomShortcut{KeyName: key, Modifier: mod}
		e.win.Canvas().AddShortcut(sc, func(fyne.Shortcut) { fn() })
	}
	add(fyne.KeyRight, fyne.KeyModifierShift, func() { go e.client.SeekBy(nudgeStep) })
	add(fyne.KeyLeft, fyne.KeyModifierShift, func() { go e.client.SeekBy(-nudgeStep) })
	add(fyne.KeyO, fyne.KeyModifierControl, e.openFileDialog)
	add(fyne.KeyQ, fyne.KeyModifierControl, e.confirmClose)
}

// pollPlayback mirrors mpv's position into the slider and time label.
func (e *Editor) pollPlayback() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopTicker:
			return
		case <-ticker.C:
		}
		if !e.client.IsConnected() {
			continue
		}
		pos, err := e.client.Position()
		if err != nil {
			continue
		}
		if dur, err := e.client.Duration(); err == nil && dur > 0 && dur != e.durationValue() {
			e.setDuration(dur)
			fyne.Do(func() { e.slider.Max = dur.Seconds() })
		}
		fyne.Do(func() {
			if !e.scrubbing {
				e.settingSlider = true
				e.slider.SetValue(pos.Seconds())
				e.settingSlider = false
				e.timeLabel.SetText(e.clockText(pos))
			}
		})
	}
}

func (e *Editor) clockText(pos time.Duration) string {
	return util.FormatClock(pos) + " / " + util.FormatClock(e.durationValue())
}

func (e *Editor) openFileDialog() {
	fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		go e.openSource(path)
	}, e.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{
		".mp4", ".mkv", ".mov", ".avi", ".webm", ".m4v", ".mpg", ".mpeg", ".ts", ".m2ts", ".wmv",
	}))
	fd.Show()
}

// openSource loads a video: launch (or reuse) mpv, probe the duration
// and reset the marks. Runs off the UI goroutine.
func (e *Editor) openSource(path string) {
	if !util.IsVideoFile(path) {
		e.setStatus("Not a video file: " + filepath.Base(path))
		return
	}
	if !util.FileExists(path) {
		e.setStatus("File not found: " + filepath.Base(path))
		return
	}

	if e.client.IsConnected() {
		if err := e.client.LoadFile(path); err != nil {
			e.setStatus("Player error: " + err.Error())
			return
		}
	} else {
		cmd, err := player.Launch(e.cfg.Player.BinaryPath, e.cfg.Player.SocketPath, path)
		if err != nil {
			e.setStatus(err.Error())
			return
		}
		e.setPlayerCmd(cmd)
		if err := e.client.ConnectWithRetry(5 * time.Second); err != nil {
			e.setStatus("Could not connect to mpv: " + err.Error())
			if cmd.Process != nil {
				cmd.Process.Kill()
			}
			e.setPlayerCmd(nil)
			return
		}
	}

	e.setSource(path)
	e.session.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var dur time.Duration
	if info, err := e.exec.Probe(ctx, path); err == nil && info.Duration > 0 {
		dur = info.Duration
		e.setDuration(dur)
	}

	e.logger.Info().Str("source", path).Dur("duration", dur).Msg("loaded video")
	fyne.Do(func() {
		e.slider.Max = dur.Seconds()
		e.slider.SetValue(0)
		e.exportBtn.Enable()
		e.statusLabel.SetText("Loaded: " + filepath.Base(path))
	})
}

func (e *Editor) markIn() {
	pos, err := e.currentPosition()
	if err != nil {
		return
	}
	snap := e.session.SetIn(pos)
	e.setStatus("IN = " + util.FormatClock(snap.In))
}

func (e *Editor) markOut() {
	pos, err := e.currentPosition()
	if err != nil {
		return
	}
	snap := e.session.SetOut(pos)
	e.setStatus("OUT = " + util.FormatClock(snap.Out))
}

func (e *Editor) currentPosition() (time.Duration, error) {
	if e.client.IsConnected() {
		return e.client.Position()
	}
	return 0, player.ErrNotConnected
}

func (e *Editor) renderMarks(snap marks.Snapshot) {
	in, out := "–", "–"
	if snap.InSet {
		in = util.FormatClock(snap.In)
	}
	if snap.OutSet {
		out = util.FormatClock(snap.Out)
	}
	e.marksLabel.SetText(fmt.Sprintf("IN: %s  OUT: %s", in, out))
}

// exportClip runs the save dialog and hands the request to the
// orchestrator, showing progress with a cancel button.
func (e *Editor) exportClip() {
	source, _ := e.media()
	if source == "" {
		return
	}
	in, out, err := e.session.Range()
	if err != nil {
		e.setStatus("Set IN/OUT first")
		return
	}

	e.persistOptions()

	fd := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		path := w.URI().Path()
		w.Close()
		// the save dialog already confirmed overwrite and created the
		// file; remove it so the orchestrator owns the final rename
		os.Remove(path)
		e.startExport(path, in, out)
	}, e.win)
	fd.SetFileName(util.ClipFileName(source, in, out))
	fd.Show()
}

func (e *Editor) startExport(outputPath string, in, out time.Duration) {
	codec := ffmpeg.CodecCopy
	if e.h265Check.Checked {
		codec = ffmpeg.CodecH265
	}

	bar := widget.NewProgressBar()
	prog := dialog.NewCustom("Exporting", "Cancel", bar, e.win)

	source, dur := e.media()
	req := export.Request{
		SourcePath:     source,
		In:             in,
		Out:            out,
		OutputPath:     outputPath,
		Codec:          codec,
		HWAccel:        e.hwCheck.Checked,
		AllowOverwrite: true, // confirmed by the save dialog
		SourceDuration: dur,
		Progress: func(frac float64) {
			fyne.Do(func() { bar.SetValue(frac) })
		},
	}

	job, err := e.orch.Export(context.Background(), req)
	if err != nil {
		dialog.ShowError(err, e.win)
		return
	}
	e.setActiveJob(job)

	prog.SetOnClosed(func() {
		job.Cancel()
	})
	prog.Show()

	go func() {
		result := job.Wait()
		fyne.Do(func() {
			e.setActiveJob(nil)
			prog.SetOnClosed(nil)
			prog.Hide()
			if result.Status == export.StatusSuccess {
				e.statusLabel.SetText("Saved: " + outputPath)
			} else {
				e.statusLabel.SetText("Export failed: " + result.Diagnostic)
			}
		})
	}()
}

func (e *Editor) persistOptions() {
	e.store.SetBool(store.KeyUseHWAccel, e.hwCheck.Checked)
	codec := ffmpeg.CodecCopy
	if e.h265Check.Checked {
		codec = ffmpeg.CodecH265
	}
	e.store.SetString(store.KeyCodec, string(codec))
	e.store.SetBool(store.KeyRememberSize, e.sizeCheck.Checked)
}

func (e *Editor) confirmClose() {
	dialog.ShowConfirm("Confirm exit", "Do you really want to close the app?", func(ok bool) {
		if !ok {
			return
		}
		e.shutdown()
	}, e.win)
}

// shutdown tears the editor down exactly once; the close button and
// Ctrl+Q can both reach it through stacked confirm dialogs.
func (e *Editor) shutdown() {
	e.closeOnce.Do(func() {
		e.persistOptions()
		if e.sizeCheck.Checked {
			size := e.win.Canvas().Size()
			e.store.SetInt(store.KeyWindowWidth, int(size.Width))
			e.store.SetInt(store.KeyWindowHeight, int(size.Height))
		}

		e.stopPolling()

		if job := e.takeActiveJob(); job != nil {
			job.Cancel()
			job.Wait()
		}

		if e.client.IsConnected() {
			e.client.Quit()
			e.client.Close()
		}
		if cmd := e.takePlayerCmd(); cmd != nil && cmd.Process != nil {
			waitOrKill(cmd, 3*time.Second)
		}

		e.win.Close()
	})
}

func (e *Editor) stopPolling() {
	e.stopOnce.Do(func() { close(e.stopTicker) })
}

// waitOrKill reaps the player process, killing it if it has not exited
// within grace of the quit command.
func waitOrKill(cmd *exec.Cmd, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		cmd.Process.Kill()
		<-done
	}
}

func (e *Editor) setStatus(msg string) {
	fyne.Do(func() { e.statusLabel.SetText(msg) })
}

func secondsToDuration(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
