package gui

import (
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/gidway/videocut/internal/marks"
)

func newTestEditor() *Editor {
	return &Editor{
		session:    marks.NewSession(),
		stopTicker: make(chan struct{}),
	}
}

// The poll goroutine, openSource and the UI goroutine all touch the
// media fields; hammer the accessors from several goroutines so the
// race detector has something to bite on.
func TestMediaStateConcurrentAccess(t *testing.T) {
	e := newTestEditor()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				e.setDuration(time.Duration(n*j) * time.Millisecond)
				e.setSource("clip.mp4")
				e.setPlayerCmd(nil)
				e.setActiveJob(nil)
			}
		}(i + 1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_, _ = e.media()
				_ = e.durationValue()
				_ = e.takePlayerCmd()
				_ = e.takeActiveJob()
			}
		}()
	}
	wg.Wait()

	source, _ := e.media()
	if source != "clip.mp4" {
		t.Fatalf("media() source = %q, want clip.mp4", source)
	}
}

func TestSetDurationReachesSession(t *testing.T) {
	e := newTestEditor()
	e.setDuration(90 * time.Second)

	if got := e.durationValue(); got != 90*time.Second {
		t.Errorf("durationValue() = %v, want 90s", got)
	}
	if got := e.session.Duration(); got != 90*time.Second {
		t.Errorf("session duration = %v, want 90s", got)
	}
}

func TestStopPollingIdempotent(t *testing.T) {
	e := newTestEditor()
	e.stopPolling()
	e.stopPolling() // a second request must not panic on the closed channel

	select {
	case <-e.stopTicker:
	default:
		t.Fatal("stopTicker not closed")
	}
}

func TestWaitOrKillAfterExit(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting process: %v", err)
	}

	start := time.Now()
	waitOrKill(cmd, 5*time.Second)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("waitOrKill blocked %v on an exited process", elapsed)
	}
}

func TestWaitOrKillStuckProcess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting process: %v", err)
	}

	start := time.Now()
	waitOrKill(cmd, 100*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("waitOrKill blocked %v past the grace period", elapsed)
	}
	if cmd.ProcessState == nil {
		t.Error("process not reaped")
	}
}
