package player

import (
	"os/exec"

	"github.com/gidway/videocut/internal/deps"
)

// Launch starts mpv with the given video file and the IPC socket
// enabled. The returned *exec.Cmd is the running process; callers own
// its lifetime (Wait or Kill).
func Launch(binary, socketPath, videoPath string) (*exec.Cmd, error) {
	if binary == "" {
		binary = "mpv"
	}
	if err := deps.CheckMpv(binary); err != nil {
		return nil, err
	}

	// keep-open so playback pauses at EOF instead of closing the
	// window while the user is still marking
	cmd := exec.Command(binary,
		"--input-ipc-server="+socketPath,
		"--keep-open=yes",
		"--pause",
		videoPath,
	)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return cmd, nil
}
