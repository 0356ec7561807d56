// Package player drives mpv over its JSON IPC socket. mpv renders the
// video in its own window; this client only observes and controls
// playback (position, duration, pause, seeking).
package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("player: not connected")
	// ErrSocketNotFound is returned when the mpv IPC socket cannot be reached.
	ErrSocketNotFound = errors.New("player: socket not found - is mpv running with --input-ipc-server?")
	// requestID is a global counter for generating unique request IDs.
	requestID uint64
)

// ipcRequest represents a JSON IPC request to mpv.
type ipcRequest struct {
	Command   []interface{} `json:"command"`
	RequestID uint64        `json:"request_id"`
}

// ipcResponse represents a JSON IPC response from mpv.
type ipcResponse struct {
	Data      interface{} `json:"data"`
	RequestID uint64      `json:"request_id"`
	Error     string      `json:"error"`
}

// Client is an mpv IPC client that communicates via Unix socket.
type Client struct {
	socketPath string
	conn       net.Conn
	reader     *bufio.Reader
	mu         sync.Mutex
}

// NewClient creates a new mpv IPC client for the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Connect establishes a connection to the mpv IPC socket.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return ErrSocketNotFound
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// ConnectWithRetry polls the socket until mpv answers or the deadline
// passes. mpv needs a moment after launch before the socket exists.
func (c *Client) ConnectWithRetry(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := c.Connect()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Close closes the connection to mpv.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// IsConnected returns true if the client is connected to mpv.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SocketPath returns the socket path this client is configured to use.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// GetProperty retrieves the value of an mpv property.
func (c *Client) GetProperty(name string) (interface{}, error) {
	return c.sendCommand("get_property", name)
}

// SetProperty sets the value of an mpv property.
func (c *Client) SetProperty(name string, value interface{}) error {
	_, err := c.sendCommand("set_property", name, value)
	return err
}

// Position returns the current playback position.
func (c *Client) Position() (time.Duration, error) {
	result, err := c.GetProperty("time-pos")
	if err != nil {
		return 0, err
	}
	secs, err := toFloat64(result)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Duration returns the total duration of the loaded video.
func (c *Client) Duration() (time.Duration, error) {
	result, err := c.GetProperty("duration")
	if err != nil {
		return 0, err
	}
	secs, err := toFloat64(result)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Paused returns true if playback is paused.
func (c *Client) Paused() (bool, error) {
	result, err := c.GetProperty("pause")
	if err != nil {
		return false, err
	}
	paused, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("player: unexpected pause value type: %T", result)
	}
	return paused, nil
}

// TogglePause flips between playing and paused.
func (c *Client) TogglePause() error {
	_, err := c.sendCommand("cycle", "pause")
	return err
}

// SetPaused pauses or resumes playback.
func (c *Client) SetPaused(paused bool) error {
	return c.SetProperty("pause", paused)
}

// Seek jumps to an absolute position.
func (c *Client) Seek(pos time.Duration) error {
	_, err := c.sendCommand("seek", pos.Seconds(), "absolute+exact")
	return err
}

// SeekBy nudges playback by a relative offset.
func (c *Client) SeekBy(delta time.Duration) error {
	_, err := c.sendCommand("seek", delta.Seconds(), "relative+exact")
	return err
}

// FrameStep advances one frame and pauses.
func (c *Client) FrameStep() error {
	_, err := c.sendCommand("frame-step")
	return err
}

// FrameBackStep goes back one frame and pauses.
func (c *Client) FrameBackStep() error {
	_, err := c.sendCommand("frame-back-step")
	return err
}

// LoadFile replaces the currently playing file.
func (c *Client) LoadFile(path string) error {
	_, err := c.sendCommand("loadfile", path, "replace")
	return err
}

// Quit asks mpv to exit.
func (c *Client) Quit() error {
	_, err := c.sendCommand("quit")
	return err
}

// toFloat64 converts an interface{} to float64.
// JSON numbers from mpv are typically decoded as float64.
func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("player: unexpected numeric value type: %T", v)
	}
}

// sendCommand sends a JSON IPC command to mpv and returns the result.
// The command is formatted as {"command": [command, args...], "request_id": <id>}
// and sent as newline-terminated JSON over the socket.
func (c *Client) sendCommand(command string, args ...interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	cmdArray := make([]interface{}, 0, len(args)+1)
	cmdArray = append(cmdArray, command)
	cmdArray = append(cmdArray, args...)

	reqID := atomic.AddUint64(&requestID, 1)

	req := ipcRequest{
		Command:   cmdArray,
		RequestID: reqID,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("player: failed to marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return nil, fmt.Errorf("player: failed to send command: %w", err)
	}

	// Read response lines until we get our request_id; other lines are
	// asynchronous mpv events.
	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("player: failed to read response: %w", err)
		}

		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}

		if resp.RequestID == reqID {
			if resp.Error != "" && resp.Error != "success" {
				return nil, fmt.Errorf("player: %s", resp.Error)
			}
			return resp.Data, nil
		}
	}
}
