package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// Progress represents ffmpeg progress data parsed from one -progress block.
type Progress struct {
	Frame   int64
	FPS     float64
	Bitrate string
	OutTime time.Duration
	Speed   string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(Progress)
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultCRF    = 23
	DefaultPreset = "medium"
)
