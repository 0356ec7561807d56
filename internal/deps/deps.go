package deps

import (
	"fmt"
	"os/exec"
)

const (
	MpvInstallURL    = "https://mpv.io/installation/"
	FfmpegInstallURL = "https://ffmpeg.org/download.html"
)

// DependencyError contains information about a missing dependency
type DependencyError struct {
	Name       string
	InstallURL string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s not found. Install from: %s", e.Name, e.InstallURL)
}

// CheckMpv checks if mpv is installed and available in PATH
func CheckMpv(binary string) error {
	if binary == "" {
		binary = "mpv"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return &DependencyError{Name: binary, InstallURL: MpvInstallURL}
	}
	return nil
}

// CheckFfmpeg checks if ffmpeg is installed and available in PATH
func CheckFfmpeg(binary string) error {
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return &DependencyError{Name: binary, InstallURL: FfmpegInstallURL}
	}
	return nil
}

// CheckFfprobe checks if ffprobe is installed and available in PATH
func CheckFfprobe(binary string) error {
	if binary == "" {
		binary = "ffprobe"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return &DependencyError{Name: binary, InstallURL: FfmpegInstallURL}
	}
	return nil
}

// CheckAll checks all dependencies and returns a slice of errors for missing ones
func CheckAll(ffmpeg, ffprobe, mpv string) []error {
	var errors []error

	if err := CheckFfmpeg(ffmpeg); err != nil {
		errors = append(errors, err)
	}
	if err := CheckFfprobe(ffprobe); err != nil {
		errors = append(errors, err)
	}
	if err := CheckMpv(mpv); err != nil {
		errors = append(errors, err)
	}

	return errors
}
