// Package ffmpeg wraps the external ffmpeg/ffprobe binaries used by the
// rendering pipeline. All invocations take explicit input and output
// paths, an explicit overwrite flag and a timeout; success of an encode
// is never inferred from the exit code alone; callers verify the
// produced file afterwards.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// stderrTail bounds how much encoder stderr is carried into an error.
const stderrTail = 200

// Slide geometry shared by every rendered clip.
const (
	slideSize      = "1080x1920"
	slideFrameRate = 30
)

// Runner invokes ffmpeg and ffprobe with a per-invocation timeout.
type Runner struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// NewRunner creates a Runner using the binaries from PATH.
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     timeout,
	}
}

// SlideSpec describes one slide encode: a solid background of the given
// duration with the caption descriptor burned in, muxed against the
// section audio. All paths must be absolute.
type SlideSpec struct {
	Duration     time.Duration
	AudioPath    string
	CaptionsPath string
	OutputPath   string
}

// Duration returns the container duration of a media file as reported
// by ffprobe. This is the measured duration of the produced content,
// not an estimate.
func (r *Runner) Duration(ctx context.Context, path string) (time.Duration, error) {
	out, err := r.run(ctx, r.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		// Base name only: these messages land in the persisted job error.
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}

	raw := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparsable duration %q for %s", raw, filepath.Base(path))
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// RenderSlide encodes one caption slide.
func (r *Runner) RenderSlide(ctx context.Context, spec SlideSpec) error {
	_, err := r.run(ctx, r.FFmpegPath, slideArgs(spec)...)
	if err != nil {
		return fmt.Errorf("ffmpeg slide encode: %w", err)
	}
	return nil
}

// Concat concatenates the clips listed in the manifest into outputPath
// without re-encoding. Manifest entries are resolved by ffmpeg relative
// to the manifest's directory.
func (r *Runner) Concat(ctx context.Context, manifestPath, outputPath string) error {
	_, err := r.run(ctx, r.FFmpegPath, concatArgs(manifestPath, outputPath)...)
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

func slideArgs(spec SlideSpec) []string {
	background := fmt.Sprintf("color=c=black:s=%s:d=%.3f:r=%d",
		slideSize, spec.Duration.Seconds(), slideFrameRate)
	return []string{
		"-f", "lavfi",
		"-i", background,
		"-i", spec.AudioPath,
		"-vf", fmt.Sprintf("ass=%s", spec.CaptionsPath),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-y",
		spec.OutputPath,
	}
}

func concatArgs(manifestPath, outputPath string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-y",
		outputPath,
	}
}

func (r *Runner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%s timed out after %s", name, r.Timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%s failed: %v (stderr: %s)", name, err, tail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		return s[len(s)-stderrTail:]
	}
	return s
}
