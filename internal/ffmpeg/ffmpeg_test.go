package ffmpeg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlideArgs(t *testing.T) {
	spec := SlideSpec{
		Duration:     4500 * time.Millisecond,
		AudioPath:    "/work/job/audio_hook.mp3",
		CaptionsPath: "/work/job/slide_0_hook.ass",
		OutputPath:   "/work/job/slide_0_hook.mp4",
	}

	args := slideArgs(spec)
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "color=c=black:s=1080x1920:d=4.500:r=30")
	assert.Contains(t, joined, "-i /work/job/audio_hook.mp3")
	assert.Contains(t, joined, "ass=/work/job/slide_0_hook.ass")
	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-c:a aac")
	assert.Contains(t, joined, "-pix_fmt yuv420p")
	assert.Contains(t, joined, "-shortest")
	// Explicit overwrite flag, output last.
	assert.Contains(t, args, "-y")
	assert.Equal(t, spec.OutputPath, args[len(args)-1])
}

func TestConcatArgs(t *testing.T) {
	args := concatArgs("/work/job/concat.txt", "/work/job/final.mp4")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-f concat")
	assert.Contains(t, joined, "-safe 0")
	assert.Contains(t, joined, "-i /work/job/concat.txt")
	assert.Contains(t, joined, "-c copy")
	assert.Contains(t, args, "-y")
	assert.Equal(t, "/work/job/final.mp4", args[len(args)-1])
}

func TestTailTruncates(t *testing.T) {
	long := strings.Repeat("x", 500) + "the actual error"
	out := tail(long)
	assert.Len(t, out, stderrTail)
	assert.True(t, strings.HasSuffix(out, "the actual error"))

	assert.Equal(t, "short", tail("short\n"))
}
