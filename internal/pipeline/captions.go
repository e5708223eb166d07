package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// captionWrapWidth is tuned for the centered 1080x1080 play area on a
// 1080x1920 canvas: 24 characters per line reads well on mobile.
const captionWrapWidth = 24

// assHeader is the ASS (Advanced SubStation Alpha) style template burned
// into every slide. DejaVu Sans ships with the ffmpeg deployment image,
// so rendering never depends on a system font that may be absent.
const assHeader = `[Script Info]
ScriptType: v4.00+
Collisions: Normal
PlayDepth: 0

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,DejaVu Sans,14,&H00FFFFFF,&H000000FF,&H00FFFF00,&H00FF00FF,1,0,0,0,100,100,0,0,1,3,1,5,100,100,420,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// buildCaptions renders the caption descriptor for one slide: the style
// header plus a single dialogue event spanning the whole slide.
func buildCaptions(text string, duration time.Duration) string {
	dialogue := fmt.Sprintf("Dialogue: 0,0:00:00.00,%s,Default,,0,0,0,,%s\n",
		assTimestamp(duration), wrapText(text, captionWrapWidth))
	return assHeader + dialogue
}

// wrapText word-wraps text to at most maxChars per line, joining lines
// with the ASS hard line break.
func wrapText(text string, maxChars int) string {
	words := strings.Fields(text)

	var lines []string
	var current []string
	length := 0

	for _, word := range words {
		if length+len(word)+1 <= maxChars {
			current = append(current, word)
			length += len(word) + 1
		} else {
			if len(current) > 0 {
				lines = append(lines, strings.Join(current, " "))
			}
			current = []string{word}
			length = len(word)
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	return strings.Join(lines, `\N`)
}

// assTimestamp formats a duration as an ASS timestamp (H:MM:SS.CC).
func assTimestamp(d time.Duration) string {
	totalCentis := int64(d / (10 * time.Millisecond))
	centis := totalCentis % 100
	totalSecs := totalCentis / 100
	secs := totalSecs % 60
	mins := (totalSecs / 60) % 60
	hours := totalSecs / 3600
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, mins, secs, centis)
}
