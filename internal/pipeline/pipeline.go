// Package pipeline drives the multi-stage rendering of one job: section
// narration audio, per-section caption slides, and the concatenated
// finished video. Stages run strictly sequentially within a job; any
// stage failure fails the whole job, so a video missing a section is
// never produced.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanestdotsol/viralreels/internal/ffmpeg"
	"github.com/cleanestdotsol/viralreels/internal/models"
	"github.com/cleanestdotsol/viralreels/internal/paths"
)

// SlidePadding is added after each section's narration so slides never
// cut the voice off.
const SlidePadding = time.Second

// SpeechSynthesizer produces one narration clip from text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// Encoder is the external encoding collaborator.
type Encoder interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
	RenderSlide(ctx context.Context, spec ffmpeg.SlideSpec) error
	Concat(ctx context.Context, manifestPath, outputPath string) error
}

// Pipeline renders one job end to end.
type Pipeline struct {
	synth   SpeechSynthesizer
	enc     Encoder
	paths   *paths.Resolver
	padding time.Duration
	log     zerolog.Logger
}

// New creates a Pipeline with the default slide padding.
func New(synth SpeechSynthesizer, enc Encoder, resolver *paths.Resolver, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		synth:   synth,
		enc:     enc,
		paths:   resolver,
		padding: SlidePadding,
		log:     log,
	}
}

type sectionAudio struct {
	models.Section
	audioPath string
	duration  time.Duration
}

// Run executes all stages for job and returns the finished video path.
// Each job owns its working directory exclusively; nothing outside it is
// read or written.
func (p *Pipeline) Run(ctx context.Context, job models.Job, script *models.Script) (string, error) {
	sections := script.Sections()
	if len(sections) == 0 {
		return "", fmt.Errorf("script %s has no sections", script.ID)
	}

	if _, err := p.paths.EnsureJobDir(job.ID); err != nil {
		return "", err
	}

	log := p.log.With().Str("job_id", job.ID).Str("script_id", script.ID).Logger()

	audio, err := p.synthesize(ctx, job.ID, sections, log)
	if err != nil {
		return "", err
	}

	clips, err := p.renderSlides(ctx, job.ID, audio, log)
	if err != nil {
		return "", err
	}

	final, err := p.assemble(ctx, job.ID, clips, log)
	if err != nil {
		return "", err
	}

	log.Info().Str("video", final).Msg("pipeline finished")
	return final, nil
}

// synthesize produces one narration clip per section and measures its
// real duration from the produced file. A single failed section fails
// the stage: an incomplete audio set must never reach the assembler.
func (p *Pipeline) synthesize(ctx context.Context, jobID string, sections []models.Section, log zerolog.Logger) ([]sectionAudio, error) {
	timer := prometheusTimer("synthesize")
	defer timer()

	audio := make([]sectionAudio, 0, len(sections))
	for _, s := range sections {
		outPath := p.paths.SectionAudio(jobID, s.Name)

		if err := p.synth.Synthesize(ctx, s.Text, outPath); err != nil {
			return nil, fmt.Errorf("synthesize section %s: %w", s.Name, err)
		}

		dur, err := p.enc.Duration(ctx, outPath)
		if err != nil {
			return nil, fmt.Errorf("measure audio for section %s: %w", s.Name, err)
		}
		if dur <= 0 {
			return nil, fmt.Errorf("synthesis produced empty audio for section %s", s.Name)
		}

		sectionsSynthesized.Inc()
		log.Debug().Str("section", s.Name).Dur("duration", dur).Msg("section audio ready")
		audio = append(audio, sectionAudio{Section: s, audioPath: outPath, duration: dur})
	}
	return audio, nil
}

// renderSlides encodes one clip per section: audio duration plus padding
// of black background with the captions burned in. The encoder's exit
// status alone is not trusted; the produced file is verified.
func (p *Pipeline) renderSlides(ctx context.Context, jobID string, audio []sectionAudio, log zerolog.Logger) ([]sectionClip, error) {
	timer := prometheusTimer("render")
	defer timer()

	clips := make([]sectionClip, 0, len(audio))
	for _, a := range audio {
		slideDur := a.duration + p.padding

		captionsPath := p.paths.SlideCaptions(jobID, a.Index, a.Name)
		content := buildCaptions(a.Text, slideDur)
		if err := os.WriteFile(captionsPath, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("write captions for section %s: %w", a.Name, err)
		}
		// A missing descriptor at encode time is a configuration error,
		// not something to retry.
		if _, err := os.Stat(captionsPath); err != nil {
			return nil, fmt.Errorf("captions descriptor missing for section %s: %w", a.Name, err)
		}

		clipPath := p.paths.SlideClip(jobID, a.Index, a.Name)
		spec := ffmpeg.SlideSpec{
			Duration:     slideDur,
			AudioPath:    a.audioPath,
			CaptionsPath: captionsPath,
			OutputPath:   clipPath,
		}
		if err := p.enc.RenderSlide(ctx, spec); err != nil {
			return nil, fmt.Errorf("render section %s: %w", a.Name, err)
		}

		if err := p.verifyClip(ctx, clipPath); err != nil {
			return nil, fmt.Errorf("render section %s: %w", a.Name, err)
		}

		slidesRendered.Inc()
		log.Debug().Str("section", a.Name).Dur("duration", slideDur).Msg("slide rendered")
		clips = append(clips, sectionClip{Section: a.Section, clipPath: clipPath})
	}
	return clips, nil
}

type sectionClip struct {
	models.Section
	clipPath string
}

// assemble concatenates the slide clips, in section order, into the
// finished video via a manifest the encoder resolves relative to the
// manifest's own directory.
func (p *Pipeline) assemble(ctx context.Context, jobID string, clips []sectionClip, log zerolog.Logger) (string, error) {
	timer := prometheusTimer("assemble")
	defer timer()

	// Never hand the encoder a manifest known to be invalid.
	for _, c := range clips {
		info, err := os.Stat(c.clipPath)
		if err != nil {
			return "", fmt.Errorf("clip missing for section %s", c.Name)
		}
		if info.Size() == 0 {
			return "", fmt.Errorf("clip empty for section %s", c.Name)
		}
	}

	manifestPath := p.paths.ConcatManifest(jobID)
	var manifest strings.Builder
	for _, c := range clips {
		entry, err := paths.ManifestEntry(manifestPath, c.clipPath)
		if err != nil {
			return "", fmt.Errorf("manifest entry for section %s: %w", c.Name, err)
		}
		fmt.Fprintf(&manifest, "file '%s'\n", entry)
	}
	if err := os.WriteFile(manifestPath, []byte(manifest.String()), 0644); err != nil {
		return "", fmt.Errorf("write concat manifest: %w", err)
	}

	finalPath := p.paths.FinalVideo(jobID)
	if err := p.enc.Concat(ctx, manifestPath, finalPath); err != nil {
		os.Remove(finalPath)
		return "", fmt.Errorf("concatenate video: %w", err)
	}

	if err := p.verifyClip(ctx, finalPath); err != nil {
		os.Remove(finalPath)
		return "", fmt.Errorf("concatenate video: %w", err)
	}

	log.Debug().Int("clips", len(clips)).Msg("clips concatenated")
	return finalPath, nil
}

// verifyClip is the post-condition check after an encoder invocation:
// the file must exist, be non-empty and carry a positive duration. A
// zero exit status with nothing produced is a first-class failure.
// Messages carry no filesystem paths; they end up in the job row served
// to API consumers, and the caller already names the section.
func (p *Pipeline) verifyClip(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("encoder produced no output")
	}
	if info.Size() == 0 {
		return fmt.Errorf("encoder produced empty output")
	}
	dur, err := p.enc.Duration(ctx, path)
	if err != nil {
		return fmt.Errorf("encoder output unreadable: %w", err)
	}
	if dur <= 0 {
		return fmt.Errorf("encoder produced zero-duration output")
	}
	return nil
}

func prometheusTimer(stage string) func() {
	start := time.Now()
	return func() {
		stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
