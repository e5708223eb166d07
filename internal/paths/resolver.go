// Package paths computes filesystem locations for pipeline artifacts.
//
// Every path handed to the external encoder crosses a process boundary,
// so nothing here is ever relative to the current working directory:
// resolver outputs are absolute, and concatenation manifest entries are
// relative to the manifest's own directory, which is how the encoder's
// concat demuxer resolves them.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps a job id and artifact kind to a collision-free location
// under a job-scoped working directory.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver rooted at dir. The root is made
// absolute once so later lookups do not depend on the process working
// directory.
func NewResolver(dir string) (*Resolver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work dir %q: %w", dir, err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute working root.
func (r *Resolver) Root() string {
	return r.root
}

// JobDir returns the absolute working directory owned exclusively by the
// given job.
func (r *Resolver) JobDir(jobID string) string {
	return filepath.Join(r.root, jobID)
}

// EnsureJobDir creates the job's working directory and returns it.
func (r *Resolver) EnsureJobDir(jobID string) (string, error) {
	dir := r.JobDir(jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job dir: %w", err)
	}
	return dir, nil
}

// SectionAudio returns the path of a section's narration clip.
func (r *Resolver) SectionAudio(jobID, section string) string {
	return filepath.Join(r.JobDir(jobID), fmt.Sprintf("audio_%s.mp3", section))
}

// SlideCaptions returns the path of a section's caption descriptor.
func (r *Resolver) SlideCaptions(jobID string, index int, section string) string {
	return filepath.Join(r.JobDir(jobID), fmt.Sprintf("slide_%d_%s.ass", index, section))
}

// SlideClip returns the path of a section's rendered slide clip.
func (r *Resolver) SlideClip(jobID string, index int, section string) string {
	return filepath.Join(r.JobDir(jobID), fmt.Sprintf("slide_%d_%s.mp4", index, section))
}

// ConcatManifest returns the path of the job's concatenation manifest.
func (r *Resolver) ConcatManifest(jobID string) string {
	return filepath.Join(r.JobDir(jobID), "concat.txt")
}

// FinalVideo returns the path of the job's finished video.
func (r *Resolver) FinalVideo(jobID string) string {
	return filepath.Join(r.JobDir(jobID), "final.mp4")
}

// ManifestEntry converts an absolute clip path into the form written
// into a concat manifest: relative to the manifest's own directory.
// The encoder resolves entries against the manifest location, not the
// invoking process's working directory, so this is the only relative
// form that is safe to emit. Clips outside the manifest's directory are
// rejected rather than written with ".." segments.
func ManifestEntry(manifestPath, clipPath string) (string, error) {
	if !filepath.IsAbs(manifestPath) {
		return "", fmt.Errorf("manifest path %q is not absolute", manifestPath)
	}
	if !filepath.IsAbs(clipPath) {
		return "", fmt.Errorf("clip path %q is not absolute", clipPath)
	}
	rel, err := filepath.Rel(filepath.Dir(manifestPath), clipPath)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %q: %w", clipPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("clip %q is outside the manifest directory", clipPath)
	}
	return filepath.ToSlash(rel), nil
}
