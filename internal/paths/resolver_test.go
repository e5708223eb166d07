package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverReturnsAbsolutePaths(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	jobID := "0b56e2a1-9c2f-4a77-9e9e-000000000001"
	for _, p := range []string{
		r.JobDir(jobID),
		r.SectionAudio(jobID, "hook"),
		r.SlideCaptions(jobID, 0, "hook"),
		r.SlideClip(jobID, 0, "hook"),
		r.ConcatManifest(jobID),
		r.FinalVideo(jobID),
	} {
		assert.True(t, filepath.IsAbs(p), "expected absolute path, got %q", p)
	}
}

func TestResolverRelativeRootMadeAbsolute(t *testing.T) {
	r, err := NewResolver("work")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(r.Root()))
}

func TestResolverPathsAreCollisionFree(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, jobID := range []string{"job-a", "job-b"} {
		paths := []string{
			r.ConcatManifest(jobID),
			r.FinalVideo(jobID),
		}
		for i, section := range []string{"hook", "fact1", "payoff"} {
			paths = append(paths,
				r.SectionAudio(jobID, section),
				r.SlideCaptions(jobID, i, section),
				r.SlideClip(jobID, i, section),
			)
		}
		for _, p := range paths {
			assert.False(t, seen[p], "path collision: %q", p)
			seen[p] = true
		}
	}
}

func TestResolverJobDirsArePartitioned(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	a := r.JobDir("job-a")
	b := r.JobDir("job-b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, filepath.Dir(r.FinalVideo("job-a")))
	assert.Equal(t, b, filepath.Dir(r.FinalVideo("job-b")))
}

// Regression test for the doubled-path-segment failure class: an entry
// written into a manifest must resolve, against the manifest's own
// directory, to exactly the clip path the renderer emitted, no matter
// what the process working directory is.
func TestManifestEntryResolvesToClipPath(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	jobID := "job-a"
	manifest := r.ConcatManifest(jobID)

	for i, section := range []string{"hook", "fact1", "fact2", "payoff"} {
		clip := r.SlideClip(jobID, i, section)

		entry, err := ManifestEntry(manifest, clip)
		require.NoError(t, err)

		assert.False(t, filepath.IsAbs(entry))
		resolved := filepath.Join(filepath.Dir(manifest), filepath.FromSlash(entry))
		assert.Equal(t, clip, resolved)
	}
}

func TestManifestEntryIndependentOfWorkingDirectory(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	manifest := r.ConcatManifest("job-a")
	clip := r.SlideClip("job-a", 0, "hook")

	before, err := ManifestEntry(manifest, clip)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	other := t.TempDir()
	require.NoError(t, os.Chdir(other))
	defer os.Chdir(wd)

	after, err := ManifestEntry(manifest, clip)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	resolved := filepath.Join(filepath.Dir(manifest), filepath.FromSlash(after))
	assert.Equal(t, clip, resolved)
}

func TestManifestEntryRejectsOutsideClips(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	manifest := r.ConcatManifest("job-a")

	_, err = ManifestEntry(manifest, r.SlideClip("job-b", 0, "hook"))
	assert.Error(t, err)

	_, err = ManifestEntry(manifest, "slide_0_hook.mp4")
	assert.Error(t, err)

	_, err = ManifestEntry("concat.txt", r.SlideClip("job-a", 0, "hook"))
	assert.Error(t, err)
}

func TestEnsureJobDirCreatesDirectory(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	dir, err := r.EnsureJobDir("job-a")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
