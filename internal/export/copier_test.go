package export_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tunesport/internal/export"
)

func TestCopier(t *testing.T) {
	src := t.TempDir()
	a := filepath.Join(src, "Alpha", "01 First.mp3")
	b := filepath.Join(src, "misc", "b.flac")
	writeFile(t, a, "aaaa")
	writeFile(t, b, "bb")

	lib := buildLibrary(t, dict(
		"1", dict("Track ID", 1, "Artist", "Alpha", "Album", "One", "Location", fileURL(a)),
		"2", dict("Track ID", 2, "Artist", "Björk", "Location", fileURL(b)),
		"3", dict("Track ID", 3, "Artist", "Gone", "Location", fileURL(filepath.Join(src, "gone.mp3"))),
		"4", dict("Track ID", 4, "Name", "Stream"),
		"5", dict("Track ID", 5, "Artist", "Alpha", "Album", "One", "Location", fileURL(a)),
	))
	tracks := lib.Tracks()

	dest := t.TempDir()
	copier := export.NewCopier(dest, export.NewLocator(nil), export.CopyOptions{Concurrency: 2, ASCIINames: true}, quietLogger())

	stats, err := copier.Copy(context.Background(), tracks)
	require.NoError(t, err)
	require.Equal(t, export.CopyStats{Copied: 2, Missing: 2, Bytes: 6}, *stats)

	data, err := os.ReadFile(filepath.Join(dest, "Alpha", "One", "01 First.mp3"))
	require.NoError(t, err)
	require.Equal(t, "aaaa", string(data))
	_, err = os.Stat(filepath.Join(dest, "Bjork", "Unknown Album", "b.flac"))
	require.NoError(t, err)

	t.Run("second run skips up to date files", func(t *testing.T) {
		stats, err := copier.Copy(context.Background(), tracks)
		require.NoError(t, err)
		require.Equal(t, export.CopyStats{Skipped: 2, Missing: 2}, *stats)
	})

	t.Run("changed size is copied again", func(t *testing.T) {
		writeFile(t, a, "aaaaaa")
		stats, err := copier.Copy(context.Background(), tracks)
		require.NoError(t, err)
		require.Equal(t, int64(1), stats.Copied)
		require.Equal(t, int64(6), stats.Bytes)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		dry := t.TempDir()
		c := export.NewCopier(dry, export.NewLocator(nil), export.CopyOptions{DryRun: true}, quietLogger())
		stats, err := c.Copy(context.Background(), tracks)
		require.NoError(t, err)
		require.Equal(t, int64(2), stats.Copied)

		entries, err := os.ReadDir(dry)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := copier.Copy(ctx, tracks)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCopierPlanNameCollisions(t *testing.T) {
	lib := buildLibrary(t, dict(
		"1", dict("Track ID", 1, "Artist", "AC/DC", "Album", "Live", "Location", "file:///disk1/song.mp3"),
		"2", dict("Track ID", 2, "Artist", "AC/DC", "Album", "Live", "Location", "file:///disk2/Song.mp3"),
	))

	c := export.NewCopier("/out", export.NewLocator(nil), export.CopyOptions{}, quietLogger())
	jobs, unplanned := c.Plan(lib.Tracks())
	require.Empty(t, unplanned)
	require.Len(t, jobs, 2)

	targets := []string{jobs[0].Target, jobs[1].Target}
	require.ElementsMatch(t, []string{
		filepath.Join("AC_DC", "Live", "song.mp3"),
		filepath.Join("AC_DC", "Live", "Song (2).mp3"),
	}, targets)
}

func TestCopierPlanCaseInsensitiveDirectories(t *testing.T) {
	lib := buildLibrary(t, dict(
		"1", dict("Track ID", 1, "Artist", "ABBA", "Album", "Gold", "Location", "file:///disk1/SOS.mp3"),
		"2", dict("Track ID", 2, "Artist", "Abba", "Album", "GOLD", "Location", "file:///disk2/sos.mp3"),
	))

	c := export.NewCopier("/out", export.NewLocator(nil), export.CopyOptions{}, quietLogger())
	jobs, unplanned := c.Plan(lib.Tracks())
	require.Empty(t, unplanned)
	require.Len(t, jobs, 2)

	lowered := map[string]bool{}
	for _, job := range jobs {
		lowered[strings.ToLower(job.Target)] = true
	}
	require.Len(t, lowered, 2)
}
