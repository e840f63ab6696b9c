package export_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tunesport/internal/export"
)

func TestM3UWriter(t *testing.T) {
	src := t.TempDir()
	song := filepath.Join(src, "a.mp3")

	lib := buildLibrary(t,
		dict(
			"1", dict("Track ID", 1, "Name", "A", "Artist", "X", "Total Time", 61000, "Location", fileURL(song)),
			"2", dict("Track ID", 2, "Name", "No File"),
		),
		dict("Playlist Persistent ID", "F", "Name", "Mixes", "Folder", true),
		dict("Playlist Persistent ID", "P1", "Name", "Road/Trip", "Parent Persistent ID", "F", "Playlist Items", items(1, 2)),
		dict("Playlist Persistent ID", "P2", "Name", "Road_Trip", "Parent Persistent ID", "F", "Playlist Items", items(1)),
		dict("Playlist Persistent ID", "S", "Name", "Solo", "Playlist Items", items(1)),
	)

	out := filepath.Join(t.TempDir(), "playlists")
	w := export.NewM3UWriter(out, export.NewLocator(nil), false, quietLogger())
	stats, err := w.Write(lib)
	require.NoError(t, err)

	require.Equal(t, []string{
		"Solo.m3u8",
		filepath.Join("Mixes", "Road_Trip.m3u8"),
		filepath.Join("Mixes", "Road_Trip (2).m3u8"),
	}, stats.Files)
	require.Equal(t, 1, stats.Folders)
	require.Equal(t, 3, stats.Entries)
	require.Equal(t, 1, stats.SkippedItems)

	data, err := os.ReadFile(filepath.Join(out, "Solo.m3u8"))
	require.NoError(t, err)
	require.Equal(t, "#EXTM3U\n#PLAYLIST:Solo\n#EXTINF:61,X - A\n"+song+"\n", string(data))

	data, err = os.ReadFile(filepath.Join(out, "Mixes", "Road_Trip.m3u8"))
	require.NoError(t, err)
	require.Equal(t, "#EXTM3U\n#PLAYLIST:Road/Trip\n#EXTINF:61,X - A\n"+song+"\n", string(data))
}

func TestM3UWriterOverwrites(t *testing.T) {
	lib := buildLibrary(t,
		dict("1", dict("Track ID", 1, "Name", "A", "Location", "file:///music/a.mp3")),
		dict("Playlist Persistent ID", "S", "Name", "Björk Mix", "Playlist Items", items(1)),
	)

	out := t.TempDir()
	w := export.NewM3UWriter(out, export.NewLocator(nil), true, quietLogger())
	for i := 0; i < 2; i++ {
		stats, err := w.Write(lib)
		require.NoError(t, err)
		require.Equal(t, []string{"Bjork Mix.m3u8"}, stats.Files)
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestM3UWriterReportsFileErrors(t *testing.T) {
	lib := buildLibrary(t,
		dict("1", dict("Track ID", 1, "Name", "A", "Location", "file:///music/a.mp3")),
		dict("Playlist Persistent ID", "S", "Name", "Solo", "Playlist Items", items(1)),
	)

	out := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(out, "Solo.m3u8"), 0755))

	w := export.NewM3UWriter(out, export.NewLocator(nil), false, quietLogger())
	_, err := w.Write(lib)
	require.ErrorContains(t, err, "m3u")
}
