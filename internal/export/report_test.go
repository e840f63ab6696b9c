package export_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"tunesport/internal/export"
)

func TestWriteSummary(t *testing.T) {
	res := parseFixture(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteSummary(&buf, res))
	out := buf.String()

	require.Contains(t, out, "Tracks:      3\n")
	require.Contains(t, out, "Total size:  7.5 MB\n")
	require.Contains(t, out, "Total time:  6m26s\n")
	require.Contains(t, out, "Playlists:   3 (1 folders, 2 top level)\n")
	require.Contains(t, out, "Application: 12.13.2.3\n")
	require.Contains(t, out, "Exported:    2024-05-01T12:00:00Z")
	require.Contains(t, out, "Diagnostics: 6 warning, 1 debug\n")
	require.NotContains(t, out, "Unresolved")
}

func TestWriteTree(t *testing.T) {
	res := parseFixture(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteTree(&buf, res.Library))
	require.Equal(t, "Colours Only (2 tracks)\nMixes/\n  Favourites (3 tracks)\n", buf.String())
}

func TestWriteDiagnostics(t *testing.T) {
	res := parseFixture(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteDiagnostics(&buf, res.Diagnostics, logrus.WarnLevel))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	require.Contains(t, lines, "WARNING track 103 [Year]: unexpected value type (expected integer, got string)")

	buf.Reset()
	require.NoError(t, export.WriteDiagnostics(&buf, res.Diagnostics, logrus.DebugLevel))
	require.Contains(t, buf.String(), "DEBUG track 101 [Future Field]: unknown field ignored")
}

func TestWriteTracksCSV(t *testing.T) {
	res := parseFixture(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteTracksCSV(&buf, res.Library.Tracks()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, []string{"track_id", "persistent_id", "name", "artist"}, rows[0][:4])
	require.Equal(t, []string{"102", "AAAA000000000102", "Red Song", "Alpha"}, rows[1][:4])
	require.Equal(t, "103", rows[3][0])

	header := rows[0]
	idx := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}
	require.Equal(t, "2020-01-01T00:00:00Z", rows[2][idx("date_added")])
	require.Equal(t, "", rows[3][idx("location")])
	require.Equal(t, "0", rows[3][idx("year")])
}

func TestWritePlaylistsCSV(t *testing.T) {
	res := parseFixture(t)

	var buf bytes.Buffer
	require.NoError(t, export.WritePlaylistsCSV(&buf, res.Library))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, []string{"PL00000000000020", "FOLDER0000000010", "Favourites", "Mixes/Favourites", "1", "false", "3", "2"}, rows[3])
}
