package library_test

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"tunesport/internal/document"
	"tunesport/internal/library"
)

var defaultOptions = library.Options{
	IgnoreEmptyPlaylists:         true,
	IgnoreNonMusicPlaylists:      true,
	IgnoreDistinguishedPlaylists: true,
	IgnoreMasterPlaylist:         true,
}

func parseFixture(t *testing.T, opts library.Options) (*library.Result, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	res, err := library.NewParser(opts, logger).ParseFile("testdata/library.xml")
	require.NoError(t, err)
	return res, hook
}

func playlistIDs(playlists []*library.Playlist) []string {
	out := make([]string, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, p.PersistentID)
	}
	return out
}

func trackIDs(tracks []*library.Track) []int {
	out := make([]int, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

func findDiagnostics(diags []library.Diagnostic, id, field string) []library.Diagnostic {
	var out []library.Diagnostic
	for _, d := range diags {
		if d.ID == id && d.Field == field {
			out = append(out, d)
		}
	}
	return out
}

func TestParseFixture(t *testing.T) {
	res, hook := parseFixture(t, defaultOptions)
	lib := res.Library

	t.Run("metadata", func(t *testing.T) {
		require.Equal(t, 1, *lib.MajorVersion)
		require.Equal(t, 1, *lib.MinorVersion)
		require.Equal(t, "12.13.2.3", *lib.ApplicationVersion)
		require.Equal(t, "0123456789ABCDEF", *lib.PersistentID)
		require.Equal(t, "/Users/me/Music/iTunes/iTunes Media/", lib.MusicFolder.Path)
		require.Equal(t, 2024, lib.Date.Year())
		require.True(t, *lib.ShowContentRatings)
	})

	t.Run("tracks", func(t *testing.T) {
		require.Equal(t, []int{102, 101, 103}, trackIDs(lib.Tracks()))

		blue, ok := lib.Track(101)
		require.True(t, ok)
		require.Equal(t, "Blue Song", *blue.Name)
		require.Equal(t, "AAAA000000000101", blue.PersistentID)
		require.Equal(t, int64(4000000), *blue.Size)
		require.True(t, *blue.Loved)
		require.Equal(t, "/Users/me/Music/iTunes/iTunes Media/Music/Alpha/Colours/02 Blue Song.mp3", blue.Location.Path)
		require.Equal(t, 201, int(blue.Duration().Seconds()))

		anthem, ok := lib.Track(103)
		require.True(t, ok)
		require.Nil(t, anthem.Year)

		_, ok = lib.Track(104)
		require.False(t, ok)
		_, ok = lib.Track(999)
		require.False(t, ok)
	})

	t.Run("playlists", func(t *testing.T) {
		require.Equal(t, []string{"PL00000000000060", "FOLDER0000000010", "PL00000000000020"}, playlistIDs(lib.Playlists()))
		require.Equal(t, []string{"PL00000000000060", "FOLDER0000000010"}, playlistIDs(lib.TopLevelPlaylists()))

		mixes, ok := lib.Playlist("FOLDER0000000010")
		require.True(t, ok)
		require.True(t, mixes.Folder)
		require.Equal(t, 0, mixes.Depth())
		require.Equal(t, []string{"PL00000000000020"}, playlistIDs(mixes.Children()))
		require.Equal(t, []int{101, 103}, trackIDs(mixes.Tracks()))

		favourites, ok := lib.Playlist("PL00000000000020")
		require.True(t, ok)
		require.Equal(t, 1, favourites.Depth())
		require.Equal(t, "Mixes/Favourites", favourites.Path("/"))
		require.Equal(t, []*library.Playlist{mixes, favourites}, favourites.Ancestry())
		require.Equal(t, []int{101, 103, 103}, trackIDs(favourites.Tracks()))

		colours := lib.PlaylistsByName("colours only")
		require.Len(t, colours, 1)
		require.Equal(t, []int{102, 101}, trackIDs(colours[0].Tracks()))

		for _, id := range []string{"MASTER0000000001", "PL00000000000030", "PL00000000000040", "PL00000000000050"} {
			_, ok := lib.Playlist(id)
			require.False(t, ok, id)
		}
	})

	t.Run("memberships", func(t *testing.T) {
		blue, _ := lib.Track(101)
		require.Equal(t, []string{"FOLDER0000000010", "PL00000000000020", "PL00000000000060"}, blue.InPlaylists())
		require.Equal(t, []string{"PL00000000000060", "FOLDER0000000010", "PL00000000000020"}, playlistIDs(lib.PlaylistsOf(blue)))

		red, _ := lib.Track(102)
		require.Equal(t, []string{"PL00000000000060"}, red.InPlaylists())

		inLibrary := map[*library.Track]bool{}
		for _, tr := range lib.Tracks() {
			inLibrary[tr] = true
		}
		for _, p := range lib.Playlists() {
			for _, tr := range p.Tracks() {
				require.True(t, inLibrary[tr])
			}
		}
	})

	t.Run("diagnostics", func(t *testing.T) {
		diags := res.Diagnostics
		require.Empty(t, res.Unresolved)

		yearType := findDiagnostics(diags, "103", "Year")
		require.Len(t, yearType, 1)
		require.Equal(t, document.KindInteger, yearType[0].Expected)
		require.Equal(t, document.KindString, yearType[0].Actual)

		require.Len(t, findDiagnostics(diags, "104", "Track ID"), 1)

		unknown := findDiagnostics(diags, "101", "Future Field")
		require.Len(t, unknown, 1)
		require.Equal(t, logrus.DebugLevel, unknown[0].Level)

		items := findDiagnostics(diags, "PL00000000000020", "Playlist Items")
		require.Len(t, items, 3)
		require.Equal(t, document.KindInteger, items[0].Expected)
		require.Equal(t, document.KindString, items[0].Actual)
		require.Contains(t, items[2].Message, "555")

		dangling := findDiagnostics(diags, "PL00000000000030", "Parent Persistent ID")
		require.Len(t, dangling, 1)
		require.Contains(t, dangling[0].Message, "MISSING000000000")

		var warnings int
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel {
				warnings++
			}
		}
		require.Equal(t, 6, warnings)
	})
}

func TestParseWithoutIgnorePolicy(t *testing.T) {
	res, _ := parseFixture(t, library.Options{})
	lib := res.Library

	// master, movies and empty now survive; the orphan is still dangling
	require.Len(t, lib.Playlists(), 6)
	master, ok := lib.Playlist("MASTER0000000001")
	require.True(t, ok)
	require.True(t, master.Master)
	require.False(t, master.Visible)
	require.True(t, master.AllItems)

	movies, ok := lib.Playlist("PL00000000000040")
	require.True(t, ok)
	require.Equal(t, 2, *movies.DistinguishedKind)
	require.Empty(t, movies.Tracks())
}

func TestParseKeepPlaylistOrder(t *testing.T) {
	res, _ := parseFixture(t, library.Options{KeepPlaylistOrder: true})
	favourites, ok := res.Library.Playlist("PL00000000000020")
	require.True(t, ok)
	require.Equal(t, []int{103, 101, 103}, trackIDs(favourites.Tracks()))
}

func dict(pairs ...any) document.Value {
	d := document.NewDict()
	for i := 0; i < len(pairs); i += 2 {
		d.Set(pairs[i].(string), pairs[i+1].(document.Value))
	}
	return document.DictValue(d)
}

func items(ids ...int64) document.Value {
	values := make([]document.Value, 0, len(ids))
	for _, id := range ids {
		values = append(values, dict("Track ID", document.Integer(id)))
	}
	return document.Array(values...)
}

func TestParseScenarios(t *testing.T) {
	tracks := dict(
		"1", dict("Track ID", document.Integer(1), "Name", document.String("A"), "Artist", document.String("X")),
		"2", dict("Track ID", document.Integer(2), "Name", document.String("B"), "Artist", document.String("X")),
	)

	t.Run("parent and child", func(t *testing.T) {
		root := dict(
			"Tracks", tracks,
			"Playlists", document.Array(
				dict("Playlist Persistent ID", document.String("P1"), "Name", document.String("one"), "Playlist Items", items(1, 2)),
				dict("Playlist Persistent ID", document.String("P2"), "Name", document.String("two"),
					"Parent Persistent ID", document.String("P1"), "Playlist Items", items(2)),
			),
		)
		res, err := library.NewParser(library.Options{}, quietLogger()).Parse(root)
		require.NoError(t, err)

		lib := res.Library
		require.Len(t, lib.Playlists(), 2)
		require.Len(t, lib.TopLevelPlaylists(), 1)
		p1, _ := lib.Playlist("P1")
		p2, _ := lib.Playlist("P2")
		require.Equal(t, []*library.Playlist{p2}, p1.Children())
		require.Equal(t, 0, p1.Depth())
		require.Equal(t, 1, p2.Depth())
		require.Equal(t, []*library.Playlist{p1, p2}, p2.Ancestry())
		require.Equal(t, []int{1, 2}, trackIDs(p1.Tracks()))
		require.Equal(t, []int{2}, trackIDs(p2.Tracks()))
	})

	t.Run("missing parent", func(t *testing.T) {
		root := dict(
			"Tracks", tracks,
			"Playlists", document.Array(
				dict("Playlist Persistent ID", document.String("P1"), "Playlist Items", items(1)),
				dict("Playlist Persistent ID", document.String("P3"), "Parent Persistent ID", document.String("MISSING")),
			),
		)
		res, err := library.NewParser(library.Options{}, quietLogger()).Parse(root)
		require.NoError(t, err)
		require.Equal(t, []string{"P1"}, playlistIDs(res.Library.Playlists()))
		require.Len(t, findDiagnostics(res.Diagnostics, "P3", "Parent Persistent ID"), 1)
	})

	t.Run("mutual parents", func(t *testing.T) {
		root := dict(
			"Tracks", tracks,
			"Playlists", document.Array(
				dict("Playlist Persistent ID", document.String("A"), "Parent Persistent ID", document.String("B")),
				dict("Playlist Persistent ID", document.String("B"), "Parent Persistent ID", document.String("A")),
				dict("Playlist Persistent ID", document.String("C"), "Playlist Items", items(2)),
			),
		)
		logger, hook := test.NewNullLogger()
		res, err := library.NewParser(library.Options{}, logger).Parse(root)
		require.NoError(t, err)
		require.Equal(t, []string{"C"}, playlistIDs(res.Library.Playlists()))
		require.Len(t, res.Unresolved, 2)

		var errorsLogged int
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel {
				errorsLogged++
			}
		}
		require.Equal(t, 3, errorsLogged)
	})

	t.Run("no sections", func(t *testing.T) {
		res, err := library.NewParser(library.Options{}, quietLogger()).Parse(dict())
		require.NoError(t, err)
		require.Empty(t, res.Library.Tracks())
		require.Empty(t, res.Library.Playlists())
	})
}

func TestParsePlaylistItemDefects(t *testing.T) {
	tracks := dict(
		"1", dict("Track ID", document.Integer(1), "Name", document.String("A")),
		"2", dict("Track ID", document.Integer(2), "Name", document.String("B")),
	)

	tests := []struct {
		name       string
		items      document.Value
		wantTracks []int
		wantMsgs   []string
	}{
		{
			name:       "item without Track ID",
			items:      document.Array(dict("Other", document.Integer(1)), dict("Track ID", document.Integer(1))),
			wantTracks: []int{1},
			wantMsgs:   []string{"item 0 has no Track ID"},
		},
		{
			name:       "item is not a dictionary",
			items:      document.Array(document.String("x"), dict("Track ID", document.Integer(2))),
			wantTracks: []int{2},
			wantMsgs:   []string{"item 0 is not a dictionary"},
		},
		{
			name: "mixed defects",
			items: document.Array(
				dict("Other", document.Integer(1)),
				document.String("x"),
				dict("Track ID", document.Integer(1)),
			),
			wantTracks: []int{1},
			wantMsgs:   []string{"item 0 has no Track ID", "item 1 is not a dictionary"},
		},
		{
			name:       "items is not an array",
			items:      document.String("x"),
			wantTracks: []int{},
			wantMsgs:   []string{"unexpected value type"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := dict(
				"Tracks", tracks,
				"Playlists", document.Array(
					dict("Playlist Persistent ID", document.String("P"), "Name", document.String("Mix"), "Playlist Items", tc.items),
				),
			)
			res, err := library.NewParser(library.Options{}, quietLogger()).Parse(root)
			require.NoError(t, err)

			p, ok := res.Library.Playlist("P")
			require.True(t, ok)
			require.Equal(t, tc.wantTracks, trackIDs(p.Tracks()))

			diags := findDiagnostics(res.Diagnostics, "P", "Playlist Items")
			msgs := make([]string, 0, len(diags))
			for _, d := range diags {
				require.Equal(t, logrus.WarnLevel, d.Level)
				msgs = append(msgs, d.Message)
			}
			require.Equal(t, tc.wantMsgs, msgs)
		})
	}

	t.Run("kinds are recorded", func(t *testing.T) {
		root := dict(
			"Tracks", tracks,
			"Playlists", document.Array(
				dict("Playlist Persistent ID", document.String("P"), "Playlist Items", document.String("x")),
				dict("Playlist Persistent ID", document.String("Q"), "Playlist Items", document.Array(document.Integer(7))),
			),
		)
		res, err := library.NewParser(library.Options{}, quietLogger()).Parse(root)
		require.NoError(t, err)

		p := findDiagnostics(res.Diagnostics, "P", "Playlist Items")
		require.Len(t, p, 1)
		require.Equal(t, document.KindArray, p[0].Expected)
		require.Equal(t, document.KindString, p[0].Actual)

		q := findDiagnostics(res.Diagnostics, "Q", "Playlist Items")
		require.Len(t, q, 1)
		require.Equal(t, document.KindDict, q[0].Expected)
		require.Equal(t, document.KindInteger, q[0].Actual)
	})
}

func TestParseLogsAssemblyAtDebug(t *testing.T) {
	_, hook := parseFixture(t, defaultOptions)

	var assembled []*logrus.Entry
	for _, e := range hook.AllEntries() {
		require.NotEqual(t, logrus.InfoLevel, e.Level, e.Message)
		if e.Message == "Library assembled" {
			assembled = append(assembled, e)
		}
	}
	require.Len(t, assembled, 1)
	require.Equal(t, logrus.DebugLevel, assembled[0].Level)
	require.Equal(t, 3, assembled[0].Data["tracks"])
}

func TestParseFatal(t *testing.T) {
	tests := []struct {
		name string
		root document.Value
		want error
	}{
		{"root is an array", document.Array(), library.ErrRootNotDict},
		{"tracks is an array", dict("Tracks", document.Array()), library.ErrTracksNotDict},
		{"playlists is a dict", dict("Playlists", dict()), library.ErrPlaylistsNotList},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := library.NewParser(library.Options{}, quietLogger()).Parse(tc.root)
			require.Nil(t, res)
			require.ErrorIs(t, err, tc.want)

			var parseErr *library.ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := library.NewParser(library.Options{}, quietLogger()).ParseFile("testdata/nope.xml")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "open library file"))
}

func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}
