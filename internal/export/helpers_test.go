package export_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"tunesport/internal/document"
	"tunesport/internal/library"
)

func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func dict(pairs ...any) document.Value {
	d := document.NewDict()
	for i := 0; i < len(pairs); i += 2 {
		var v document.Value
		switch x := pairs[i+1].(type) {
		case string:
			v = document.String(x)
		case int:
			v = document.Integer(int64(x))
		case bool:
			v = document.Boolean(x)
		case document.Value:
			v = x
		}
		d.Set(pairs[i].(string), v)
	}
	return document.DictValue(d)
}

func items(ids ...int) document.Value {
	values := make([]document.Value, 0, len(ids))
	for _, id := range ids {
		values = append(values, dict("Track ID", id))
	}
	return document.Array(values...)
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func buildLibrary(t *testing.T, tracks document.Value, playlists ...document.Value) *library.Library {
	t.Helper()
	root := dict("Tracks", tracks, "Playlists", document.Array(playlists...))
	res, err := library.NewParser(library.Options{}, quietLogger()).Parse(root)
	require.NoError(t, err)
	return res.Library
}

func parseFixture(t *testing.T) *library.Result {
	t.Helper()
	res, err := library.NewParser(library.Options{
		IgnoreEmptyPlaylists:         true,
		IgnoreNonMusicPlaylists:      true,
		IgnoreDistinguishedPlaylists: true,
		IgnoreMasterPlaylist:         true,
	}, quietLogger()).ParseFile("../library/testdata/library.xml")
	require.NoError(t, err)
	return res
}
