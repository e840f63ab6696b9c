package library

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tunesport/internal/document"
)

func TestTrackFieldsApply(t *testing.T) {
	b := NewTrackBuilder()
	added := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	require.NoError(t, TrackFields.Apply(b, "Track ID", document.Integer(7)))
	require.NoError(t, TrackFields.Apply(b, "Name", document.String("Song")))
	require.NoError(t, TrackFields.Apply(b, "Loved", document.Boolean(true)))
	require.NoError(t, TrackFields.Apply(b, "Date Added", document.Date(added)))
	require.NoError(t, TrackFields.Apply(b, "Location", document.String("file:///music/a%20b.mp3")))

	id, ok := b.DeclaredID()
	require.True(t, ok)
	require.Equal(t, 7, id)

	track := b.Build()
	require.Equal(t, "Song", *track.Name)
	require.True(t, *track.Loved)
	require.Equal(t, added, *track.DateAdded)
	require.Equal(t, "/music/a b.mp3", track.Location.Path)
	require.Panics(t, func() { b.Build() })
}

func TestFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value document.Value
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown field",
			field: "Future Field",
			value: document.String("x"),
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrUnknownField)
			},
		},
		{
			name:  "wrong kind",
			field: "Year",
			value: document.String("2001"),
			check: func(t *testing.T, err error) {
				var typeErr *FieldTypeError
				require.ErrorAs(t, err, &typeErr)
				require.Equal(t, "Year", typeErr.Field)
				require.Equal(t, document.KindInteger, typeErr.Expected)
				require.Equal(t, document.KindString, typeErr.Actual)
			},
		},
		{
			name:  "unparseable location",
			field: "Location",
			value: document.String("file:///bad%zz"),
			check: func(t *testing.T, err error) {
				var valueErr *FieldValueError
				require.ErrorAs(t, err, &valueErr)
				require.Equal(t, "Location", valueErr.Field)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewTrackBuilder()
			err := TrackFields.Apply(b, tc.field, tc.value)
			require.Error(t, err)
			tc.check(t, err)
			require.Equal(t, Track{}, b.track)
		})
	}
}

func TestNoopFieldsAcceptAnyKind(t *testing.T) {
	pb := NewPlaylistBuilder()
	require.NoError(t, PlaylistFields.Apply(pb, "Playlist Items", document.Array()))
	require.NoError(t, PlaylistFields.Apply(pb, "Playlist Items", document.String("odd")))
	require.Empty(t, pb.TrackIDs())

	lb := NewLibraryBuilder()
	require.NoError(t, LibraryFields.Apply(lb, "Tracks", document.DictValue(document.NewDict())))
	require.NoError(t, LibraryFields.Apply(lb, "Playlists", document.Integer(3)))
}

func TestPlaylistFieldsSmart(t *testing.T) {
	b := NewPlaylistBuilder()
	require.True(t, b.playlist.Visible)
	require.NoError(t, PlaylistFields.Apply(b, "Smart Criteria", document.Data([]byte{1, 2})))
	require.NoError(t, PlaylistFields.Apply(b, "Visible", document.Boolean(false)))
	require.True(t, b.playlist.Smart)
	require.False(t, b.playlist.Visible)
}

func TestFieldTableDispatch(t *testing.T) {
	h, ok := PlaylistFields.Dispatch("Parent Persistent ID")
	require.True(t, ok)

	b := NewPlaylistBuilder()
	require.NoError(t, h(b, document.String("P1")))
	parent, ok := b.ParentPersistentID()
	require.True(t, ok)
	require.Equal(t, "P1", parent)

	_, ok = PlaylistFields.Dispatch("Nope")
	require.False(t, ok)
	require.Equal(t, "playlist", PlaylistFields.Entity())
	require.Contains(t, TrackFields.Fields(), "Total Time")
}

func TestFieldDiagnostic(t *testing.T) {
	d := fieldDiagnostic("track", "1", "Year", &FieldTypeError{Field: "Year", Expected: document.KindInteger, Actual: document.KindString})
	require.Equal(t, document.KindInteger, d.Expected)
	require.Equal(t, "unexpected value type", d.Message)
	require.Equal(t, "integer", d.fields()["expected"])

	d = fieldDiagnostic("track", "1", "X", errors.Join(ErrUnknownField))
	require.Equal(t, "unknown field ignored", d.Message)
}
