package library

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"tunesport/internal/document"
)

// ErrUnknownField is returned for field names without a registered handler.
var ErrUnknownField = errors.New("unknown field")

// FieldTypeError reports a value whose kind does not match the handler.
type FieldTypeError struct {
	Field    string
	Expected document.Kind
	Actual   document.Kind
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// FieldValueError reports a value of the right kind that could not be used.
type FieldValueError struct {
	Field string
	Err   error
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldValueError) Unwrap() error { return e.Err }

// Handler applies one raw value to a builder.
type Handler[B any] func(b *B, v document.Value) error

type fieldSetter[B any] struct {
	kind document.Kind // KindInvalid marks a no-op registration
	set  func(b *B, v document.Value) error
}

// FieldTable maps source field names onto typed builder setters.
type FieldTable[B any] struct {
	entity  string
	setters map[string]fieldSetter[B]
}

func newFieldTable[B any](entity string, setters map[string]fieldSetter[B]) FieldTable[B] {
	return FieldTable[B]{entity: entity, setters: setters}
}

// Entity names the kind of record the table decodes, e.g. "track".
func (t FieldTable[B]) Entity() string { return t.entity }

// Dispatch returns the type-checking handler for field, if registered.
func (t FieldTable[B]) Dispatch(field string) (Handler[B], bool) {
	s, ok := t.setters[field]
	if !ok {
		return nil, false
	}
	return func(b *B, v document.Value) error {
		if s.kind == document.KindInvalid {
			return nil
		}
		if v.Kind() != s.kind {
			return &FieldTypeError{Field: field, Expected: s.kind, Actual: v.Kind()}
		}
		if err := s.set(b, v); err != nil {
			return &FieldValueError{Field: field, Err: err}
		}
		return nil
	}, true
}

// Apply dispatches field and runs its handler. Unknown fields yield an
// error wrapping ErrUnknownField; the builder is left untouched on error.
func (t FieldTable[B]) Apply(b *B, field string, v document.Value) error {
	h, ok := t.Dispatch(field)
	if !ok {
		return fmt.Errorf("%s %q: %w", t.entity, field, ErrUnknownField)
	}
	return h(b, v)
}

// Fields lists the registered field names.
func (t FieldTable[B]) Fields() []string {
	names := make([]string, 0, len(t.setters))
	for name := range t.setters {
		names = append(names, name)
	}
	return names
}

func noop[B any]() fieldSetter[B] {
	return fieldSetter[B]{}
}

func stringField[B any](set func(b *B, s string)) fieldSetter[B] {
	return fieldSetter[B]{kind: document.KindString, set: func(b *B, v document.Value) error {
		s, _ := v.Str()
		set(b, s)
		return nil
	}}
}

func intField[B any](set func(b *B, i int64)) fieldSetter[B] {
	return fieldSetter[B]{kind: document.KindInteger, set: func(b *B, v document.Value) error {
		i, _ := v.Int()
		set(b, i)
		return nil
	}}
}

func boolField[B any](set func(b *B, flag bool)) fieldSetter[B] {
	return fieldSetter[B]{kind: document.KindBoolean, set: func(b *B, v document.Value) error {
		flag, _ := v.Bool()
		set(b, flag)
		return nil
	}}
}

func dateField[B any](set func(b *B, t time.Time)) fieldSetter[B] {
	return fieldSetter[B]{kind: document.KindDate, set: func(b *B, v document.Value) error {
		t, _ := v.Time()
		set(b, t)
		return nil
	}}
}

func dataField[B any](set func(b *B, data []byte)) fieldSetter[B] {
	return fieldSetter[B]{kind: document.KindData, set: func(b *B, v document.Value) error {
		data, _ := v.Bytes()
		set(b, data)
		return nil
	}}
}

func urlField[B any](set func(b *B, u *url.URL)) fieldSetter[B] {
	return fieldSetter[B]{kind: document.KindString, set: func(b *B, v document.Value) error {
		s, _ := v.Str()
		u, err := url.Parse(s)
		if err != nil {
			return err
		}
		set(b, u)
		return nil
	}}
}

func ptr[T any](v T) *T { return &v }

func intPtr(i int64) *int { return ptr(int(i)) }

type trackSetter = fieldSetter[TrackBuilder]

// TrackFields decodes the per-track dictionaries of the "Tracks" section.
var TrackFields = newFieldTable("track", map[string]trackSetter{
	"Track ID":      intField(func(b *TrackBuilder, i int64) { b.track.ID = int(i) }),
	"Persistent ID": stringField(func(b *TrackBuilder, s string) { b.track.PersistentID = s }),

	"Name":              stringField(func(b *TrackBuilder, s string) { b.track.Name = &s }),
	"Sort Name":         stringField(func(b *TrackBuilder, s string) { b.track.SortName = &s }),
	"Artist":            stringField(func(b *TrackBuilder, s string) { b.track.Artist = &s }),
	"Sort Artist":       stringField(func(b *TrackBuilder, s string) { b.track.SortArtist = &s }),
	"Album Artist":      stringField(func(b *TrackBuilder, s string) { b.track.AlbumArtist = &s }),
	"Sort Album Artist": stringField(func(b *TrackBuilder, s string) { b.track.SortAlbumArtist = &s }),
	"Album":             stringField(func(b *TrackBuilder, s string) { b.track.Album = &s }),
	"Sort Album":        stringField(func(b *TrackBuilder, s string) { b.track.SortAlbum = &s }),
	"Composer":          stringField(func(b *TrackBuilder, s string) { b.track.Composer = &s }),
	"Sort Composer":     stringField(func(b *TrackBuilder, s string) { b.track.SortComposer = &s }),
	"Genre":             stringField(func(b *TrackBuilder, s string) { b.track.Genre = &s }),
	"Kind":              stringField(func(b *TrackBuilder, s string) { b.track.Kind = &s }),
	"Comments":          stringField(func(b *TrackBuilder, s string) { b.track.Comments = &s }),
	"Equalizer":         stringField(func(b *TrackBuilder, s string) { b.track.Equalizer = &s }),
	"Work":              stringField(func(b *TrackBuilder, s string) { b.track.Work = &s }),
	"Grouping":          stringField(func(b *TrackBuilder, s string) { b.track.Grouping = &s }),
	"Track Type":        stringField(func(b *TrackBuilder, s string) { b.track.TrackType = &s }),
	"Content Rating":    stringField(func(b *TrackBuilder, s string) { b.track.ContentRating = &s }),
	"Location":          urlField(func(b *TrackBuilder, u *url.URL) { b.track.Location = u }),

	"Year":                 intField(func(b *TrackBuilder, i int64) { b.track.Year = intPtr(i) }),
	"Track Number":         intField(func(b *TrackBuilder, i int64) { b.track.TrackNumber = intPtr(i) }),
	"Track Count":          intField(func(b *TrackBuilder, i int64) { b.track.TrackCount = intPtr(i) }),
	"Disc Number":          intField(func(b *TrackBuilder, i int64) { b.track.DiscNumber = intPtr(i) }),
	"Disc Count":           intField(func(b *TrackBuilder, i int64) { b.track.DiscCount = intPtr(i) }),
	"Total Time":           intField(func(b *TrackBuilder, i int64) { b.track.TotalTime = intPtr(i) }),
	"Bit Rate":             intField(func(b *TrackBuilder, i int64) { b.track.BitRate = intPtr(i) }),
	"Sample Rate":          intField(func(b *TrackBuilder, i int64) { b.track.SampleRate = intPtr(i) }),
	"Size":                 intField(func(b *TrackBuilder, i int64) { b.track.Size = ptr(i) }),
	"Rating":               intField(func(b *TrackBuilder, i int64) { b.track.Rating = intPtr(i) }),
	"Album Rating":         intField(func(b *TrackBuilder, i int64) { b.track.AlbumRating = intPtr(i) }),
	"BPM":                  intField(func(b *TrackBuilder, i int64) { b.track.BPM = intPtr(i) }),
	"Start Time":           intField(func(b *TrackBuilder, i int64) { b.track.StartTime = intPtr(i) }),
	"Stop Time":            intField(func(b *TrackBuilder, i int64) { b.track.StopTime = intPtr(i) }),
	"Volume Adjustment":    intField(func(b *TrackBuilder, i int64) { b.track.VolumeAdjustment = intPtr(i) }),
	"Play Count":           intField(func(b *TrackBuilder, i int64) { b.track.PlayCount = intPtr(i) }),
	"Play Date":            intField(func(b *TrackBuilder, i int64) { b.track.PlayDate = ptr(i) }),
	"Skip Count":           intField(func(b *TrackBuilder, i int64) { b.track.SkipCount = intPtr(i) }),
	"Artwork Count":        intField(func(b *TrackBuilder, i int64) { b.track.ArtworkCount = intPtr(i) }),
	"File Folder Count":    intField(func(b *TrackBuilder, i int64) { b.track.FileFolderCount = intPtr(i) }),
	"Library Folder Count": intField(func(b *TrackBuilder, i int64) { b.track.LibraryFolderCount = intPtr(i) }),
	"File Type":            intField(func(b *TrackBuilder, i int64) { b.track.FileType = intPtr(i) }),
	"Normalization":        intField(func(b *TrackBuilder, i int64) { b.track.Normalization = intPtr(i) }),

	"Compilation":           boolField(func(b *TrackBuilder, v bool) { b.track.Compilation = &v }),
	"Disabled":              boolField(func(b *TrackBuilder, v bool) { b.track.Disabled = &v }),
	"Loved":                 boolField(func(b *TrackBuilder, v bool) { b.track.Loved = &v }),
	"Disliked":              boolField(func(b *TrackBuilder, v bool) { b.track.Disliked = &v }),
	"Rating Computed":       boolField(func(b *TrackBuilder, v bool) { b.track.RatingComputed = &v }),
	"Album Rating Computed": boolField(func(b *TrackBuilder, v bool) { b.track.AlbumRatingComputed = &v }),
	"Has Video":             boolField(func(b *TrackBuilder, v bool) { b.track.HasVideo = &v }),
	"Podcast":               boolField(func(b *TrackBuilder, v bool) { b.track.Podcast = &v }),
	"Purchased":             boolField(func(b *TrackBuilder, v bool) { b.track.Purchased = &v }),
	"Protected":             boolField(func(b *TrackBuilder, v bool) { b.track.Protected = &v }),
	"Explicit":              boolField(func(b *TrackBuilder, v bool) { b.track.Explicit = &v }),
	"Clean":                 boolField(func(b *TrackBuilder, v bool) { b.track.Clean = &v }),
	"Part Of Gapless Album": boolField(func(b *TrackBuilder, v bool) { b.track.PartOfGaplessAlbum = &v }),

	"Date Added":    dateField(func(b *TrackBuilder, t time.Time) { b.track.DateAdded = &t }),
	"Date Modified": dateField(func(b *TrackBuilder, t time.Time) { b.track.DateModified = &t }),
	"Release Date":  dateField(func(b *TrackBuilder, t time.Time) { b.track.ReleaseDate = &t }),
	"Play Date UTC": dateField(func(b *TrackBuilder, t time.Time) { b.track.PlayDateUTC = &t }),
	"Skip Date":     dateField(func(b *TrackBuilder, t time.Time) { b.track.SkipDate = &t }),
})

type playlistSetter = fieldSetter[PlaylistBuilder]

// PlaylistFields decodes the entries of the "Playlists" array.
var PlaylistFields = newFieldTable("playlist", map[string]playlistSetter{
	"Name":                   stringField(func(b *PlaylistBuilder, s string) { b.playlist.Name = s }),
	"Description":            stringField(func(b *PlaylistBuilder, s string) { b.playlist.Description = &s }),
	"Playlist ID":            intField(func(b *PlaylistBuilder, i int64) { b.playlist.ID = intPtr(i) }),
	"Playlist Persistent ID": stringField(func(b *PlaylistBuilder, s string) { b.playlist.PersistentID = s }),
	"Parent Persistent ID":   stringField(func(b *PlaylistBuilder, s string) { b.playlist.ParentPersistentID = &s }),
	"Distinguished Kind":     intField(func(b *PlaylistBuilder, i int64) { b.playlist.DistinguishedKind = intPtr(i) }),

	"Visible":    boolField(func(b *PlaylistBuilder, v bool) { b.playlist.Visible = v }),
	"All Items":  boolField(func(b *PlaylistBuilder, v bool) { b.playlist.AllItems = v }),
	"Folder":     boolField(func(b *PlaylistBuilder, v bool) { b.playlist.Folder = v }),
	"Master":     boolField(func(b *PlaylistBuilder, v bool) { b.playlist.Master = v }),
	"Music":      boolField(func(b *PlaylistBuilder, v bool) { b.playlist.Music = v }),
	"Movies":     boolField(func(b *PlaylistBuilder, v bool) { b.playlist.Movies = v }),
	"TV Shows":   boolField(func(b *PlaylistBuilder, v bool) { b.playlist.TVShows = v }),
	"Audiobooks": boolField(func(b *PlaylistBuilder, v bool) { b.playlist.Audiobooks = v }),
	"Podcasts":   boolField(func(b *PlaylistBuilder, v bool) { b.playlist.Podcasts = v }),

	"Smart Info":     dataField(func(b *PlaylistBuilder, _ []byte) { b.playlist.Smart = true }),
	"Smart Criteria": dataField(func(b *PlaylistBuilder, _ []byte) { b.playlist.Smart = true }),

	// decoded by Parser.parsePlaylistItems
	"Playlist Items": noop[PlaylistBuilder](),
})

type librarySetter = fieldSetter[LibraryBuilder]

// LibraryFields decodes the root dictionary.
var LibraryFields = newFieldTable("library", map[string]librarySetter{
	"Major Version":         intField(func(b *LibraryBuilder, i int64) { b.library.MajorVersion = intPtr(i) }),
	"Minor Version":         intField(func(b *LibraryBuilder, i int64) { b.library.MinorVersion = intPtr(i) }),
	"Features":              intField(func(b *LibraryBuilder, i int64) { b.library.Features = intPtr(i) }),
	"Application Version":   stringField(func(b *LibraryBuilder, s string) { b.library.ApplicationVersion = &s }),
	"Library Persistent ID": stringField(func(b *LibraryBuilder, s string) { b.library.PersistentID = &s }),
	"Music Folder":          urlField(func(b *LibraryBuilder, u *url.URL) { b.library.MusicFolder = u }),
	"Date":                  dateField(func(b *LibraryBuilder, t time.Time) { b.library.Date = &t }),
	"Show Content Ratings":  boolField(func(b *LibraryBuilder, v bool) { b.library.ShowContentRatings = &v }),

	// decoded by Parser.parseTracks and Parser.parsePlaylists
	"Tracks":    noop[LibraryBuilder](),
	"Playlists": noop[LibraryBuilder](),
})
