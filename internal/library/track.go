package library

import (
	"net/url"
	"sort"
	"time"
)

// Track is a single library entry. Scalar attributes are nil when the
// export did not carry them. Tracks are never modified once the Library
// holding them is returned.
type Track struct {
	ID           int
	PersistentID string

	Name            *string
	SortName        *string
	Artist          *string
	SortArtist      *string
	AlbumArtist     *string
	SortAlbumArtist *string
	Album           *string
	SortAlbum       *string
	Composer        *string
	SortComposer    *string
	Genre           *string
	Kind            *string
	Comments        *string
	Equalizer       *string
	Work            *string
	Grouping        *string
	TrackType       *string
	ContentRating   *string
	Location        *url.URL

	Year               *int
	TrackNumber        *int
	TrackCount         *int
	DiscNumber         *int
	DiscCount          *int
	TotalTime          *int // milliseconds
	BitRate            *int
	SampleRate         *int
	Size               *int64
	Rating             *int // 0-100
	AlbumRating        *int
	BPM                *int
	StartTime          *int
	StopTime           *int
	VolumeAdjustment   *int
	PlayCount          *int
	PlayDate           *int64
	SkipCount          *int
	ArtworkCount       *int
	FileFolderCount    *int
	LibraryFolderCount *int
	FileType           *int
	Normalization      *int

	Compilation         *bool
	Disabled            *bool
	Loved               *bool
	Disliked            *bool
	RatingComputed      *bool
	AlbumRatingComputed *bool
	HasVideo            *bool
	Podcast             *bool
	Purchased           *bool
	Protected           *bool
	Explicit            *bool
	Clean               *bool
	PartOfGaplessAlbum  *bool

	DateAdded    *time.Time
	DateModified *time.Time
	ReleaseDate  *time.Time
	PlayDateUTC  *time.Time
	SkipDate     *time.Time

	// persistent ids of the playlists holding this track
	inPlaylists map[string]struct{}
}

// EffectiveArtist is the first non-empty of sort album artist, album
// artist, sort artist and artist.
func (t *Track) EffectiveArtist() string {
	return firstNonEmpty(t.SortAlbumArtist, t.AlbumArtist, t.SortArtist, t.Artist)
}

// EffectiveAlbum is the first non-empty of sort album and album.
func (t *Track) EffectiveAlbum() string {
	return firstNonEmpty(t.SortAlbum, t.Album)
}

// EffectiveName is the first non-empty of sort name and name.
func (t *Track) EffectiveName() string {
	return firstNonEmpty(t.SortName, t.Name)
}

// Title is the name as shown to users, falling back to the sort name.
func (t *Track) Title() string {
	return firstNonEmpty(t.Name, t.SortName)
}

// DisplayArtist prefers the album artist for grouping but falls back to
// the track artist.
func (t *Track) DisplayArtist() string {
	return firstNonEmpty(t.AlbumArtist, t.Artist)
}

// Duration converts TotalTime to a time.Duration, zero when unknown.
func (t *Track) Duration() time.Duration {
	if t.TotalTime == nil {
		return 0
	}
	return time.Duration(*t.TotalTime) * time.Millisecond
}

// InPlaylists returns the persistent ids of the playlists holding the
// track, sorted.
func (t *Track) InPlaylists() []string {
	ids := make([]string, 0, len(t.inPlaylists))
	for id := range t.inPlaylists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InPlaylist reports whether the playlist with persistentID holds t.
func (t *Track) InPlaylist(persistentID string) bool {
	_, ok := t.inPlaylists[persistentID]
	return ok
}

func (t *Track) addPlaylist(persistentID string) {
	if t.inPlaylists == nil {
		t.inPlaylists = make(map[string]struct{})
	}
	t.inPlaylists[persistentID] = struct{}{}
}

// TrackBuilder accumulates the fields of one track dictionary.
type TrackBuilder struct {
	track Track
	built bool
}

func NewTrackBuilder() *TrackBuilder {
	return &TrackBuilder{}
}

// DeclaredID returns the Track ID field, if one was set.
func (b *TrackBuilder) DeclaredID() (int, bool) {
	return b.track.ID, b.track.ID != 0
}

// Build hands over the accumulated track. The builder cannot be used
// afterwards.
func (b *TrackBuilder) Build() *Track {
	if b.built {
		panic("library: TrackBuilder.Build called twice")
	}
	b.built = true
	t := b.track
	return &t
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
