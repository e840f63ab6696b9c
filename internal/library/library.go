package library

import (
	"net/url"
	"strings"
	"time"
)

// Library is the finished, read-only snapshot of one export.
type Library struct {
	MajorVersion       *int
	MinorVersion       *int
	Features           *int
	ApplicationVersion *string
	PersistentID       *string
	MusicFolder        *url.URL
	Date               *time.Time
	ShowContentRatings *bool

	tracks    []*Track
	playlists []*Playlist
	topLevel  []*Playlist

	trackIndex    map[int]*Track
	playlistIndex map[string]*Playlist
}

// Tracks returns every track, sorted by CompareTracks.
func (l *Library) Tracks() []*Track {
	return append([]*Track(nil), l.tracks...)
}

// Playlists returns every resolved playlist, sorted by ComparePlaylists.
func (l *Library) Playlists() []*Playlist {
	return append([]*Playlist(nil), l.playlists...)
}

// TopLevelPlaylists returns the parentless playlists, sorted.
func (l *Library) TopLevelPlaylists() []*Playlist {
	return append([]*Playlist(nil), l.topLevel...)
}

func (l *Library) Track(id int) (*Track, bool) {
	t, ok := l.trackIndex[id]
	return t, ok
}

func (l *Library) Playlist(persistentID string) (*Playlist, bool) {
	p, ok := l.playlistIndex[persistentID]
	return p, ok
}

// PlaylistsByName returns the playlists whose name matches case-insensitively,
// in library order.
func (l *Library) PlaylistsByName(name string) []*Playlist {
	var found []*Playlist
	for _, p := range l.playlists {
		if strings.EqualFold(p.Name, name) {
			found = append(found, p)
		}
	}
	return found
}

// PlaylistsOf returns the playlists holding t, in library order.
func (l *Library) PlaylistsOf(t *Track) []*Playlist {
	var found []*Playlist
	for _, p := range l.playlists {
		if t.InPlaylist(p.PersistentID) {
			found = append(found, p)
		}
	}
	return found
}

// LibraryBuilder accumulates the top-level library fields.
type LibraryBuilder struct {
	library Library
}

func NewLibraryBuilder() *LibraryBuilder {
	return &LibraryBuilder{}
}

// build freezes the metadata together with the resolved entities. The
// slices passed in are owned by the returned Library.
func (b *LibraryBuilder) build(tracks []*Track, playlists, topLevel []*Playlist) *Library {
	lib := b.library
	lib.tracks = tracks
	lib.playlists = playlists
	lib.topLevel = topLevel

	lib.trackIndex = make(map[int]*Track, len(tracks))
	for _, t := range tracks {
		lib.trackIndex[t.ID] = t
	}
	lib.playlistIndex = make(map[string]*Playlist, len(playlists))
	for _, p := range playlists {
		lib.playlistIndex[p.PersistentID] = p
	}
	return &lib
}
