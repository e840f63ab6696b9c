package library

import "strings"

// Playlist is a resolved node of the playlist forest.
type Playlist struct {
	PersistentID       string
	ID                 *int
	Name               string
	Description        *string
	DistinguishedKind  *int
	ParentPersistentID *string

	Visible    bool
	AllItems   bool
	Folder     bool
	Master     bool
	Music      bool
	Movies     bool
	TVShows    bool
	Audiobooks bool
	Podcasts   bool
	Smart      bool

	depth    int
	parent   *Playlist
	ancestry []*Playlist
	children []*Playlist
	tracks   []*Track
}

// Depth is 0 for top-level playlists and parent depth + 1 otherwise.
func (p *Playlist) Depth() int { return p.depth }

// Parent returns nil for top-level playlists.
func (p *Playlist) Parent() *Playlist { return p.parent }

func (p *Playlist) IsTopLevel() bool { return p.parent == nil }

// Ancestry lists the playlists from the top-level root down to and
// including p.
func (p *Playlist) Ancestry() []*Playlist {
	return append([]*Playlist(nil), p.ancestry...)
}

func (p *Playlist) Children() []*Playlist {
	return append([]*Playlist(nil), p.children...)
}

func (p *Playlist) HasChildren() bool { return len(p.children) > 0 }

// Tracks returns the member tracks in playlist order. The same track can
// appear more than once.
func (p *Playlist) Tracks() []*Track {
	return append([]*Track(nil), p.tracks...)
}

func (p *Playlist) TrackCount() int { return len(p.tracks) }

// Path joins the names of the ancestry with sep.
func (p *Playlist) Path(sep string) string {
	names := make([]string, 0, len(p.ancestry))
	for _, a := range p.ancestry {
		names = append(names, a.Name)
	}
	return strings.Join(names, sep)
}

// Walk visits p and its descendants depth first, children in order.
func (p *Playlist) Walk(fn func(*Playlist)) {
	fn(p)
	for _, c := range p.children {
		c.Walk(fn)
	}
}

func (p *Playlist) isNonMusic() bool {
	return p.Movies || p.TVShows || p.Audiobooks || p.Podcasts
}

// PlaylistBuilder accumulates one playlist dictionary and its raw
// "Playlist Items" track ids, in document order.
type PlaylistBuilder struct {
	playlist Playlist
	trackIDs []int
	built    bool
}

func NewPlaylistBuilder() *PlaylistBuilder {
	return &PlaylistBuilder{playlist: Playlist{Visible: true}}
}

func (b *PlaylistBuilder) PersistentID() string { return b.playlist.PersistentID }

func (b *PlaylistBuilder) Name() string { return b.playlist.Name }

func (b *PlaylistBuilder) ParentPersistentID() (string, bool) {
	if b.playlist.ParentPersistentID == nil || *b.playlist.ParentPersistentID == "" {
		return "", false
	}
	return *b.playlist.ParentPersistentID, true
}

// TrackIDs returns the raw referenced track ids.
func (b *PlaylistBuilder) TrackIDs() []int {
	return append([]int(nil), b.trackIDs...)
}

// AddTrackID appends a raw "Playlist Items" reference.
func (b *PlaylistBuilder) AddTrackID(id int) {
	b.trackIDs = append(b.trackIDs, id)
}

// build turns the builder into a Playlist placed under parent, which must
// already be resolved (nil for top-level).
func (b *PlaylistBuilder) build(parent *Playlist) *Playlist {
	if b.built {
		panic("library: PlaylistBuilder built twice")
	}
	b.built = true

	p := b.playlist
	pl := &p
	if parent == nil {
		pl.depth = 0
		pl.ancestry = []*Playlist{pl}
	} else {
		pl.parent = parent
		pl.depth = parent.depth + 1
		pl.ancestry = make([]*Playlist, 0, len(parent.ancestry)+1)
		pl.ancestry = append(pl.ancestry, parent.ancestry...)
		pl.ancestry = append(pl.ancestry, pl)
		parent.children = append(parent.children, pl)
	}
	return pl
}
