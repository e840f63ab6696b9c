package library

import (
	"cmp"
	"slices"
	"strings"
)

// CompareTracks orders tracks by effective artist, year, effective album,
// disc number, track number, effective name and persistent id. Absent
// values sort after present ones; text compares case-insensitively.
func CompareTracks(a, b *Track) int {
	if c := compareText(a.EffectiveArtist(), b.EffectiveArtist()); c != 0 {
		return c
	}
	if c := compareOptional(a.Year, b.Year); c != 0 {
		return c
	}
	if c := compareText(a.EffectiveAlbum(), b.EffectiveAlbum()); c != 0 {
		return c
	}
	return compareWithinAlbum(a, b)
}

// compareWithinAlbum is the tail of CompareTracks, used alone when a
// playlist holds a single album.
func compareWithinAlbum(a, b *Track) int {
	if c := compareOptional(a.DiscNumber, b.DiscNumber); c != 0 {
		return c
	}
	if c := compareOptional(a.TrackNumber, b.TrackNumber); c != 0 {
		return c
	}
	if c := compareText(a.EffectiveName(), b.EffectiveName()); c != 0 {
		return c
	}
	if c := compareText(a.PersistentID, b.PersistentID); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// ComparePlaylists orders playlists depth first: ancestries compare
// element by element with compareSiblings, and a prefix sorts before its
// extensions so a folder precedes its contents.
func ComparePlaylists(a, b *Playlist) int {
	n := min(len(a.ancestry), len(b.ancestry))
	for i := 0; i < n; i++ {
		if c := compareSiblings(a.ancestry[i], b.ancestry[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.ancestry), len(b.ancestry))
}

// compareSiblings puts playlists without children before folders, then
// sorts by name and persistent id.
func compareSiblings(a, b *Playlist) int {
	if a == b {
		return 0
	}
	if c := compareBool(a.HasChildren(), b.HasChildren()); c != 0 {
		return c
	}
	if c := compareText(a.Name, b.Name); c != 0 {
		return c
	}
	if c := compareText(a.PersistentID, b.PersistentID); c != 0 {
		return c
	}
	return strings.Compare(a.PersistentID, b.PersistentID)
}

// SortTracks sorts tracks in place with CompareTracks.
func SortTracks(tracks []*Track) {
	slices.SortStableFunc(tracks, CompareTracks)
}

// SortPlaylistTracks sorts the tracks of one playlist. When every track
// belongs to the same album only disc, track number and name decide, so a
// compilation without album artist keeps its running order.
func SortPlaylistTracks(tracks []*Track) {
	if isSingleAlbum(tracks) {
		slices.SortStableFunc(tracks, compareWithinAlbum)
		return
	}
	slices.SortStableFunc(tracks, CompareTracks)
}

// SortPlaylists sorts playlists in place with ComparePlaylists.
func SortPlaylists(playlists []*Playlist) {
	slices.SortStableFunc(playlists, ComparePlaylists)
}

func isSingleAlbum(tracks []*Track) bool {
	if len(tracks) < 2 {
		return false
	}
	album := strings.ToLower(tracks[0].EffectiveAlbum())
	if album == "" {
		return false
	}
	for _, t := range tracks[1:] {
		if strings.ToLower(t.EffectiveAlbum()) != album {
			return false
		}
	}
	return true
}

// sortGraph applies the orders bottom-up to every list of the graph.
func sortGraph(tracks []*Track, playlists, topLevel []*Playlist, opts Options) {
	for _, p := range playlists {
		SortPlaylists(p.children)
		if !opts.KeepPlaylistOrder {
			SortPlaylistTracks(p.tracks)
		}
	}
	SortTracks(tracks)
	SortPlaylists(topLevel)
	SortPlaylists(playlists)
}

// compareText treats the empty string as absent.
func compareText(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
