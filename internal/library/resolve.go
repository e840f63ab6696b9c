package library

import (
	"fmt"
	"strings"
)

// Options is the playlist ignore policy applied during resolution.
type Options struct {
	IgnoreEmptyPlaylists         bool
	IgnoreNonMusicPlaylists      bool
	IgnoreDistinguishedPlaylists bool
	IgnoreMasterPlaylist         bool
	// IgnorePlaylistNames drops playlists by exact name.
	IgnorePlaylistNames []string
	// KeepPlaylistOrder leaves each playlist's tracks in document order
	// instead of sorting them.
	KeepPlaylistOrder bool
}

// Ignore reasons recorded in Resolution.Ignored.
const (
	ReasonEmpty         = "empty"
	ReasonNonMusic      = "non-music"
	ReasonDistinguished = "distinguished"
	ReasonMaster        = "master"
	ReasonName          = "name"
	ReasonParentIgnored = "parent ignored"
)

func (o Options) ignoreReason(b *PlaylistBuilder) string {
	p := &b.playlist
	switch {
	case o.IgnoreMasterPlaylist && p.Master:
		return ReasonMaster
	case o.IgnoreDistinguishedPlaylists && p.DistinguishedKind != nil:
		return ReasonDistinguished
	case o.IgnoreNonMusicPlaylists && p.isNonMusic():
		return ReasonNonMusic
	case o.IgnoreEmptyPlaylists && len(b.trackIDs) == 0:
		return ReasonEmpty
	}
	for _, name := range o.IgnorePlaylistNames {
		if p.Name == name {
			return ReasonName
		}
	}
	return ""
}

// IgnoredPlaylist is a builder dropped by the ignore policy.
type IgnoredPlaylist struct {
	Builder *PlaylistBuilder
	Reason  string
}

// Resolution is the output of Resolve. It is populated even when Resolve
// also returns an *UnresolvedError.
type Resolution struct {
	// Playlists in resolution order, parents always before children.
	Playlists []*Playlist
	TopLevel  []*Playlist

	Ignored    []IgnoredPlaylist
	Dangling   []*PlaylistBuilder
	Duplicates []*PlaylistBuilder
	Iterations int

	builders map[*Playlist]*PlaylistBuilder
}

// Builder returns the builder p was resolved from.
func (r *Resolution) Builder(p *Playlist) *PlaylistBuilder {
	return r.builders[p]
}

// UnresolvedError lists the builders still blocked when the iteration
// bound ran out, i.e. members of a parent cycle and their descendants.
type UnresolvedError struct {
	Playlists  []*PlaylistBuilder
	Iterations int
}

func (e *UnresolvedError) Error() string {
	ids := make([]string, 0, len(e.Playlists))
	for _, b := range e.Playlists {
		ids = append(ids, b.PersistentID())
	}
	return fmt.Sprintf("%d playlists unresolved after %d iterations: %s",
		len(e.Playlists), e.Iterations, strings.Join(ids, ", "))
}

// MaxIterations is the resolver bound for n playlists. A chain of n
// playlists listed child first resolves one node per pass of at most n
// dequeues; the slack absorbs ignored and dangling removals.
func MaxIterations(n int) int {
	return n*n + n + 1
}

// Resolve turns unordered builders into a playlist forest. A builder is
// finalized only once its parent has been, so forward references are
// requeued until the parent shows up. Builders whose parent exists
// nowhere are dropped as dangling.
func Resolve(builders []*PlaylistBuilder, opts Options) (*Resolution, error) {
	res := &Resolution{builders: make(map[*Playlist]*PlaylistBuilder, len(builders))}

	queue := make([]*PlaylistBuilder, len(builders))
	copy(queue, builders)

	pending := make(map[string]int, len(builders))
	for _, b := range queue {
		pending[b.PersistentID()]++
	}
	resolved := make(map[string]*Playlist, len(builders))
	ignored := make(map[string]string)

	ignore := func(b *PlaylistBuilder, reason string) {
		ignored[b.PersistentID()] = reason
		res.Ignored = append(res.Ignored, IgnoredPlaylist{Builder: b, Reason: reason})
	}

	finalize := func(b *PlaylistBuilder, parent *Playlist) {
		if _, dup := resolved[b.PersistentID()]; dup {
			res.Duplicates = append(res.Duplicates, b)
			return
		}
		p := b.build(parent)
		resolved[p.PersistentID] = p
		res.builders[p] = b
		res.Playlists = append(res.Playlists, p)
		if parent == nil {
			res.TopLevel = append(res.TopLevel, p)
		}
	}

	limit := MaxIterations(len(builders))
	for len(queue) > 0 && res.Iterations < limit {
		res.Iterations++

		b := queue[0]
		queue = queue[1:]
		id := b.PersistentID()
		pending[id]--

		if reason := opts.ignoreReason(b); reason != "" {
			ignore(b, reason)
			continue
		}

		parentID, hasParent := b.ParentPersistentID()
		if !hasParent {
			finalize(b, nil)
			continue
		}
		if parent, ok := resolved[parentID]; ok {
			finalize(b, parent)
			continue
		}
		// a later copy of an ignored id may still resolve
		if _, ok := ignored[parentID]; ok && pending[parentID] == 0 {
			ignore(b, ReasonParentIgnored)
			continue
		}
		if pending[parentID] == 0 && parentID != id {
			res.Dangling = append(res.Dangling, b)
			continue
		}

		// parent not resolved yet
		queue = append(queue, b)
		pending[id]++
	}

	if len(queue) > 0 {
		return res, &UnresolvedError{Playlists: queue, Iterations: res.Iterations}
	}
	return res, nil
}
