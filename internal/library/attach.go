package library

// MissingTrack is a "Playlist Items" reference to a track id that is not in
// the tracks section.
type MissingTrack struct {
	Playlist *Playlist
	TrackID  int
}

// attachTracks fills every resolved playlist with its tracks, keeping
// document order and duplicates, and records the membership on each track.
func attachTracks(res *Resolution, tracks map[int]*Track) []MissingTrack {
	var missing []MissingTrack
	for _, p := range res.Playlists {
		b := res.Builder(p)
		if b == nil {
			continue
		}
		p.tracks = make([]*Track, 0, len(b.trackIDs))
		for _, id := range b.trackIDs {
			t, ok := tracks[id]
			if !ok {
				missing = append(missing, MissingTrack{Playlist: p, TrackID: id})
				continue
			}
			p.tracks = append(p.tracks, t)
			t.addPlaylist(p.PersistentID)
		}
	}
	return missing
}
