package library

import "tunesport/pkg/models"

// Record copies t into a flat record. Absent values become zero values.
func (t *Track) Record() models.TrackRecord {
	r := models.TrackRecord{
		ID:           t.ID,
		PersistentID: t.PersistentID,
		Name:         deref(t.Name),
		Artist:       deref(t.Artist),
		AlbumArtist:  deref(t.AlbumArtist),
		Album:        deref(t.Album),
		Genre:        deref(t.Genre),
		Year:         deref(t.Year),
		DiscNumber:   deref(t.DiscNumber),
		TrackNumber:  deref(t.TrackNumber),
		Duration:     deref(t.TotalTime),
		FileSize:     deref(t.Size),
		Rating:       deref(t.Rating),
		PlayCount:    deref(t.PlayCount),
		DateAdded:    deref(t.DateAdded),
	}
	if t.Location != nil {
		r.Location = t.Location.String()
	}
	return r
}

// Record copies p into a flat record; position is its index in the
// library playlist order.
func (p *Playlist) Record(position int) models.PlaylistRecord {
	r := models.PlaylistRecord{
		PersistentID: p.PersistentID,
		Name:         p.Name,
		Path:         p.Path("/"),
		Depth:        p.depth,
		Folder:       p.Folder,
		TrackCount:   len(p.tracks),
		Position:     position,
	}
	if p.parent != nil {
		r.ParentPersistentID = p.parent.PersistentID
	}
	return r
}

// Memberships lists the playlist/track pairs of p in playlist order.
func (p *Playlist) Memberships() []models.PlaylistTrack {
	out := make([]models.PlaylistTrack, 0, len(p.tracks))
	for i, t := range p.tracks {
		out = append(out, models.PlaylistTrack{PlaylistID: p.PersistentID, TrackID: t.ID, Position: i})
	}
	return out
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
