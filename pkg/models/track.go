package models

import "time"

// TrackRecord is a flat copy of a library track used by exporters
type TrackRecord struct {
	ID           int       `json:"id" csv:"track_id"`
	PersistentID string    `json:"persistentId" csv:"persistent_id"`
	Name         string    `json:"name" csv:"name"`
	Artist       string    `json:"artist" csv:"artist"`
	AlbumArtist  string    `json:"albumArtist,omitempty" csv:"album_artist"`
	Album        string    `json:"album" csv:"album"`
	Genre        string    `json:"genre,omitempty" csv:"genre"`
	Year         int       `json:"year,omitempty" csv:"year"`
	DiscNumber   int       `json:"discNumber,omitempty" csv:"disc_number"`
	TrackNumber  int       `json:"trackNumber,omitempty" csv:"track_number"`
	Duration     int       `json:"duration" csv:"duration_ms"` // in milliseconds
	FileSize     int64     `json:"fileSize" csv:"size"`
	Rating       int       `json:"rating,omitempty" csv:"rating"`
	PlayCount    int       `json:"playCount,omitempty" csv:"play_count"`
	Location     string    `json:"location,omitempty" csv:"location"`
	DateAdded    time.Time `json:"dateAdded,omitempty" csv:"date_added"`
}

// PlaylistRecord is a flat copy of a resolved playlist
type PlaylistRecord struct {
	PersistentID       string `json:"persistentId" csv:"persistent_id"`
	ParentPersistentID string `json:"parentPersistentId,omitempty" csv:"parent_persistent_id"`
	Name               string `json:"name" csv:"name"`
	Path               string `json:"path" csv:"path"`
	Depth              int    `json:"depth" csv:"depth"`
	Folder             bool   `json:"folder" csv:"folder"`
	TrackCount         int    `json:"trackCount" csv:"track_count"`
	Position           int    `json:"position" csv:"position"`
}

// PlaylistTrack represents the relationship between playlists and tracks
type PlaylistTrack struct {
	PlaylistID string `json:"playlistId"`
	TrackID    int    `json:"trackId"`
	Position   int    `json:"position"`
}

// FileInfo describes an audio file as read from disk
type FileInfo struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	TrackNumber int    `json:"trackNumber"`
	Duration    int    `json:"duration"` // in seconds
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
	HasAlbumArt bool   `json:"hasAlbumArt"`
	Tagged      bool   `json:"tagged"` // false when title, artist and album are not from tags
}
