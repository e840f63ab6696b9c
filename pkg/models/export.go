package models

import "time"

// ExportRecord describes one snapshot of a library stored in the database
type ExportRecord struct {
	ID                  string    `json:"id"`
	LibraryPersistentID string    `json:"libraryPersistentId,omitempty"`
	SourcePath          string    `json:"sourcePath"`
	ApplicationVersion  string    `json:"applicationVersion,omitempty"`
	TrackCount          int       `json:"trackCount"`
	PlaylistCount       int       `json:"playlistCount"`
	Diagnostics         int       `json:"diagnostics"`
	CreatedAt           time.Time `json:"createdAt"`
}
