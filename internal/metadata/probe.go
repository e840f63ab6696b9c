package metadata

import (
	"strconv"
	"strings"

	"tunesport/internal/library"
	"tunesport/pkg/models"
)

// DurationTolerance is how far, in seconds, a file may differ from the
// library's Total Time before it is reported.
const DurationTolerance = 2

// Mismatch is one field where the library and the file disagree
type Mismatch struct {
	Field   string
	Library string
	File    string
}

type ProbeResult struct {
	TrackID    int
	File       models.FileInfo
	Mismatches []Mismatch
}

// OK reports whether the file matched the library entry.
func (r *ProbeResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Probe reads the file at path and compares it with the library track.
// Tag fields are only compared when the file carries tags. Fields the
// library leaves unset are not compared.
func (e *Extractor) Probe(t *library.Track, path string) (*ProbeResult, error) {
	info, err := e.ExtractFromFile(path)
	if err != nil {
		return nil, err
	}

	res := &ProbeResult{TrackID: t.ID, File: info}
	add := func(field, lib, file string) {
		res.Mismatches = append(res.Mismatches, Mismatch{Field: field, Library: lib, File: file})
	}

	if info.Tagged {
		if name := t.Title(); name != "" && !strings.EqualFold(name, info.Title) {
			add("Name", name, info.Title)
		}
		if t.Artist != nil && !strings.EqualFold(*t.Artist, info.Artist) {
			add("Artist", *t.Artist, info.Artist)
		}
		if t.Album != nil && !strings.EqualFold(*t.Album, info.Album) {
			add("Album", *t.Album, info.Album)
		}
		if t.TrackNumber != nil && info.TrackNumber != 0 && *t.TrackNumber != info.TrackNumber {
			add("Track Number", strconv.Itoa(*t.TrackNumber), strconv.Itoa(info.TrackNumber))
		}
	}

	if t.TotalTime != nil && info.Duration > 0 {
		libSecs := int(t.Duration().Seconds() + 0.5)
		if diff := libSecs - info.Duration; diff > DurationTolerance || diff < -DurationTolerance {
			add("Total Time", strconv.Itoa(libSecs)+"s", strconv.Itoa(info.Duration)+"s")
		}
	}
	if t.Size != nil && *t.Size != info.FileSize {
		add("Size", strconv.FormatInt(*t.Size, 10), strconv.FormatInt(info.FileSize, 10))
	}

	e.logger.WithField("trackId", t.ID).WithField("mismatches", len(res.Mismatches)).Debug("Probed track file")
	return res, nil
}
