package library

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"tunesport/internal/document"
)

// Fatal parse conditions. No library is returned for these.
var (
	ErrRootNotDict      = errors.New("root is not a dictionary")
	ErrTracksNotDict    = errors.New(`"Tracks" is not a dictionary`)
	ErrPlaylistsNotList = errors.New(`"Playlists" is not an array`)
)

// ParseError wraps a fatal condition with the kind that was found instead.
type ParseError struct {
	Err    error
	Actual document.Kind
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse library: %v (got %s)", e.Err, e.Actual)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is a finished library plus everything that was skipped on the
// way. Unresolved is non-empty when playlist cycles were found.
type Result struct {
	Library     *Library
	Diagnostics []Diagnostic
	Unresolved  []*PlaylistBuilder
}

// Parser builds a Library from a decoded property list. A Parser holds the
// diagnostics of its last run and must not be shared between goroutines.
type Parser struct {
	opts        Options
	logger      *logrus.Logger
	diagnostics []Diagnostic
}

func NewParser(opts Options, logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.New()
	}
	return &Parser{opts: opts, logger: logger}
}

// ParseFile decodes the property list at path and parses it.
func (p *Parser) ParseFile(path string) (*Result, error) {
	root, err := document.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	p.logger.WithField("path", path).Debug("Decoded library document")
	return p.Parse(root)
}

// Parse runs the whole pipeline: field dispatch, playlist resolution,
// track attachment, ordering and assembly.
func (p *Parser) Parse(root document.Value) (*Result, error) {
	p.diagnostics = nil

	rootDict, ok := root.Dict()
	if !ok {
		return nil, &ParseError{Err: ErrRootNotDict, Actual: root.Kind()}
	}

	libBuilder := NewLibraryBuilder()
	rootDict.Each(func(key string, v document.Value) {
		if err := LibraryFields.Apply(libBuilder, key, v); err != nil {
			p.report(fieldDiagnostic("library", "", key, err))
		}
	})

	tracks, trackIndex, err := p.parseTracks(rootDict)
	if err != nil {
		return nil, err
	}
	builders, err := p.parsePlaylists(rootDict)
	if err != nil {
		return nil, err
	}

	res, err := Resolve(builders, p.opts)
	p.reportResolution(res)

	var unresolved []*PlaylistBuilder
	var unresolvedErr *UnresolvedError
	if errors.As(err, &unresolvedErr) {
		unresolved = unresolvedErr.Playlists
		for _, b := range unresolved {
			p.report(Diagnostic{
				Entity:  "playlist",
				ID:      b.PersistentID(),
				Field:   "Parent Persistent ID",
				Message: fmt.Sprintf("playlist %q never resolved, parent cycle", b.Name()),
				Level:   logrus.ErrorLevel,
			})
		}
		p.logger.WithError(err).Error("Playlist hierarchy contains cycles, continuing without them")
	} else if err != nil {
		return nil, err
	}

	for _, m := range attachTracks(res, trackIndex) {
		p.report(Diagnostic{
			Entity:  "playlist",
			ID:      m.Playlist.PersistentID,
			Field:   "Playlist Items",
			Message: fmt.Sprintf("track %d not found", m.TrackID),
			Level:   logrus.WarnLevel,
		})
	}

	playlists := res.Playlists
	topLevel := res.TopLevel
	sortGraph(tracks, playlists, topLevel, p.opts)

	lib := libBuilder.build(tracks, playlists, topLevel)

	p.logger.WithFields(logrus.Fields{
		"tracks":      len(lib.tracks),
		"playlists":   len(lib.playlists),
		"top_level":   len(lib.topLevel),
		"diagnostics": len(p.diagnostics),
	}).Debug("Library assembled")

	return &Result{
		Library:     lib,
		Diagnostics: append([]Diagnostic(nil), p.diagnostics...),
		Unresolved:  unresolved,
	}, nil
}

// Diagnostics returns the diagnostics of the last Parse.
func (p *Parser) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), p.diagnostics...)
}

func (p *Parser) parseTracks(root *document.Dict) ([]*Track, map[int]*Track, error) {
	index := make(map[int]*Track)
	section, ok := root.Get("Tracks")
	if !ok {
		return nil, index, nil
	}
	dict, ok := section.Dict()
	if !ok {
		return nil, nil, &ParseError{Err: ErrTracksNotDict, Actual: section.Kind()}
	}

	tracks := make([]*Track, 0, dict.Len())
	dict.Each(func(key string, v document.Value) {
		t := p.parseTrack(key, v)
		if t == nil {
			return
		}
		if _, dup := index[t.ID]; dup {
			p.report(Diagnostic{Entity: "track", ID: key, Message: "duplicate track id", Level: logrus.WarnLevel})
			return
		}
		index[t.ID] = t
		tracks = append(tracks, t)
	})
	return tracks, index, nil
}

func (p *Parser) parseTrack(key string, v document.Value) *Track {
	outerID, err := strconv.Atoi(key)
	if err != nil || outerID <= 0 {
		p.report(Diagnostic{Entity: "track", ID: key, Message: "track key is not a positive integer", Level: logrus.WarnLevel})
		return nil
	}
	dict, ok := v.Dict()
	if !ok {
		p.report(Diagnostic{
			Entity: "track", ID: key, Expected: document.KindDict, Actual: v.Kind(),
			Message: "track entry is not a dictionary", Level: logrus.WarnLevel,
		})
		return nil
	}

	b := NewTrackBuilder()
	dict.Each(func(field string, fv document.Value) {
		if err := TrackFields.Apply(b, field, fv); err != nil {
			p.report(fieldDiagnostic("track", key, field, err))
		}
	})

	declared, ok := b.DeclaredID()
	if !ok || declared != outerID {
		p.report(Diagnostic{
			Entity:  "track",
			ID:      key,
			Field:   "Track ID",
			Message: fmt.Sprintf("declared track id %d does not match key %d", declared, outerID),
			Level:   logrus.WarnLevel,
		})
		return nil
	}
	return b.Build()
}

func (p *Parser) parsePlaylists(root *document.Dict) ([]*PlaylistBuilder, error) {
	section, ok := root.Get("Playlists")
	if !ok {
		return nil, nil
	}
	items, ok := section.Array()
	if !ok {
		return nil, &ParseError{Err: ErrPlaylistsNotList, Actual: section.Kind()}
	}

	builders := make([]*PlaylistBuilder, 0, len(items))
	for i, item := range items {
		if b := p.parsePlaylist(i, item); b != nil {
			builders = append(builders, b)
		}
	}
	return builders, nil
}

func (p *Parser) parsePlaylist(index int, v document.Value) *PlaylistBuilder {
	position := fmt.Sprintf("#%d", index)
	dict, ok := v.Dict()
	if !ok {
		p.report(Diagnostic{
			Entity: "playlist", ID: position, Expected: document.KindDict, Actual: v.Kind(),
			Message: "playlist entry is not a dictionary", Level: logrus.WarnLevel,
		})
		return nil
	}

	b := NewPlaylistBuilder()
	dict.Each(func(field string, fv document.Value) {
		if err := PlaylistFields.Apply(b, field, fv); err != nil {
			p.report(fieldDiagnostic("playlist", position, field, err))
		}
	})
	if b.PersistentID() == "" {
		p.report(Diagnostic{
			Entity: "playlist", ID: position, Field: "Playlist Persistent ID",
			Message: fmt.Sprintf("playlist %q has no persistent id", b.Name()), Level: logrus.WarnLevel,
		})
		return nil
	}

	if items, ok := dict.Get("Playlist Items"); ok {
		p.parsePlaylistItems(b, items)
	}
	return b
}

// parsePlaylistItems reads [{"Track ID": n}, ...]. Malformed entries are
// skipped one by one.
func (p *Parser) parsePlaylistItems(b *PlaylistBuilder, v document.Value) {
	const field = "Playlist Items"
	id := b.PersistentID()

	items, ok := v.Array()
	if !ok {
		p.report(Diagnostic{
			Entity: "playlist", ID: id, Field: field, Expected: document.KindArray, Actual: v.Kind(),
			Message: "unexpected value type", Level: logrus.WarnLevel,
		})
		return
	}

	for i, item := range items {
		entry, ok := item.Dict()
		if !ok {
			p.report(Diagnostic{
				Entity: "playlist", ID: id, Field: field, Expected: document.KindDict, Actual: item.Kind(),
				Message: fmt.Sprintf("item %d is not a dictionary", i), Level: logrus.WarnLevel,
			})
			continue
		}
		if entry.Len() != 1 {
			p.report(Diagnostic{
				Entity: "playlist", ID: id, Field: field,
				Message: fmt.Sprintf("item %d has %d keys, want 1", i, entry.Len()), Level: logrus.WarnLevel,
			})
			continue
		}
		raw, ok := entry.Get("Track ID")
		if !ok {
			p.report(Diagnostic{
				Entity: "playlist", ID: id, Field: field,
				Message: fmt.Sprintf("item %d has no Track ID", i), Level: logrus.WarnLevel,
			})
			continue
		}
		trackID, ok := raw.Int()
		if !ok {
			p.report(Diagnostic{
				Entity: "playlist", ID: id, Field: field, Expected: document.KindInteger, Actual: raw.Kind(),
				Message: fmt.Sprintf("item %d Track ID has unexpected type", i), Level: logrus.WarnLevel,
			})
			continue
		}
		b.AddTrackID(int(trackID))
	}
}

func (p *Parser) reportResolution(res *Resolution) {
	for _, ig := range res.Ignored {
		p.logger.WithFields(logrus.Fields{
			"id":     ig.Builder.PersistentID(),
			"name":   ig.Builder.Name(),
			"reason": ig.Reason,
		}).Debug("Ignoring playlist")
	}
	for _, b := range res.Dangling {
		parent, _ := b.ParentPersistentID()
		p.report(Diagnostic{
			Entity:  "playlist",
			ID:      b.PersistentID(),
			Field:   "Parent Persistent ID",
			Message: fmt.Sprintf("playlist %q references missing parent %s", b.Name(), parent),
			Level:   logrus.WarnLevel,
		})
	}
	for _, b := range res.Duplicates {
		p.report(Diagnostic{
			Entity:  "playlist",
			ID:      b.PersistentID(),
			Field:   "Playlist Persistent ID",
			Message: fmt.Sprintf("duplicate persistent id, playlist %q dropped", b.Name()),
			Level:   logrus.WarnLevel,
		})
	}
}

func (p *Parser) report(d Diagnostic) {
	if d.Level == logrus.PanicLevel {
		d.Level = logrus.WarnLevel
	}
	p.diagnostics = append(p.diagnostics, d)
	p.logger.WithFields(d.fields()).Log(d.Level, d.Message)
}
