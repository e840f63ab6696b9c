package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"tunesport/internal/library"
)

const extM3U8 = ".m3u8"

// M3UWriter writes one extended M3U file per playlist. Folders, and any
// playlist with children, become directories holding the files of their
// children.
type M3UWriter struct {
	dir     string
	locator *Locator
	ascii   bool
	logger  *logrus.Logger
}

// M3UStats summarises one Write.
type M3UStats struct {
	Files        []string // relative to the output directory
	Folders      int
	Entries      int
	SkippedItems int // tracks without a usable location
}

func NewM3UWriter(dir string, locator *Locator, asciiNames bool, logger *logrus.Logger) *M3UWriter {
	return &M3UWriter{dir: dir, locator: locator, ascii: asciiNames, logger: logger}
}

// Write exports every playlist of lib below the output directory.
func (w *M3UWriter) Write(lib *library.Library) (*M3UStats, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("create playlist directory: %w", err)
	}

	stats := &M3UStats{}
	names := map[string]uniqueNames{}
	dirs := map[*library.Playlist]string{}

	var err error
	for _, top := range lib.TopLevelPlaylists() {
		top.Walk(func(p *library.Playlist) {
			if err != nil {
				return
			}
			parentDir := w.dir
			if parent := p.Parent(); parent != nil {
				parentDir = dirs[parent]
			}
			if names[parentDir] == nil {
				names[parentDir] = uniqueNames{}
			}
			base := SafeName(p.Name, w.ascii)

			if p.Folder || p.HasChildren() {
				dir := filepath.Join(parentDir, names[parentDir].claim(base, ""))
				if err = os.MkdirAll(dir, 0755); err != nil {
					err = fmt.Errorf("create folder %q: %w", p.Path("/"), err)
					return
				}
				dirs[p] = dir
				stats.Folders++
			}
			if p.Folder {
				return
			}

			path := filepath.Join(parentDir, names[parentDir].claim(base, extM3U8))
			err = w.writePlaylist(path, p, stats)
			if err == nil {
				rel, _ := filepath.Rel(w.dir, path)
				stats.Files = append(stats.Files, rel)
			}
		})
		if err != nil {
			return stats, err
		}
	}

	w.logger.WithFields(logrus.Fields{
		"dir":     w.dir,
		"files":   len(stats.Files),
		"folders": stats.Folders,
		"entries": stats.Entries,
		"skipped": stats.SkippedItems,
	}).Info("Playlists written")
	return stats, nil
}

func (w *M3UWriter) writePlaylist(path string, p *library.Playlist, stats *M3UStats) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create m3u: %w", err)
	}

	out := bufio.NewWriter(file)
	fmt.Fprintln(out, "#EXTM3U")
	fmt.Fprintf(out, "#PLAYLIST:%s\n", p.Name)

	for _, t := range p.Tracks() {
		location, err := w.locator.Path(t)
		if err != nil {
			w.logger.WithFields(logrus.Fields{
				"playlist": p.Name,
				"track_id": t.ID,
			}).WithError(err).Debug("Skipping playlist entry")
			stats.SkippedItems++
			continue
		}
		fmt.Fprintf(out, "#EXTINF:%d,%s\n", int(t.Duration().Seconds()), entryTitle(t))
		fmt.Fprintln(out, location)
		stats.Entries++
	}

	if err := out.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write m3u: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close m3u: %w", err)
	}
	return nil
}

func entryTitle(t *library.Track) string {
	name := t.Title()
	if artist := t.DisplayArtist(); artist != "" {
		return artist + " - " + name
	}
	return name
}
