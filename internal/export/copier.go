package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tunesport/internal/library"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// CopyOptions controls a Copier.
type CopyOptions struct {
	Concurrency int
	ASCIINames  bool
	DryRun      bool
}

// CopyJob is one planned file copy.
type CopyJob struct {
	Track  *library.Track
	Source string
	Target string // relative to the destination directory
}

// CopyStats counts the outcome of a Copy run.
type CopyStats struct {
	Copied  int64
	Skipped int64 // target already present with the same size
	Missing int64 // no location, or source file not found
	Bytes   int64
}

// Copier mirrors library files into an Artist/Album/file tree.
type Copier struct {
	dest    string
	locator *Locator
	opts    CopyOptions
	logger  *logrus.Logger
}

func NewCopier(dest string, locator *Locator, opts CopyOptions, logger *logrus.Logger) *Copier {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Copier{dest: dest, locator: locator, opts: opts, logger: logger}
}

// Plan maps tracks to target paths. Tracks without a file location are
// left out and returned separately. Each source is planned once.
func (c *Copier) Plan(tracks []*library.Track) (jobs []CopyJob, unplanned []*library.Track) {
	seen := map[string]bool{}
	names := map[string]uniqueNames{}

	for _, t := range tracks {
		src, err := c.locator.Path(t)
		if err != nil {
			unplanned = append(unplanned, t)
			continue
		}
		if seen[src] {
			continue
		}
		seen[src] = true

		artist := t.DisplayArtist()
		if artist == "" {
			artist = unknownArtist
		}
		album := deref(t.Album)
		if album == "" {
			album = unknownAlbum
		}
		dir := filepath.Join(SafeName(artist, c.opts.ASCIINames), SafeName(album, c.opts.ASCIINames))
		// one name set per directory regardless of case
		key := strings.ToLower(dir)
		if names[key] == nil {
			names[key] = uniqueNames{}
		}

		ext := filepath.Ext(src)
		base := SafeName(baseName(src, ext), c.opts.ASCIINames)
		jobs = append(jobs, CopyJob{
			Track:  t,
			Source: src,
			Target: filepath.Join(dir, names[key].claim(base, ext)),
		})
	}
	return jobs, unplanned
}

// Copy runs the plan for tracks with bounded concurrency. Missing sources
// are counted and logged; any other failure cancels the run.
func (c *Copier) Copy(parent context.Context, tracks []*library.Track) (*CopyStats, error) {
	jobs, unplanned := c.Plan(tracks)
	stats := &CopyStats{Missing: int64(len(unplanned))}
	for _, t := range unplanned {
		c.logger.WithField("track_id", t.ID).Debug("Track has no file location")
	}

	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(c.opts.Concurrency)

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return c.run(ctx, job, stats)
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	if err := parent.Err(); err != nil {
		return stats, err
	}

	c.logger.WithFields(logrus.Fields{
		"dest":    c.dest,
		"copied":  stats.Copied,
		"skipped": stats.Skipped,
		"missing": stats.Missing,
		"bytes":   stats.Bytes,
		"dry_run": c.opts.DryRun,
	}).Info("Copy finished")
	return stats, nil
}

func (c *Copier) run(ctx context.Context, job CopyJob, stats *CopyStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Stat(job.Source)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.WithFields(logrus.Fields{
			"track_id": job.Track.ID,
			"source":   job.Source,
		}).Warn("Source file not found")
		atomic.AddInt64(&stats.Missing, 1)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	target := filepath.Join(c.dest, job.Target)
	if dst, err := os.Stat(target); err == nil && dst.Size() == src.Size() {
		atomic.AddInt64(&stats.Skipped, 1)
		return nil
	}

	if c.opts.DryRun {
		c.logger.WithFields(logrus.Fields{"source": job.Source, "target": target}).Info("Would copy")
	} else if err := copyFile(job.Source, target); err != nil {
		return fmt.Errorf("copy track %d: %w", job.Track.ID, err)
	}
	atomic.AddInt64(&stats.Copied, 1)
	atomic.AddInt64(&stats.Bytes, src.Size())
	return nil
}

// copyFile writes to a temporary file next to dst and renames it into place.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tunesport-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func baseName(path, ext string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(ext)]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
