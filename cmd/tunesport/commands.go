package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"tunesport/internal/config"
	"tunesport/internal/database"
	"tunesport/internal/export"
	"tunesport/internal/library"
	"tunesport/internal/metadata"
	"tunesport/internal/watch"
)

// appEnv carries what every command needs: the effective configuration
// and a logger built from it.
type appEnv struct {
	cfg     *config.Config
	logger  *logrus.Logger
	closer  io.Closer
	locator *export.Locator
}

func setup(c *cli.Context) (*appEnv, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if path := c.String("library"); path != "" {
		cfg.Library.Path = path
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logger, closer, err := config.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &appEnv{
		cfg:     cfg,
		logger:  logger,
		closer:  closer,
		locator: export.NewLocator(cfg.Export.PathMappings),
	}, nil
}

func (env *appEnv) Close() error {
	return env.closer.Close()
}

func (env *appEnv) parse() (*library.Result, error) {
	start := time.Now()
	res, err := library.NewParser(env.cfg.PlaylistOptions(), env.logger).ParseFile(env.cfg.Library.Path)
	if err != nil {
		return nil, err
	}
	env.logger.WithFields(logrus.Fields{
		"path":        env.cfg.Library.Path,
		"tracks":      len(res.Library.Tracks()),
		"playlists":   len(res.Library.Playlists()),
		"diagnostics": len(res.Diagnostics),
		"elapsed":     time.Since(start),
	}).Info("Library parsed")
	return res, nil
}

// withLibrary runs fn with a freshly parsed library.
func withLibrary(c *cli.Context, fn func(env *appEnv, res *library.Result) error) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.parse()
	if err != nil {
		return err
	}
	return fn(env, res)
}

func summaryAction(c *cli.Context) error {
	return withLibrary(c, func(env *appEnv, res *library.Result) error {
		out := c.App.Writer
		if err := export.WriteSummary(out, res); err != nil {
			return err
		}
		if !c.Bool("diagnostics") && !c.Bool("verbose") {
			return nil
		}
		level := logrus.WarnLevel
		if c.Bool("verbose") {
			level = logrus.DebugLevel
		}
		fmt.Fprintln(out)
		return export.WriteDiagnostics(out, res.Diagnostics, level)
	})
}

func treeAction(c *cli.Context) error {
	return withLibrary(c, func(env *appEnv, res *library.Result) error {
		return export.WriteTree(c.App.Writer, res.Library)
	})
}

func tracksAction(c *cli.Context) error {
	return withLibrary(c, func(env *appEnv, res *library.Result) error {
		out := c.App.Writer
		if path := c.String("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()
			out = f
		}
		if c.Bool("playlists") {
			return export.WritePlaylistsCSV(out, res.Library)
		}
		return export.WriteTracksCSV(out, res.Library.Tracks())
	})
}

func m3uAction(c *cli.Context) error {
	return withLibrary(c, func(env *appEnv, res *library.Result) error {
		dir := env.cfg.Export.M3UDir
		if d := c.String("dir"); d != "" {
			dir = d
		}
		stats, err := writeM3U(env, res.Library, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Wrote %d playlists (%d folders, %d entries) to %s\n",
			len(stats.Files), stats.Folders, stats.Entries, dir)
		if stats.SkippedItems > 0 {
			fmt.Fprintf(c.App.Writer, "Skipped %d entries without a local file\n", stats.SkippedItems)
		}
		return nil
	})
}

func writeM3U(env *appEnv, lib *library.Library, dir string) (*export.M3UStats, error) {
	return export.NewM3UWriter(dir, env.locator, env.cfg.Export.ASCIINames, env.logger).Write(lib)
}

func copyAction(c *cli.Context) error {
	return withLibrary(c, func(env *appEnv, res *library.Result) error {
		tracks, err := selectTracks(res.Library, c.String("playlist"))
		if err != nil {
			return err
		}

		dest := env.cfg.Export.CopyDir
		if d := c.String("dest"); d != "" {
			dest = d
		}
		opts := export.CopyOptions{
			Concurrency: env.cfg.Export.CopyConcurrency,
			ASCIINames:  env.cfg.Export.ASCIINames,
			DryRun:      c.Bool("dry-run"),
		}
		if n := c.Int("concurrency"); n > 0 {
			opts.Concurrency = n
		}
		copier := export.NewCopier(dest, env.locator, opts, env.logger)

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		var stats *export.CopyStats
		run := func(ctx context.Context) error {
			var err error
			stats, err = copier.Copy(ctx, tracks)
			return err
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			err = spinner.New().Title(fmt.Sprintf("Copying %d tracks...", len(tracks))).Context(ctx).ActionWithErr(run).Run()
		} else {
			err = run(ctx)
		}
		if err != nil {
			return err
		}

		verb := "Copied"
		if opts.DryRun {
			verb = "Would copy"
		}
		fmt.Fprintf(c.App.Writer, "%s %d files (%s), %d up to date, %d missing\n",
			verb, stats.Copied, humanize.Bytes(uint64(stats.Bytes)), stats.Skipped, stats.Missing)
		return nil
	})
}

// selectTracks returns every track, or the tracks of the playlists named
// name in first-seen order.
func selectTracks(lib *library.Library, name string) ([]*library.Track, error) {
	if name == "" {
		return lib.Tracks(), nil
	}
	playlists := lib.PlaylistsByName(name)
	if len(playlists) == 0 {
		return nil, fmt.Errorf("no playlist named %q", name)
	}
	seen := map[int]bool{}
	var tracks []*library.Track
	for _, p := range playlists {
		for _, t := range p.Tracks() {
			if !seen[t.ID] {
				seen[t.ID] = true
				tracks = append(tracks, t)
			}
		}
	}
	return tracks, nil
}

func dbAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	db, err := database.NewDatabase(env.cfg.Database.Path, env.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("list") {
		return listExports(c, db)
	}

	res, err := env.parse()
	if err != nil {
		return err
	}
	id, err := db.SaveLibrary(c.Context, res, env.cfg.Library.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Saved snapshot %s to %s\n", id, env.cfg.Database.Path)

	if keep := c.Int("keep"); keep > 0 {
		removed, err := db.PruneExports(c.Context, keep)
		if err != nil {
			return err
		}
		if removed > 0 {
			fmt.Fprintf(c.App.Writer, "Pruned %d old snapshots\n", removed)
		}
	}
	return nil
}

func listExports(c *cli.Context, db *database.Database) error {
	exports, err := db.GetExports(c.Context)
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		fmt.Fprintln(c.App.Writer, "No snapshots stored")
		return nil
	}
	for _, e := range exports {
		fmt.Fprintf(c.App.Writer, "%s  %-14s  %s tracks  %s playlists  %s\n",
			e.ID, humanize.Time(e.CreatedAt), humanize.Comma(int64(e.TrackCount)),
			humanize.Comma(int64(e.PlaylistCount)), e.SourcePath)
	}
	return nil
}

func probeAction(c *cli.Context) error {
	return withLibrary(c, func(env *appEnv, res *library.Result) error {
		tracks, err := selectTracks(res.Library, c.String("playlist"))
		if err != nil {
			return err
		}

		extractor := metadata.NewExtractor(metadata.DefaultFormats, env.logger)
		out := c.App.Writer
		var checked, mismatched, missing, skipped int
		for _, t := range tracks {
			path, err := env.locator.Path(t)
			if err != nil || !extractor.IsAudioFile(path) {
				skipped++
				continue
			}
			result, err := extractor.Probe(t, path)
			if errors.Is(err, os.ErrNotExist) {
				missing++
				fmt.Fprintf(out, "%d %s: missing %s\n", t.ID, t.Title(), path)
				continue
			}
			if err != nil {
				return fmt.Errorf("probe track %d: %w", t.ID, err)
			}
			checked++
			if result.OK() {
				continue
			}
			mismatched++
			for _, m := range result.Mismatches {
				fmt.Fprintf(out, "%d %s: %s library=%q file=%q\n", t.ID, t.Title(), m.Field, m.Library, m.File)
			}
		}
		fmt.Fprintf(out, "Probed %d files: %d mismatched, %d missing, %d skipped\n", checked, mismatched, missing, skipped)
		return nil
	})
}

func watchAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	db, err := database.NewDatabase(env.cfg.Database.Path, env.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	refresh := func(ctx context.Context) error {
		res, err := env.parse()
		if err != nil {
			return err
		}
		stats, err := writeM3U(env, res.Library, env.cfg.Export.M3UDir)
		if err != nil {
			return err
		}
		id, err := db.SaveLibrary(ctx, res, env.cfg.Library.Path)
		if err != nil {
			return err
		}
		env.logger.WithFields(logrus.Fields{
			"playlists": len(stats.Files),
			"export_id": id,
		}).Info("Library exported")
		return nil
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := refresh(ctx); err != nil {
		env.logger.WithError(err).Error("Initial export failed")
	}

	debounce := time.Duration(env.cfg.Watch.DebounceMS) * time.Millisecond
	return watch.New(env.cfg.Library.Path, debounce, env.logger).Run(ctx, refresh)
}
