package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tunesport",
		Usage: "Turn an exported iTunes or Music library into playlists, file copies and reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./config.toml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"TUNESPORT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "library XML file, overrides the configured path",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "summary",
				Usage: "Print library totals and parse diagnostics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "diagnostics", Aliases: []string{"d"}, Usage: "list every warning"},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "include debug diagnostics"},
				},
				Action: summaryAction,
			},
			{
				Name:   "tree",
				Usage:  "Print the playlist hierarchy",
				Action: treeAction,
			},
			{
				Name:  "tracks",
				Usage: "Write tracks, or playlists, as CSV",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "playlists", Aliases: []string{"p"}, Usage: "write playlists instead of tracks"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file, stdout when empty"},
				},
				Action: tracksAction,
			},
			{
				Name:  "m3u",
				Usage: "Write one .m3u8 file per playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Usage: "output directory, overrides export.m3u_dir"},
				},
				Action: m3uAction,
			},
			{
				Name:  "copy",
				Usage: "Copy library files into an Artist/Album tree",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dest", Usage: "destination directory, overrides export.copy_dir"},
					&cli.IntFlag{Name: "concurrency", Usage: "parallel copies, overrides export.copy_concurrency"},
					&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "plan and log without writing"},
					&cli.StringFlag{Name: "playlist", Usage: "only copy the tracks of this playlist"},
				},
				Action: copyAction,
			},
			{
				Name:  "db",
				Usage: "Store a snapshot of the library in SQLite",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "keep", Usage: "prune to the newest N snapshots, 0 keeps all"},
					&cli.BoolFlag{Name: "list", Usage: "list stored snapshots instead of saving"},
				},
				Action: dbAction,
			},
			{
				Name:  "probe",
				Usage: "Compare library entries with the tags and durations of their files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "playlist", Usage: "only probe the tracks of this playlist"},
				},
				Action: probeAction,
			},
			{
				Name:   "watch",
				Usage:  "Rewrite playlists and the database whenever the library file changes",
				Action: watchAction,
			},
		},
	}
}
