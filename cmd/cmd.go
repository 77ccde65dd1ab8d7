// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of tracks to return",
		Value:   value,
	}
}

func withOutput(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlags()...)
}

// setupCommand creates configuration and library files
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create configuration or an empty library database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Create an empty library database with the rekordbox schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Database file to create (defaults to the configured library path)",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tracksCommand handles track queries
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracks",
		Aliases: []string{"t"},
		Usage:   "Query tracks in the library",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search tracks by metadata",
				Flags: withOutput(
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match title, artist, or genre"},
					&cli.StringFlag{Name: "artist", Usage: "Artist substring"},
					&cli.StringFlag{Name: "title", Usage: "Title substring"},
					&cli.StringFlag{Name: "album", Usage: "Album substring"},
					&cli.StringFlag{Name: "genre", Usage: "Genre substring"},
					&cli.StringFlag{Name: "key", Usage: "Exact musical key"},
					&cli.FloatFlag{Name: "bpm-min", Usage: "Minimum BPM"},
					&cli.FloatFlag{Name: "bpm-max", Usage: "Maximum BPM"},
					&cli.IntFlag{Name: "rating-min", Usage: "Minimum rating (0-5)"},
					&cli.IntFlag{Name: "rating-max", Usage: "Maximum rating (0-5)"},
					&cli.IntFlag{Name: "plays-min", Usage: "Minimum play count"},
					&cli.IntFlag{Name: "plays-max", Usage: "Maximum play count"},
					limitFlag(50),
				),
				Action: r.SearchTracks,
			},
			{
				Name:      "get",
				Usage:     "Show one track",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.GetTrack,
			},
			{
				Name:      "key",
				Usage:     "List tracks in a musical key",
				ArgsUsage: "<key>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Flags:     outputFlags(),
				Action:    r.TracksByKey,
			},
			{
				Name:      "bpm",
				Usage:     "List tracks within an inclusive BPM range",
				ArgsUsage: "<min> <max>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "min"}, &cli.StringArg{Name: "max"}},
				Flags:     outputFlags(),
				Action:    r.TracksByBPM,
			},
			{
				Name:   "most-played",
				Usage:  "List the most played tracks",
				Flags:  withOutput(limitFlag(20)),
				Action: r.MostPlayed,
			},
			{
				Name:   "top-rated",
				Usage:  "List the highest rated tracks",
				Flags:  withOutput(limitFlag(20)),
				Action: r.TopRated,
			},
			{
				Name:   "unplayed",
				Usage:  "List tracks that have never been played",
				Flags:  withOutput(limitFlag(50)),
				Action: r.Unplayed,
			},
			{
				Name:      "filename",
				Usage:     "Find tracks by file name",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     outputFlags(),
				Action:    r.TracksByFilename,
			},
			{
				Name:      "path",
				Usage:     "Show the file location of a track",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.TrackPath,
			},
			{
				Name:      "validate",
				Usage:     "Check which track IDs exist in the library",
				ArgsUsage: "<id>...",
				Flags:     outputFlags(),
				Action:    r.ValidateTracks,
			},
		},
	}
}

// playlistsCommand handles playlist queries
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"p"},
		Usage:   "Query playlists in the library",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists, smart playlists, and folders",
				Flags:  outputFlags(),
				Action: r.ListPlaylists,
			},
			{
				Name:      "tracks",
				Usage:     "List the tracks of a playlist in playlist order",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.PlaylistTracks,
			},
			{
				Name:   "tree",
				Usage:  "Show the folder hierarchy",
				Flags:  outputFlags(),
				Action: r.PlaylistTree,
			},
		},
	}
}

// libraryCommand handles library-wide reports
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Library reports and connection status",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Group tracks and rank the groups",
				Flags: withOutput(
					&cli.StringFlag{
						Name:  "group-by",
						Usage: "Field to group by: genre, key, year, artist, rating",
						Value: "genre",
					},
					&cli.StringFlag{
						Name:  "aggregate-by",
						Usage: "Ranking metric: count, playCount, totalTime",
						Value: "count",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of groups to return",
						Value: 10,
					},
				),
				Action: r.AnalyzeLibrary,
			},
			{
				Name:   "stats",
				Usage:  "Show library statistics",
				Flags:  outputFlags(),
				Action: r.LibraryStats,
			},
			{
				Name:   "status",
				Usage:  "Show the library connection status",
				Flags:  outputFlags(),
				Action: r.LibraryStatus,
			},
		},
	}
}

// rateCommand sets a track rating
func rateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "rate",
		Usage:     "Set the star rating of a track (0-5)",
		ArgsUsage: "<id> <rating>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "value"}},
		Flags:     outputFlags(),
		Action:    r.RateTrack,
	}
}

// playsCommand sets a track play count
func playsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "plays",
		Usage:     "Set the play count of a track",
		ArgsUsage: "<id> <count>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "value"}},
		Flags:     outputFlags(),
		Action:    r.SetPlayCount,
	}
}

// exportCommand writes playlists to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export playlists to files",
		ArgsUsage: "[playlist-id...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt, m3u",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: rekordbox_export_{timestamp})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent writers (defaults to export.workers)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress progress output",
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the HTTP tool server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve library tools over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the interactive browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse playlists and export them interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt, m3u",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export directory",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file while the UI is running",
				Value: "./tmp/rbx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
