// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlags(def string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (text, json, csv, markdown)",
			Value:   def,
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// setupCommand creates the configuration file and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write config.toml if missing, then initialize the database and run migrations",
		Action: r.Setup,
	}
}

// tuiCommand returns the interactive player, which is also the default action.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.TUI,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search music, playlists and artists",
		ArgsUsage: "<query>",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "music", Usage: "Include music", Value: true},
			&cli.BoolFlag{Name: "playlists", Usage: "Include playlists", Value: true},
			&cli.BoolFlag{Name: "artists", Usage: "Include artists", Value: true},
		}, formatFlags("text")...),
		Action: r.Search,
	}
}

func trendingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "trending",
		Usage: "List trending music",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "region",
				Usage: "ISO 3166 country code (defaults to source.region)",
			},
		}, formatFlags("text")...),
		Action: r.Trending,
	}
}

func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "List the videos of a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  formatFlags("text"),
		Action: r.Playlist,
	}
}

func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artist",
		Usage: "List the videos and playlists of a channel",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  formatFlags("text"),
		Action: r.Artist,
	}
}

// exportCommand writes playlists to disk concurrently.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists to files",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "id",
				Usage:    "Playlist ID to export (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, text)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: ytui_export_{timestamp})",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent workers (max 10)",
				Value:   5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second",
				Value: 5,
			},
		},
		Action: r.Export,
	}
}

func favouritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favourites",
		Aliases: []string{"fav"},
		Usage:   "Manage favourite music, playlists and artists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favourites",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "kind", Usage: "Only list one kind (music, playlist, artist)"},
				}, formatFlags("text")...),
				Action: r.FavouritesList,
			},
			{
				Name:  "add",
				Usage: "Add a favourite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Title to store", Required: true},
					&cli.StringFlag{Name: "author", Usage: "Author to store"},
				},
				Action: r.FavouritesAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a favourite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
					&cli.StringArg{Name: "id"},
				},
				Action: r.FavouritesRemove,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show or clear play history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent plays, newest first",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum entries (0 for all)", Value: 50},
				}, formatFlags("text")...),
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Delete all history",
				Action: r.HistoryClear,
			},
		},
	}
}

// apiCommand handles raw calls against the first configured server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the first configured server",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}
