package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/sudipghimire533/ytui-music-sub000/internal/formatter"
	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// Search runs one query against the source and prints every requested result kind.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	q := services.SearchQuery{
		Query:            strings.TrimSpace(strings.Join(cmd.Args().Slice(), " ")),
		IncludeMusic:     cmd.Bool("music"),
		IncludePlaylists: cmd.Bool("playlists"),
		IncludeArtists:   cmd.Bool("artists"),
	}
	if q.Query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if !q.Any() {
		return fmt.Errorf("%w: at least one of --music, --playlists or --artists is required", shared.ErrInvalidArgument)
	}

	r.logger.Debug("searching", "query", q.Query, "source", r.source.Name())
	res, err := r.source.Search(ctx, q)
	if err != nil {
		return err
	}
	return formatter.WriteSearchResults(r.output, res, format, cmd.Bool("pretty"))
}

// Trending prints trending music for --region, or the configured region.
func (r *Runner) Trending(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	region := cmd.String("region")
	if region == "" {
		region = r.config.Source.Region
	}

	items, err := r.source.Trending(ctx, region)
	if err != nil {
		return err
	}
	return formatter.MusicTable(items).Write(r.output, format, cmd.Bool("pretty"))
}

// Playlist prints the videos of one playlist.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	items, err := r.source.PlaylistContents(ctx, id)
	if err != nil {
		return err
	}
	return formatter.MusicTable(items).Write(r.output, format, cmd.Bool("pretty"))
}

// Artist prints the videos and playlists of one channel.
func (r *Runner) Artist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	contents, err := r.source.ArtistContents(ctx, id)
	if err != nil {
		return err
	}
	if format == formatter.FormatJSON {
		return r.writeJSON(contents, cmd.Bool("pretty"))
	}
	return formatter.WriteSearchResults(r.output, &models.SearchResults{
		Music:     contents.Music,
		Playlists: contents.Playlists,
	}, format, cmd.Bool("pretty"))
}
