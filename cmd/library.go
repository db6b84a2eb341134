package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sudipghimire533/ytui-music-sub000/internal/formatter"
	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// FavouritesList prints favourites in the order they were added.
func (r *Runner) FavouritesList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.database(); err != nil {
		return err
	}

	criteria := map[string]any{}
	if k := cmd.String("kind"); k != "" {
		kind, err := models.ParseItemKind(k)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		criteria["kind"] = kind
	}

	favs, err := r.favourites.List(criteria)
	if err != nil {
		return err
	}
	return formatter.FavouriteTable(favs).Write(r.output, format, cmd.Bool("pretty"))
}

// FavouritesAdd stars an item by kind and ID.
func (r *Runner) FavouritesAdd(ctx context.Context, cmd *cli.Command) error {
	kind, id, err := favouriteKey(cmd)
	if err != nil {
		return err
	}
	if err := r.database(); err != nil {
		return err
	}

	f := models.NewFavourite(0, kind, id, cmd.String("title"), cmd.String("author"))
	if err := r.favourites.Create(f); err != nil {
		return err
	}
	r.logger.Debug("favourite added", "kind", kind, "id", id)
	return r.writePlain("✓ Added %s %q to favourites\n", kind, f.Title())
}

// FavouritesRemove removes a favourite by kind and ID.
func (r *Runner) FavouritesRemove(ctx context.Context, cmd *cli.Command) error {
	kind, id, err := favouriteKey(cmd)
	if err != nil {
		return err
	}
	if err := r.database(); err != nil {
		return err
	}

	if err := r.favourites.DeleteByItem(kind, id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s %s from favourites\n", kind, id)
}

func favouriteKey(cmd *cli.Command) (models.ItemKind, string, error) {
	k, id := cmd.StringArg("kind"), cmd.StringArg("id")
	if k == "" || id == "" {
		return "", "", fmt.Errorf("%w: kind and id", shared.ErrMissingArgument)
	}
	kind, err := models.ParseItemKind(k)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return kind, id, nil
}

// HistoryList prints the most recent plays.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.database(); err != nil {
		return err
	}

	entries, err := r.history.Recent(cmd.Int("limit"))
	if err != nil {
		return err
	}
	return formatter.HistoryTable(entries).Write(r.output, format, cmd.Bool("pretty"))
}

// HistoryClear deletes every history entry.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.database(); err != nil {
		return err
	}

	n, err := r.history.Clear()
	if err != nil {
		return err
	}
	return r.writePlain("✓ Cleared %d history entries\n", n)
}
