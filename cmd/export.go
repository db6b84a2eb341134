package main

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v3"

	"github.com/sudipghimire533/ytui-music-sub000/internal/formatter"
	"github.com/sudipghimire533/ytui-music-sub000/internal/tasks"
)

// Export writes each --id playlist to the output directory and prints progress as it goes.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ids := cmd.StringSlice("id")
	opts := tasks.ExportOpts{
		Format:       format,
		OutputDir:    cmd.String("output"),
		NumWorkers:   cmd.Int("workers"),
		RateLimit:    cmd.Float("rate"),
		StreamPrefix: r.config.Player.StreamPrefix,
	}

	r.writePlainHeader(fmt.Sprintf("Exporting %d playlist(s) as %s", len(ids), format))

	progress := make(chan tasks.ProgressUpdate, len(ids)*2+2)
	var printer conc.WaitGroup
	printer.Go(func() {
		for u := range progress {
			r.writePlain("%s\n", u.Message)
		}
	})

	result, err := tasks.NewExporter(r.source, r.logger).Export(ctx, progress, ids, opts)
	close(progress)
	printer.Wait()

	if result != nil {
		r.writePlainln("Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %v\n", res.PlaylistID, res.Error)
			}
		}
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	return err
}
