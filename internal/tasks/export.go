package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"

	"github.com/sudipghimire533/ytui-music-sub000/internal/formatter"
	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

const (
	defaultExportWorkers = 5
	maxExportWorkers     = 10
	defaultExportRate    = 5.0
	manifestName         = "export_manifest.json"
)

// ExportOpts contains configuration for playlist exports.
type ExportOpts struct {
	Format       formatter.Format // json, csv, markdown or text
	OutputDir    string           // Base output directory (default: ytui_export_{epoch})
	NumWorkers   int              // Concurrent workers (default: 5, max: 10)
	RateLimit    float64          // Requests per second (default: 5)
	StreamPrefix string           // Links videos in Markdown exports when set
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Error        error

	index int
}

// ExportResult summarises an export run.
type ExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult // in the order the IDs were given
}

// Exporter writes playlists fetched from a [services.Source] to disk.
type Exporter struct {
	source services.Source
	logger *log.Logger
}

func NewExporter(source services.Source, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{source: source, logger: shared.WithLogger(logger, "component", "export")}
}

// Export fetches and writes every playlist in ids using a pool of workers that share one
// rate limiter. Failed playlists are recorded in the result and do not stop the others.
// A manifest describing the run is written to the output directory.
func (e *Exporter) Export(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts ExportOpts) (*ExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no playlist ids", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ytui_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultExportWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, maxExportWorkers, len(ids))
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultExportRate
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan int)
	results := make(chan PlaylistExportResult, len(ids))

	sendProgress(prog, exportStartedUpdate(len(ids)))

	var wg conc.WaitGroup
	for range opts.NumWorkers {
		wg.Go(func() {
			for i := range jobs {
				results <- e.exportOne(ctx, limiter, prog, i, ids, opts)
			}
		})
	}

	go func() {
		defer close(jobs)
		for i := range ids {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "id", res.PlaylistID, "error", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}
	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return a.index - b.index })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted after %d of %d playlists: %w", completed, len(ids), err)
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := formatter.WriteManifest(result.manifest(opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

func (e *Exporter) exportOne(
	ctx context.Context,
	limiter *rate.Limiter,
	prog chan<- ProgressUpdate,
	index int,
	ids []string,
	opts ExportOpts,
) PlaylistExportResult {
	id := ids[index]
	res := PlaylistExportResult{
		PlaylistID:   id,
		PlaylistName: fmt.Sprintf("Unknown (%s)", id),
		index:        index,
	}

	if err := limiter.Wait(ctx); err != nil {
		res.Error = err
		return res
	}

	pc, err := e.fetch(ctx, id)
	if err != nil {
		res.Error = fmt.Errorf("failed to fetch playlist: %w", err)
		return res
	}
	res.PlaylistName = pc.Playlist.Title
	sendProgress(prog, fetchedPlaylistUpdate(index+1, len(ids), pc))

	files, err := writePlaylist(pc, opts)
	if err != nil {
		res.Error = err
		return res
	}
	res.Files = files
	res.Success = true
	return res
}

// fetch prefers a source that can describe the playlist, so files carry its title.
func (e *Exporter) fetch(ctx context.Context, id string) (*models.PlaylistContents, error) {
	if d, ok := e.source.(services.PlaylistDescriber); ok {
		return d.Playlist(ctx, id)
	}

	items, err := e.source.PlaylistContents(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.PlaylistContents{
		Playlist: models.PlaylistItem{ID: id, Title: id, VideoCount: len(items)},
		Music:    items,
	}, nil
}

func writePlaylist(pc *models.PlaylistContents, opts ExportOpts) ([]string, error) {
	base := filepath.Join(opts.OutputDir, safeName(pc.Playlist.ID))

	switch opts.Format {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(pc, base)
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{csvRes.TracksFile, csvRes.MetadataFile}, nil
	case formatter.FormatMarkdown:
		file, err := formatter.WriteMarkdownExport(pc, base, opts.StreamPrefix)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return []string{file}, nil
	case formatter.FormatText:
		file, err := formatter.WriteTextExport(pc, base+"_tracks.txt")
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{file}, nil
	default:
		file, err := formatter.WriteJSONExport(pc, base+".json")
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	}
}

func (r *ExportResult) manifest(format formatter.Format) formatter.Manifest {
	m := formatter.Manifest{
		Format:            string(format),
		TotalPlaylists:    r.TotalPlaylists,
		SuccessfulExports: r.SuccessfulExports,
		FailedExports:     r.FailedExports,
		Playlists:         make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{
			PlaylistID:   res.PlaylistID,
			PlaylistName: res.PlaylistName,
			Status:       "success",
			Files:        res.Files,
		}
		if !res.Success {
			entry.Status = "failed"
			if res.Error != nil {
				entry.Error = res.Error.Error()
			}
		}
		m.Playlists = append(m.Playlists, entry)
	}
	return m
}

// safeName keeps an ID usable as a file name.
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, id)
}
