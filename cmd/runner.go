package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sudipghimire533/ytui-music-sub000/internal/repositories"
	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.Source
	player     services.Player
	api        *services.APIService
	httpClient *http.Client
	db         *sql.DB
	favourites *repositories.FavouriteRepository
	history    *repositories.HistoryRepository
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Dependencies left nil are built from the loaded configuration by [Runner.Load].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.Source
	Player     services.Player
	API        *services.APIService
	HTTPClient *http.Client
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		player:     opts.Player,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if opts.DB != nil {
		r.useDatabase(opts.DB)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, tuiCommand, searchCommand, trendingCommand, playlistCommand, artistCommand,
		exportCommand, favouritesCommand, historyCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the configuration named by --config and builds the services it describes.
// A missing file falls back to the built-in defaults so that "setup" can create it.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := shared.ApplyLogLevel(r.logger, r.config.Log.Level); err != nil {
		return ctx, err
	}

	if r.source == nil {
		r.source = services.NewInvidiousSourceFromConfig(r.config, r.logger)
	}
	if r.player == nil {
		r.player = services.NewMpvPlayerFromConfig(r.config, r.logger)
	}
	if r.api == nil && len(r.config.Source.Servers) > 0 {
		r.api = services.NewAPIService(r.config.Source.Servers[0], r.httpClient).WithUserAgent(r.config.Source.UserAgent)
	}
	return ctx, nil
}

// Close releases the player and the database.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	var firstErr error
	if r.player != nil {
		if err := r.player.Close(); err != nil {
			firstErr = err
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.db = nil
	}
	return firstErr
}

// SetLogger replaces the logger used by the runner.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// database opens the configured database on first use.
func (r *Runner) database() error {
	if r.db != nil {
		return nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	r.useDatabase(db)
	return nil
}

func (r *Runner) useDatabase(db *sql.DB) {
	r.db = db
	r.favourites = repositories.NewFavouriteRepository(db)
	r.history = repositories.NewHistoryRepository(db)
}

func (r *Runner) requireSource() error {
	if r.source == nil {
		return fmt.Errorf("%w: source not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
