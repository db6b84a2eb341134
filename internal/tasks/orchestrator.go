package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// Opts holds the dependencies of an [Orchestrator]. Source and Player are required.
type Opts struct {
	Source    services.Source
	Player    services.Player
	Logger    *log.Logger
	Region    string          // trending region code, empty for the backend default
	QueueSize int             // items enqueued behind a played item
	History   HistoryRecorder // optional
	Notices   chan<- Notice   // optional, should be buffered
	Store     *ResultStore    // optional, a fresh store is created when nil
}

// Orchestrator turns drained intents into background tasks, one live task per category.
type Orchestrator struct {
	source    services.Source
	player    services.Player
	logger    *log.Logger
	region    string
	queueSize int
	history   HistoryRecorder
	notices   chan<- Notice

	intents *IntentQueue
	store   *ResultStore
	wake    *Signal

	mu    sync.Mutex
	tasks [numCategories]*Task
	wg    conc.WaitGroup

	// playMu orders play and pause tasks so a superseded one finishes its
	// in-flight command before its replacement issues any.
	playMu sync.Mutex
}

// New builds an orchestrator together with the intent queue the UI writes into
// and the render signal notified whenever the store changes.
func New(opts Opts) (*Orchestrator, *IntentQueue, *Signal, error) {
	if opts.Source == nil {
		return nil, nil, nil, fmt.Errorf("%w: source not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Player == nil {
		return nil, nil, nil, fmt.Errorf("%w: player not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	store := opts.Store
	if store == nil {
		store = NewResultStore(NewSignal())
	}

	wake := NewSignal()
	o := &Orchestrator{
		source:    opts.Source,
		player:    opts.Player,
		logger:    shared.WithLogger(opts.Logger, "component", "orchestrator"),
		region:    opts.Region,
		queueSize: max(0, opts.QueueSize),
		history:   opts.History,
		notices:   opts.Notices,
		intents:   newIntentQueue(wake),
		store:     store,
		wake:      wake,
	}
	return o, o.intents, store.render, nil
}

// Store exposes the result store to the renderer.
func (o *Orchestrator) Store() *ResultStore {
	return o.store
}

// Run drains and dispatches intents until a quit intent arrives (returns nil) or ctx
// ends (returns ctx.Err()). Either way every live task is cancelled and awaited.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator started", "source", o.source.Name())
	defer o.shutdown()

	for {
		if err := o.wake.Wait(ctx); err != nil {
			return err
		}

		in := o.intents.Drain()
		if in.Quit {
			o.logger.Info("quit requested")
			return nil
		}
		o.dispatch(ctx, in)
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, in Intents) {
	if in.Search != nil {
		q := *in.Search
		o.spawn(ctx, catSearch, func(ctx context.Context) { o.search(ctx, q) })
	}
	if in.Trending {
		o.spawn(ctx, catTrending, o.trending)
	}
	if in.Playlist != nil {
		i := *in.Playlist
		o.spawn(ctx, catPlaylist, func(ctx context.Context) { o.openPlaylist(ctx, i) })
	}
	if in.Artist != nil {
		i := *in.Artist
		o.spawn(ctx, catArtist, func(ctx context.Context) { o.openArtist(ctx, i) })
	}

	switch {
	case in.Play != nil:
		i := *in.Play
		if in.TogglePause {
			o.logger.Debug("dropping pause toggle, play takes precedence")
		}
		o.spawn(ctx, catPlay, func(ctx context.Context) { o.play(ctx, i) })
	case in.TogglePause:
		o.spawn(ctx, catPause, o.togglePause)
	}
}

// spawn cancels the live task of c before starting fn as its replacement.
func (o *Orchestrator) spawn(parent context.Context, c category, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	o.mu.Lock()
	o.tasks[c].Cancel()
	o.tasks[c] = t
	o.mu.Unlock()

	o.logger.Debug("dispatch", "category", c)
	o.wg.Go(func() {
		defer close(t.done)
		defer cancel()
		fn(ctx)
	})
}

func (o *Orchestrator) shutdown() {
	o.mu.Lock()
	for _, t := range o.tasks {
		t.Cancel()
	}
	o.mu.Unlock()

	if r := o.wg.WaitAndRecover(); r != nil {
		o.logger.Error("task panicked", "panic", r.Value, "stack", string(r.Stack))
	}
	o.logger.Info("orchestrator stopped")
}

// fetchFailed reports whether err should be published. Errors caused by this
// task's own cancellation are dropped.
func (o *Orchestrator) fetchFailed(ctx context.Context, what string, err error) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		o.logger.Debug("fetch cancelled", "what", what)
		return false
	}
	o.logger.Warn("fetch failed", "what", what, "error", err)
	return true
}

func (o *Orchestrator) search(ctx context.Context, q services.SearchQuery) {
	if !q.Any() {
		o.logger.Debug("search with no kinds ignored", "query", q.Query)
		return
	}

	res, err := o.source.Search(ctx, q)
	if err != nil {
		if !o.fetchFailed(ctx, "search", err) {
			return
		}
		res = &models.SearchResults{}
	}

	o.store.update(ctx, func(r *Results) {
		if q.IncludeMusic {
			r.Music = newSlot(res.Music, err)
		}
		if q.IncludePlaylists {
			r.Playlists = newSlot(res.Playlists, err)
		}
		if q.IncludeArtists {
			r.Artists = newSlot(res.Artists, err)
		}
	})
}

func (o *Orchestrator) trending(ctx context.Context) {
	items, err := o.source.Trending(ctx, o.region)
	if err != nil && !o.fetchFailed(ctx, "trending", err) {
		return
	}
	publish(ctx, o.store, musicSlot, items, err)
}

// openPlaylist replaces the music list with the videos of the selected playlist.
func (o *Orchestrator) openPlaylist(ctx context.Context, index int) {
	lists := o.store.Snapshot().Playlists.Items
	i, ok := resolveIndex(len(lists), index)
	if !ok {
		return
	}

	items, err := o.source.PlaylistContents(ctx, lists[i].ID)
	if err != nil && !o.fetchFailed(ctx, "playlist "+lists[i].ID, err) {
		return
	}
	publish(ctx, o.store, musicSlot, items, err)
}

// openArtist replaces the music and playlist lists with the selected artist's.
func (o *Orchestrator) openArtist(ctx context.Context, index int) {
	artists := o.store.Snapshot().Artists.Items
	i, ok := resolveIndex(len(artists), index)
	if !ok {
		return
	}

	contents, err := o.source.ArtistContents(ctx, artists[i].ID)
	if err != nil {
		if !o.fetchFailed(ctx, "artist "+artists[i].ID, err) {
			return
		}
		contents = &models.ArtistContents{}
	}

	o.store.update(ctx, func(r *Results) {
		r.Music = newSlot(contents.Music, err)
		r.Playlists = newSlot(contents.Playlists, err)
	})
}

// play starts the selected item and queues the ones after it so playback continues
// down the list. Playback errors become notices and leave the store alone. A play
// superseded at any step issues no further commands, records nothing and stays silent.
func (o *Orchestrator) play(ctx context.Context, index int) {
	music := o.store.Snapshot().Music.Items
	i, ok := resolveIndex(len(music), index)
	if !ok {
		return
	}
	item := music[i]

	o.playMu.Lock()
	defer o.playMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	if err := o.playReplacing(ctx, item); err != nil {
		o.playbackFailed(ctx, "play", err)
		return
	}
	if ctx.Err() != nil {
		o.logger.Debug("play superseded", "id", item.ID)
		return
	}

	if o.history != nil {
		if err := o.history.RecordPlay(item); err != nil {
			o.logger.Warn("could not record play", "id", item.ID, "error", err)
		}
	}

	queued := 0
	for _, next := range music[i+1 : min(len(music), i+1+o.queueSize)] {
		if ctx.Err() != nil {
			o.logger.Debug("play superseded while queueing", "id", item.ID, "queued", queued)
			return
		}
		if err := o.player.EnqueueAfterCurrent(ctx, next.ID, next.Title); err != nil {
			o.playbackFailed(ctx, "enqueue", err)
			break
		}
		queued++
	}
	if ctx.Err() != nil {
		return
	}

	o.logger.Debug("playing", "id", item.ID, "queued", queued)
	o.notice(playingNotice(item, queued))
}

// playReplacing hands the list title along when the player can show it.
func (o *Orchestrator) playReplacing(ctx context.Context, item models.MusicItem) error {
	if tp, ok := o.player.(services.TitledPlayer); ok {
		return tp.PlayReplacingTitled(ctx, item.ID, item.Title)
	}
	return o.player.PlayReplacing(ctx, item.ID)
}

func (o *Orchestrator) togglePause(ctx context.Context) {
	o.playMu.Lock()
	defer o.playMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	paused, err := o.player.TogglePause(ctx)
	if err != nil {
		o.playbackFailed(ctx, "pause", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	o.notice(pauseNotice(paused))
}

func (o *Orchestrator) playbackFailed(ctx context.Context, action string, err error) {
	if ctx.Err() != nil {
		return
	}
	o.logger.Error("playback command failed", "action", action, "error", err)
	o.notice(playbackErrorNotice(action, err))
}

// notice posts n and wakes the renderer so it is shown without waiting for the next tick.
func (o *Orchestrator) notice(n Notice) {
	sendNotice(o.notices, n)
	o.store.render.Notify()
}
