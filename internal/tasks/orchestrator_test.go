package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
	tu "github.com/sudipghimire533/ytui-music-sub000/internal/testing"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type harness struct {
	o       *Orchestrator
	q       *IntentQueue
	render  *Signal
	source  *tu.MockSource
	player  *tu.MockPlayer
	notices chan Notice

	once sync.Once
	done chan error
	err  error
}

// newHarness builds an orchestrator on mocks. Call run to start its loop.
func newHarness(t *testing.T, mutate func(*Opts)) *harness {
	t.Helper()

	h := &harness{
		source:  &tu.MockSource{},
		player:  &tu.MockPlayer{},
		notices: make(chan Notice, 16),
		done:    make(chan error, 1),
	}
	opts := Opts{
		Source:    h.source,
		Player:    h.player,
		Logger:    shared.NewLogger(io.Discard),
		QueueSize: 2,
		Notices:   h.notices,
	}
	if mutate != nil {
		mutate(&opts)
	}

	var err error
	h.o, h.q, h.render, err = New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { h.stop(t) })
	return h
}

func (h *harness) run(ctx context.Context) *harness {
	go func() { h.done <- h.o.Run(ctx) }()
	return h
}

// stop requests quit once and returns what Run returned.
func (h *harness) stop(t *testing.T) error {
	h.once.Do(func() {
		h.q.RequestQuit()
		select {
		case h.err = <-h.done:
		case <-time.After(waitFor):
			t.Error("orchestrator did not stop")
		}
	})
	return h.err
}

func (h *harness) hasCall(call string) func() bool {
	return func() bool { return slices.Contains(h.source.Calls(), call) }
}

// seededStore returns a store holding music, playlists and artists with the given lengths.
func seededStore(music, playlists, artists int) *ResultStore {
	s := NewResultStore(NewSignal())
	s.update(context.Background(), func(r *Results) {
		r.Music = newSlot(tu.MusicItems("m", music), nil)
		r.Playlists = newSlot(tu.PlaylistItems("p", playlists), nil)
		r.Artists = newSlot(tu.ArtistItems("a", artists), nil)
	})
	s.TakeUnseen()
	return s
}

func withStore(s *ResultStore) func(*Opts) {
	return func(o *Opts) { o.Store = s }
}

type historyRecorder struct {
	mu    sync.Mutex
	items []models.MusicItem
	err   error
}

func (r *historyRecorder) RecordPlay(item models.MusicItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return r.err
}

func (r *historyRecorder) recorded() []models.MusicItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MusicItem(nil), r.items...)
}

// gatedPlayer holds PlayReplacing of one stream until release is closed and then
// completes it regardless of cancellation, like a command already on the wire.
type gatedPlayer struct {
	*tu.MockPlayer
	id      string
	entered chan context.Context
	release chan struct{}
}

func newGatedPlayer(id string) *gatedPlayer {
	return &gatedPlayer{
		MockPlayer: &tu.MockPlayer{},
		id:         id,
		entered:    make(chan context.Context, 1),
		release:    make(chan struct{}),
	}
}

func (p *gatedPlayer) PlayReplacing(ctx context.Context, streamID string) error {
	if streamID == p.id {
		p.entered <- ctx
		<-p.release
		return p.MockPlayer.PlayReplacing(context.Background(), streamID)
	}
	return p.MockPlayer.PlayReplacing(ctx, streamID)
}

// titledPlayer records the titles handed to PlayReplacingTitled.
type titledPlayer struct {
	*tu.MockPlayer
	mu     sync.Mutex
	titles []string
}

func (p *titledPlayer) PlayReplacingTitled(ctx context.Context, streamID, title string) error {
	p.mu.Lock()
	p.titles = append(p.titles, title)
	p.mu.Unlock()
	return p.PlayReplacing(ctx, streamID)
}

func (p *titledPlayer) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.titles...)
}

func TestNew(t *testing.T) {
	t.Run("requires a source", func(t *testing.T) {
		_, _, _, err := New(Opts{Player: &tu.MockPlayer{}})
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("requires a player", func(t *testing.T) {
		_, _, _, err := New(Opts{Source: &tu.MockSource{}})
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("returns the store's render signal", func(t *testing.T) {
		s := NewResultStore(NewSignal())
		o, q, render, err := New(Opts{Source: &tu.MockSource{}, Player: &tu.MockPlayer{}, Store: s})
		require.NoError(t, err)
		assert.Same(t, s, o.Store())
		assert.Same(t, s.render, render)
		assert.NotNil(t, q)
	})
}

func TestOrchestratorFetches(t *testing.T) {
	t.Run("search writes only the requested kinds", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(1, 1, 1)))
		h.source.SearchFunc = func(ctx context.Context, q services.SearchQuery) (*models.SearchResults, error) {
			return &models.SearchResults{Music: tu.MusicItems("s", 4), Artists: tu.ArtistItems("sa", 2)}, nil
		}
		h.run(context.Background())

		h.q.RequestSearch(services.SearchQuery{Query: "lofi", IncludeMusic: true, IncludeArtists: true})
		require.Eventually(t, func() bool {
			return len(h.o.Store().Snapshot().Music.Items) == 4
		}, waitFor, tick)

		r := h.o.Store().Snapshot()
		assert.Len(t, r.Artists.Items, 2)
		assert.Equal(t, tu.PlaylistItems("p", 1), r.Playlists.Items, "playlists were not requested")
		assert.True(t, h.render.WaitTimeout(waitFor))
	})

	t.Run("search with no kinds touches nothing", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(1, 1, 1)))
		select {
		case <-h.render.C(): // seeding notification
		default:
		}
		h.run(context.Background())

		h.q.RequestSearch(services.SearchQuery{Query: "lofi"})
		time.Sleep(50 * time.Millisecond)

		assert.Empty(t, h.source.Calls())
		_, unseen := h.o.Store().TakeUnseen()
		assert.False(t, unseen)
		assert.False(t, h.render.WaitTimeout(10*time.Millisecond))
	})

	t.Run("search failure reaches every requested slot", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(2, 2, 2)))
		h.source.SearchFunc = func(ctx context.Context, q services.SearchQuery) (*models.SearchResults, error) {
			return nil, fmt.Errorf("%w: status 502", shared.ErrAPIRequest)
		}
		h.run(context.Background())

		h.q.RequestSearch(services.SearchQuery{Query: "x", IncludeMusic: true, IncludePlaylists: true, IncludeArtists: true})
		require.Eventually(t, func() bool { return h.o.Store().Snapshot().Music.Failed() }, waitFor, tick)

		r := h.o.Store().Snapshot()
		assert.True(t, r.Playlists.Failed())
		assert.True(t, r.Artists.Failed())
		assert.Contains(t, r.Music.Err.Error(), "status 502")
	})

	t.Run("trending failure replaces the music list", func(t *testing.T) {
		h := newHarness(t, func(o *Opts) {
			o.Store = seededStore(2, 0, 0)
			o.Region = "NP"
		})
		h.source.TrendingFunc = func(ctx context.Context, region string) ([]models.MusicItem, error) {
			return nil, fmt.Errorf("%w: timeout", shared.ErrAPIRequest)
		}
		h.run(context.Background())

		h.q.RequestTrending()
		require.Eventually(t, func() bool { return h.o.Store().Snapshot().Music.Failed() }, waitFor, tick)

		assert.Nil(t, h.o.Store().Snapshot().Music.Items)
		assert.Contains(t, h.source.Calls(), "trending:NP")
	})

	t.Run("open playlist with a stale index uses the last one", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(1, 2, 0)))
		h.source.PlaylistFunc = func(ctx context.Context, id string) ([]models.MusicItem, error) {
			return tu.MusicItems(id+"-", 5), nil
		}
		h.run(context.Background())

		h.q.RequestPlaylist(9)
		require.Eventually(t, func() bool { return len(h.o.Store().Snapshot().Music.Items) == 5 }, waitFor, tick)

		assert.Equal(t, []string{"playlist:p1"}, h.source.Calls())
		assert.Equal(t, "p1-0", h.o.Store().Snapshot().Music.Items[0].ID)
	})

	t.Run("open artist replaces music and playlists", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(1, 1, 3)))
		h.source.ArtistFunc = func(ctx context.Context, id string) (*models.ArtistContents, error) {
			return &models.ArtistContents{Music: tu.MusicItems("am", 3), Playlists: tu.PlaylistItems("ap", 2)}, nil
		}
		h.run(context.Background())

		h.q.RequestArtist(1)
		require.Eventually(t, func() bool { return len(h.o.Store().Snapshot().Playlists.Items) == 2 }, waitFor, tick)

		r := h.o.Store().Snapshot()
		assert.Equal(t, "am0", r.Music.Items[0].ID)
		assert.Len(t, r.Artists.Items, 3, "artists stay as they were")
		assert.Contains(t, h.source.Calls(), "artist:a1")
	})

	t.Run("open artist failure reaches both slots", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(1, 1, 1)))
		h.source.ArtistFunc = func(ctx context.Context, id string) (*models.ArtistContents, error) {
			return nil, fmt.Errorf("%w: channel gone", shared.ErrAPIRequest)
		}
		h.run(context.Background())

		h.q.RequestArtist(0)
		require.Eventually(t, func() bool { return h.o.Store().Snapshot().Playlists.Failed() }, waitFor, tick)
		assert.True(t, h.o.Store().Snapshot().Music.Failed())
	})

	t.Run("open on an empty list does nothing", func(t *testing.T) {
		h := newHarness(t, nil)
		h.run(context.Background())

		h.q.RequestArtist(0)
		h.q.RequestPlaylist(0)
		time.Sleep(50 * time.Millisecond)

		assert.Empty(t, h.source.Calls())
		_, unseen := h.o.Store().TakeUnseen()
		assert.False(t, unseen)
	})
}

func TestOrchestratorCancellation(t *testing.T) {
	t.Run("a superseded search never writes", func(t *testing.T) {
		h := newHarness(t, nil)
		h.source.SearchFunc = func(ctx context.Context, q services.SearchQuery) (*models.SearchResults, error) {
			if q.Query == "a" {
				// ignores ctx on purpose: only the store guard can stop this write
				time.Sleep(200 * time.Millisecond)
				return &models.SearchResults{Music: tu.MusicItems("a", 3)}, nil
			}
			if err := tu.Sleep(ctx, 10*time.Millisecond); err != nil {
				return nil, err
			}
			return &models.SearchResults{Music: tu.MusicItems("b", 2)}, nil
		}
		h.run(context.Background())

		h.q.RequestSearch(services.SearchQuery{Query: "a", IncludeMusic: true})
		require.Eventually(t, h.hasCall("search:a"), waitFor, tick)
		h.q.RequestSearch(services.SearchQuery{Query: "b", IncludeMusic: true})

		require.Eventually(t, func() bool { return len(h.o.Store().Snapshot().Music.Items) == 2 }, waitFor, tick)
		time.Sleep(300 * time.Millisecond)

		music := h.o.Store().Snapshot().Music.Items
		require.Len(t, music, 2)
		assert.Equal(t, "b0", music[0].ID)
	})

	t.Run("rapid searches coalesce to the last", func(t *testing.T) {
		h := newHarness(t, nil)
		for _, q := range []string{"x", "y", "z"} {
			h.q.RequestSearch(services.SearchQuery{Query: q, IncludeMusic: true})
		}
		h.run(context.Background())

		require.Eventually(t, h.hasCall("search:z"), waitFor, tick)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, []string{"search:z"}, h.source.Calls())
	})

	t.Run("quit cancels in-flight tasks and stops writing", func(t *testing.T) {
		trendingErr := make(chan error, 1)
		h := newHarness(t, nil)
		h.source.SearchFunc = func(ctx context.Context, q services.SearchQuery) (*models.SearchResults, error) {
			if err := tu.Sleep(ctx, time.Second); err != nil {
				return nil, err
			}
			return &models.SearchResults{Music: tu.MusicItems("late", 1)}, nil
		}
		h.source.TrendingFunc = func(ctx context.Context, region string) ([]models.MusicItem, error) {
			time.Sleep(150 * time.Millisecond)
			trendingErr <- ctx.Err()
			return tu.MusicItems("late", 2), nil
		}
		h.run(context.Background())

		h.q.RequestSearch(services.SearchQuery{Query: "q", IncludeMusic: true})
		h.q.RequestTrending()
		require.Eventually(t, func() bool { return len(h.source.Calls()) == 2 }, waitFor, tick)

		start := time.Now()
		require.NoError(t, h.stop(t))
		assert.Less(t, time.Since(start), time.Second, "search was not cancelled")
		assert.ErrorIs(t, <-trendingErr, context.Canceled)

		h.o.mu.Lock()
		handles := h.o.tasks
		h.o.mu.Unlock()
		for c, task := range handles {
			if task == nil {
				continue
			}
			select {
			case <-task.Done():
			default:
				t.Errorf("%s task still running after Run returned", category(c))
			}
		}
		assert.NotNil(t, handles[catSearch])
		assert.NotNil(t, handles[catTrending])

		time.Sleep(200 * time.Millisecond)
		r, unseen := h.o.Store().TakeUnseen()
		assert.False(t, unseen)
		assert.Empty(t, r.Music.Items)
	})

	t.Run("parent context ends the loop", func(t *testing.T) {
		h := newHarness(t, nil)
		h.source.TrendingFunc = func(ctx context.Context, region string) ([]models.MusicItem, error) {
			<-ctx.Done()
			return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, ctx.Err())
		}

		ctx, cancel := context.WithCancel(context.Background())
		h.run(ctx)
		h.q.RequestTrending()
		require.Eventually(t, h.hasCall("trending:"), waitFor, tick)
		cancel()

		select {
		case err := <-h.done:
			assert.ErrorIs(t, err, context.Canceled)
			h.once.Do(func() {})
		case <-time.After(waitFor):
			t.Fatal("Run did not return after cancel")
		}
		assert.False(t, h.o.Store().Snapshot().Music.Failed(), "cancelled fetch must not publish its error")
	})

	t.Run("a panicking task does not stop the loop", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(0, 0, 0)))
		h.source.TrendingFunc = func(ctx context.Context, region string) ([]models.MusicItem, error) {
			panic("backend exploded")
		}
		h.source.SearchFunc = func(ctx context.Context, q services.SearchQuery) (*models.SearchResults, error) {
			return &models.SearchResults{Music: tu.MusicItems("ok", 1)}, nil
		}
		h.run(context.Background())

		h.q.RequestTrending()
		require.Eventually(t, h.hasCall("trending:"), waitFor, tick)
		h.q.RequestSearch(services.SearchQuery{Query: "after", IncludeMusic: true})
		require.Eventually(t, func() bool { return len(h.o.Store().Snapshot().Music.Items) == 1 }, waitFor, tick)

		assert.NoError(t, h.stop(t))
	})
}

func TestOrchestratorPlayback(t *testing.T) {
	t.Run("play replaces and queues the following items", func(t *testing.T) {
		rec := &historyRecorder{}
		h := newHarness(t, func(o *Opts) {
			o.Store = seededStore(5, 0, 0)
			o.History = rec
		})
		h.run(context.Background())

		h.q.RequestPlay(1)
		require.Eventually(t, func() bool { return len(h.player.Commands()) == 3 }, waitFor, tick)

		assert.Equal(t, []string{"play:m1", "enqueue:m2", "enqueue:m3"}, h.player.Commands())
		current, queue := h.player.Current()
		assert.Equal(t, "m1", current)
		assert.Equal(t, []string{"m2", "m3"}, queue)

		require.Eventually(t, func() bool { return len(rec.recorded()) == 1 }, waitFor, tick)
		assert.Equal(t, "m1", rec.recorded()[0].ID)

		n := <-h.notices
		assert.Equal(t, log.InfoLevel, n.Level)
		assert.Equal(t, "Playing: m title 1 (+2 queued)", n.Message)
	})

	t.Run("superseded play issues no further commands", func(t *testing.T) {
		rec := &historyRecorder{}
		player := newGatedPlayer("m0")
		h := newHarness(t, func(o *Opts) {
			o.Store = seededStore(5, 0, 0)
			o.Player = player
			o.History = rec
		})
		h.run(context.Background())

		h.q.RequestPlay(0)
		var first context.Context
		select {
		case first = <-player.entered:
		case <-time.After(waitFor):
			t.Fatal("first play never started")
		}

		h.q.RequestPlay(3)
		require.Eventually(t, func() bool { return first.Err() != nil }, waitFor, tick)
		close(player.release)

		require.Eventually(t, func() bool { return len(player.Commands()) == 3 }, waitFor, tick)
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, []string{"play:m0", "play:m3", "enqueue:m4"}, player.Commands())

		current, queue := player.Current()
		assert.Equal(t, "m3", current)
		assert.Equal(t, []string{"m4"}, queue)

		recorded := rec.recorded()
		require.Len(t, recorded, 1)
		assert.Equal(t, "m3", recorded[0].ID)

		n := <-h.notices
		assert.Equal(t, "Playing: m title 3 (+1 queued)", n.Message)
		select {
		case extra := <-h.notices:
			t.Errorf("unexpected notice %q", extra.Message)
		default:
		}
	})

	t.Run("play passes the list title to players that show it", func(t *testing.T) {
		player := &titledPlayer{MockPlayer: &tu.MockPlayer{}}
		h := newHarness(t, func(o *Opts) {
			o.Store = seededStore(2, 0, 0)
			o.Player = player
		})
		h.run(context.Background())

		h.q.RequestPlay(1)
		require.Eventually(t, func() bool { return len(player.Commands()) == 1 }, waitFor, tick)
		assert.Equal(t, []string{"m title 1"}, player.played())
	})

	t.Run("stale index plays the last item", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(3, 0, 0)))
		h.run(context.Background())

		h.q.RequestPlay(10)
		require.Eventually(t, func() bool { return len(h.player.Commands()) > 0 }, waitFor, tick)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, []string{"play:m2"}, h.player.Commands())
	})

	t.Run("empty list issues no playback command", func(t *testing.T) {
		h := newHarness(t, nil)
		h.run(context.Background())

		h.q.RequestPlay(0)
		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, h.player.Commands())
		current, _ := h.player.Current()
		assert.Empty(t, current)
	})

	t.Run("play takes precedence over pause in one snapshot", func(t *testing.T) {
		h := newHarness(t, withStore(seededStore(2, 0, 0)))
		h.q.RequestTogglePause()
		h.q.RequestPlay(0)
		h.run(context.Background())

		require.Eventually(t, func() bool { return len(h.player.Commands()) == 2 }, waitFor, tick)
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, []string{"play:m0", "enqueue:m1"}, h.player.Commands())
		assert.False(t, h.player.Paused())
	})

	t.Run("toggle pause reports the new state", func(t *testing.T) {
		h := newHarness(t, nil)
		h.run(context.Background())

		h.q.RequestTogglePause()
		select {
		case n := <-h.notices:
			assert.Equal(t, "Paused", n.Message)
		case <-time.After(waitFor):
			t.Fatal("no notice")
		}
		assert.True(t, h.player.Paused())
	})

	t.Run("playback failure is a notice, not a store write", func(t *testing.T) {
		rec := &historyRecorder{}
		h := newHarness(t, func(o *Opts) {
			o.Store = seededStore(2, 0, 0)
			o.History = rec
		})
		h.player.Err = fmt.Errorf("%w: mpv not running", shared.ErrPlayback)
		h.run(context.Background())

		h.q.RequestPlay(0)
		select {
		case n := <-h.notices:
			assert.Equal(t, log.ErrorLevel, n.Level)
			assert.Contains(t, n.Message, "mpv not running")
		case <-time.After(waitFor):
			t.Fatal("no notice")
		}

		_, unseen := h.o.Store().TakeUnseen()
		assert.False(t, unseen)
		assert.Empty(t, rec.recorded())
	})

	t.Run("history errors do not stop playback", func(t *testing.T) {
		rec := &historyRecorder{err: errors.New("disk full")}
		h := newHarness(t, func(o *Opts) {
			o.Store = seededStore(1, 0, 0)
			o.History = rec
		})
		h.run(context.Background())

		h.q.RequestPlay(0)
		select {
		case n := <-h.notices:
			assert.Equal(t, "Playing: m title 0", n.Message)
		case <-time.After(waitFor):
			t.Fatal("no notice")
		}
	})

	t.Run("notices never block without a reader", func(t *testing.T) {
		h := newHarness(t, func(o *Opts) {
			o.Store = seededStore(1, 0, 0)
			o.Notices = make(chan Notice) // unbuffered and never read
		})
		h.run(context.Background())

		for range 3 {
			h.q.RequestTogglePause()
			time.Sleep(10 * time.Millisecond)
		}
		h.q.RequestPlay(0)
		require.Eventually(t, func() bool { return slices.Contains(h.player.Commands(), "play:m0") }, waitFor, tick)
	})
}
