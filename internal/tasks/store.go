package tasks

import (
	"context"
	"sync"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
)

// Slot is one result list: either items or the error of the fetch that replaced them.
type Slot[T any] struct {
	Items []T
	Err   error
}

func newSlot[T any](items []T, err error) Slot[T] {
	if err != nil {
		return Slot[T]{Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return Slot[T]{Items: items}
}

// Failed reports whether the slot holds an error.
func (s Slot[T]) Failed() bool {
	return s.Err != nil
}

// Results is a copy of the three result slots.
type Results struct {
	Music     Slot[models.MusicItem]
	Playlists Slot[models.PlaylistItem]
	Artists   Slot[models.ArtistItem]
}

// ResultStore owns the latest results. Tasks write through [publish];
// the renderer reads with [ResultStore.TakeUnseen].
type ResultStore struct {
	mu      sync.RWMutex
	results Results
	unseen  bool
	render  *Signal
}

// NewResultStore creates a store with three empty slots. Every write notifies render.
func NewResultStore(render *Signal) *ResultStore {
	return &ResultStore{
		render: render,
		results: Results{
			Music:     newSlot[models.MusicItem](nil, nil),
			Playlists: newSlot[models.PlaylistItem](nil, nil),
			Artists:   newSlot[models.ArtistItem](nil, nil),
		},
	}
}

// Snapshot returns the current slots without touching the unseen flag.
func (s *ResultStore) Snapshot() Results {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

// TakeUnseen returns the current slots and whether anything was written since the last call.
func (s *ResultStore) TakeUnseen() (Results, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unseen := s.unseen
	s.unseen = false
	return s.results, unseen
}

// update applies fn to the slots unless ctx is already done. The check and the write
// share one critical section, so a task cancelled before this point never writes.
func (s *ResultStore) update(ctx context.Context, fn func(*Results)) bool {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	fn(&s.results)
	s.unseen = true
	s.mu.Unlock()

	s.render.Notify()
	return true
}

// publish replaces the slot chosen by pick with items, or with err when it is set.
func publish[T any](ctx context.Context, s *ResultStore, pick func(*Results) *Slot[T], items []T, err error) bool {
	return s.update(ctx, func(r *Results) {
		*pick(r) = newSlot(items, err)
	})
}

func musicSlot(r *Results) *Slot[models.MusicItem] { return &r.Music }

// resolveIndex maps a possibly stale index onto a list of length n. Out of range
// indexes land on the last element; an empty list resolves to nothing.
func resolveIndex(n, i int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	return max(0, min(i, n-1)), true
}
