package tasks

import (
	"sync"

	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
)

// Intents holds at most one pending request per category.
// Nil pointers and false flags mean "nothing requested".
type Intents struct {
	Quit        bool
	Search      *services.SearchQuery
	Play        *int // index into the music list
	Playlist    *int // index into the playlist list
	Artist      *int // index into the artist list
	Trending    bool
	TogglePause bool
}

// Empty reports whether no category holds a request.
func (in Intents) Empty() bool {
	return !in.Quit && in.Search == nil && in.Play == nil && in.Playlist == nil &&
		in.Artist == nil && !in.Trending && !in.TogglePause
}

// IntentQueue is the single mutable record the UI writes into and the orchestrator drains.
// Writing a category overwrites whatever was pending there.
type IntentQueue struct {
	mu      sync.Mutex
	pending Intents
	wake    *Signal
}

func newIntentQueue(wake *Signal) *IntentQueue {
	return &IntentQueue{wake: wake}
}

// set applies fn under the lock and wakes the orchestrator afterwards.
func (q *IntentQueue) set(fn func(*Intents)) {
	q.mu.Lock()
	fn(&q.pending)
	q.mu.Unlock()

	q.wake.Notify()
}

func (q *IntentQueue) RequestSearch(query services.SearchQuery) {
	q.set(func(in *Intents) { in.Search = &query })
}

func (q *IntentQueue) RequestPlay(index int) {
	q.set(func(in *Intents) { in.Play = &index })
}

func (q *IntentQueue) RequestPlaylist(index int) {
	q.set(func(in *Intents) { in.Playlist = &index })
}

func (q *IntentQueue) RequestArtist(index int) {
	q.set(func(in *Intents) { in.Artist = &index })
}

func (q *IntentQueue) RequestTrending() {
	q.set(func(in *Intents) { in.Trending = true })
}

func (q *IntentQueue) RequestTogglePause() {
	q.set(func(in *Intents) { in.TogglePause = true })
}

func (q *IntentQueue) RequestQuit() {
	q.set(func(in *Intents) { in.Quit = true })
}

// Drain returns everything pending and resets the queue in one lock acquisition.
func (q *IntentQueue) Drain() Intents {
	q.mu.Lock()
	defer q.mu.Unlock()

	in := q.pending
	q.pending = Intents{}
	return in
}
