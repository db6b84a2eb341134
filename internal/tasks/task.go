package tasks

import "context"

// category is one of the independently superseding kinds of background work.
type category int

const (
	catSearch category = iota
	catPlay
	catPlaylist
	catArtist
	catTrending
	catPause
	numCategories
)

func (c category) String() string {
	switch c {
	case catSearch:
		return "search"
	case catPlay:
		return "play"
	case catPlaylist:
		return "playlist"
	case catArtist:
		return "artist"
	case catTrending:
		return "trending"
	case catPause:
		return "pause"
	default:
		return ""
	}
}

// Task is a handle on one cancellable background computation.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel asks the task to stop. Cancelling a finished or nil task is a no-op.
func (t *Task) Cancel() {
	if t != nil {
		t.cancel()
	}
}

// Done is closed once the task body has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
