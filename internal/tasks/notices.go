package tasks

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
)

// Notice is a one-line status message about playback, shown by the renderer.
type Notice struct {
	Level   log.Level
	Message string
	Time    time.Time
}

func (n Notice) String() string {
	return n.Message
}

// HistoryRecorder is notified after a play command succeeds.
//
// Errors are logged and otherwise ignored so a broken store never stops playback.
type HistoryRecorder interface {
	RecordPlay(item models.MusicItem) error
}

// sendNotice posts n without blocking. With no reader or a full buffer the notice is dropped.
func sendNotice(notices chan<- Notice, n Notice) {
	if notices == nil {
		return
	}
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	select {
	case notices <- n:
	default:
	}
}

func playingNotice(item models.MusicItem, queued int) Notice {
	msg := "Playing: " + item.Title
	if queued > 0 {
		msg += fmt.Sprintf(" (+%d queued)", queued)
	}
	return Notice{Level: log.InfoLevel, Message: msg}
}

func pauseNotice(paused bool) Notice {
	if paused {
		return Notice{Level: log.InfoLevel, Message: "Paused"}
	}
	return Notice{Level: log.InfoLevel, Message: "Resumed"}
}

func playbackErrorNotice(action string, err error) Notice {
	return Notice{Level: log.ErrorLevel, Message: fmt.Sprintf("%s failed: %v", action, err)}
}
