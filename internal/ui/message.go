package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/tasks"
)

var (
	_ tea.Msg = refreshMsg{}
	_ tea.Msg = favouriteMsg{}
)

// refreshMsg carries everything the renderer reads on one wake-up.
// The wait command that produced it is re-armed when the message is handled.
type refreshMsg struct {
	results tasks.Results
	changed bool // results were written since the previous refresh
	stats   models.PlayerStats
	notice  *tasks.Notice // latest notice posted since the previous refresh
}

// favouriteMsg reports the outcome of starring an item.
type favouriteMsg struct {
	title string
	err   error
}
