package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
	"github.com/sudipghimire533/ytui-music-sub000/internal/tasks"
)

const (
	defaultRefresh = time.Second
	statsTimeout   = 500 * time.Millisecond
	chromeHeight   = 9 // search box, now playing, notice, help and pane borders
)

// Pane identifies one of the result lists.
type Pane int

const (
	MusicPane Pane = iota
	PlaylistPane
	ArtistPane
	numPanes
)

func (p Pane) String() string {
	switch p {
	case MusicPane:
		return "Music"
	case PlaylistPane:
		return "Playlists"
	case ArtistPane:
		return "Artists"
	default:
		return "Unknown"
	}
}

// Intents is the part of [tasks.IntentQueue] the renderer writes to.
type Intents interface {
	RequestSearch(q services.SearchQuery)
	RequestPlay(index int)
	RequestPlaylist(index int)
	RequestArtist(index int)
	RequestTrending()
	RequestTogglePause()
	RequestQuit()
}

// StatsReader reads the player's current state for the now-playing bar.
type StatsReader interface {
	Stats(ctx context.Context) (models.PlayerStats, error)
}

// FavouriteAdder stores a starred item.
type FavouriteAdder interface {
	Create(f *models.Favourite) error
}

// Deps holds what the renderer reads from and writes to.
type Deps struct {
	Intents    Intents
	Store      *tasks.ResultStore
	Render     *tasks.Signal
	Player     StatsReader         // optional
	Favourites FavouriteAdder      // optional; disables "f" when nil
	Notices    <-chan tasks.Notice // optional
	Refresh    time.Duration       // upper bound between redraws
	Logger     *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	deps     Deps
	width    int
	height   int
	focus    Pane
	panes    [numPanes]list.Model
	input    textinput.Model
	stats    models.PlayerStats
	notice   *tasks.Notice
	help     help.Model
	keys     keyMap
	logger   *log.Logger
	quitting bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Refresh <= 0 {
		deps.Refresh = defaultRefresh
	}
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	input := textinput.New()
	input.Placeholder = "Search music, playlists and artists"
	input.Prompt = "/ "
	input.CharLimit = 200

	m := &Model{
		ctx:    ctx,
		deps:   deps,
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
		logger: shared.WithLogger(logger, "component", "ui"),
	}
	for p := range numPanes {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = p.String()
		l.SetFilteringEnabled(false)
		l.SetShowHelp(false)
		l.SetShowStatusBar(false)
		l.DisableQuitKeybindings()
		m.panes[p] = l
	}
	return m
}

// Init arms the first wait on the render signal.
func (m *Model) Init() tea.Cmd {
	return m.waitForRefresh()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case refreshMsg:
		m.apply(msg)
		return m, m.waitForRefresh()

	case favouriteMsg:
		if msg.err != nil {
			m.logger.Warn("failed to add favourite", "title", msg.title, "error", msg.err)
			m.setNotice(log.ErrorLevel, fmt.Sprintf("Favourite failed: %v", msg.err))
		} else {
			m.setNotice(log.InfoLevel, fmt.Sprintf("Added to favourites: %s", msg.title))
		}
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.handleSearchKeys(msg)
		}
		return m.handlePaneKeys(msg)
	}

	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.input.Blur()
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if query == "" {
			return m, nil
		}
		m.deps.Intents.RequestSearch(services.SearchQuery{
			Query:            query,
			IncludeMusic:     true,
			IncludePlaylists: true,
			IncludeArtists:   true,
		})
		m.focus = MusicPane
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handlePaneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.search):
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.next):
		m.focus = (m.focus + 1) % numPanes
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.focus = (m.focus + numPanes - 1) % numPanes
		return m, nil
	case key.Matches(msg, m.keys.pause):
		m.deps.Intents.RequestTogglePause()
		return m, nil
	case key.Matches(msg, m.keys.trending):
		m.deps.Intents.RequestTrending()
		return m, nil
	case key.Matches(msg, m.keys.favour):
		return m, m.addFavourite()
	case key.Matches(msg, m.keys.enter):
		m.activate()
		return m, nil
	}

	var cmd tea.Cmd
	m.panes[m.focus], cmd = m.panes[m.focus].Update(msg)
	return m, cmd
}

// activate turns enter on the focused pane into the matching intent.
func (m *Model) activate() {
	pane := m.panes[m.focus]
	if _, ok := pane.SelectedItem().(errorItem); ok || len(pane.Items()) == 0 {
		return
	}
	i := pane.Index()

	switch m.focus {
	case MusicPane:
		m.deps.Intents.RequestPlay(i)
	case PlaylistPane:
		m.deps.Intents.RequestPlaylist(i)
		m.focus = MusicPane
	case ArtistPane:
		m.deps.Intents.RequestArtist(i)
		m.focus = MusicPane
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.deps.Intents.RequestQuit()
	return m, tea.Quit
}

func (m *Model) addFavourite() tea.Cmd {
	if m.deps.Favourites == nil {
		return nil
	}
	item, ok := m.panes[m.focus].SelectedItem().(favouriter)
	if !ok {
		return nil
	}
	f := item.favourite()
	adder := m.deps.Favourites

	return func() tea.Msg {
		return favouriteMsg{title: f.Title(), err: adder.Create(f)}
	}
}

// apply copies a refresh into the panes. Slots are only rebuilt when the store saw a write,
// so the last rendered lists stay on screen while a replacement fetch is in flight.
func (m *Model) apply(msg refreshMsg) {
	m.stats = msg.stats
	if msg.notice != nil {
		m.notice = msg.notice
	}
	if !msg.changed {
		return
	}

	m.setItems(MusicPane, slotItems(msg.results.Music, wrapMusic))
	m.setItems(PlaylistPane, slotItems(msg.results.Playlists, wrapPlaylist))
	m.setItems(ArtistPane, slotItems(msg.results.Artists, wrapArtist))
}

func (m *Model) setItems(p Pane, items []list.Item) {
	l := m.panes[p]
	sel := l.Index()
	l.SetItems(items)
	if sel >= len(items) {
		sel = max(len(items)-1, 0)
	}
	l.Select(sel)
	m.panes[p] = l
}

func (m *Model) setNotice(level log.Level, message string) {
	m.notice = &tasks.Notice{Level: level, Message: message, Time: time.Now()}
}

// waitForRefresh blocks until the render signal fires or the refresh interval passes,
// then reads the store, the player and any pending notices.
func (m *Model) waitForRefresh() tea.Cmd {
	deps := m.deps
	ctx := m.ctx

	return func() tea.Msg {
		deps.Render.WaitTimeout(deps.Refresh)

		msg := refreshMsg{}
		msg.results, msg.changed = deps.Store.TakeUnseen()
		msg.notice = latestNotice(deps.Notices)

		if deps.Player != nil {
			sctx, cancel := context.WithTimeout(ctx, statsTimeout)
			defer cancel()
			if stats, err := deps.Player.Stats(sctx); err == nil {
				msg.stats = stats
			}
		}
		return msg
	}
}

// latestNotice drains notices without blocking and keeps the newest.
func latestNotice(notices <-chan tasks.Notice) *tasks.Notice {
	var latest *tasks.Notice
	for {
		select {
		case n, ok := <-notices:
			if !ok {
				return latest
			}
			latest = &n
		default:
			return latest
		}
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-6, 10)
	m.help.Width = width

	paneWidth := max(width/int(numPanes)-4, 10)
	paneHeight := max(height-chromeHeight, 3)
	for p := range m.panes {
		m.panes[p].SetSize(paneWidth, paneHeight)
	}
}

// View renders the search box, the three panes and the status lines.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("ytui") + "  " + m.input.View())
	b.WriteString("\n")

	views := make([]string, numPanes)
	for p := range numPanes {
		style := styles.blurred
		if p == m.focus && !m.input.Focused() {
			style = styles.focused
		}
		views[p] = style.Render(m.panes[p].View())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, views...))
	b.WriteString("\n")

	b.WriteString(m.nowPlaying())
	b.WriteString("\n")
	b.WriteString(m.noticeLine())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) nowPlaying() string {
	if m.stats.Idle() {
		return styles.help.Render("Nothing playing")
	}

	icon := styles.ok.Render("▶")
	if m.stats.Paused {
		icon = styles.warn.Render("⏸")
	}
	position := fmt.Sprintf("%s / %s",
		shared.FormatDuration(int(m.stats.Elapsed.Seconds())),
		shared.FormatDuration(int(m.stats.Duration.Seconds())),
	)

	width := m.width - len(position) - 6
	if width <= 0 {
		width = 40
	}
	return fmt.Sprintf("%s %s  %s", icon, shared.Truncate(m.stats.Title, width), position)
}

func (m *Model) noticeLine() string {
	if m.notice == nil {
		return ""
	}
	text := m.notice.Message
	if m.width > 0 {
		text = shared.Truncate(text, m.width)
	}
	switch {
	case m.notice.Level >= log.ErrorLevel:
		return styles.err.Render(text)
	case m.notice.Level >= log.WarnLevel:
		return styles.warn.Render(text)
	default:
		return styles.As(text, lipgloss.Color("#04B575"))
	}
}
