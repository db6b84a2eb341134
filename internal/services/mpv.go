// mpv [Player] implementation
//
// Drives mpv through its JSON IPC socket. One short-lived connection is opened per
// command batch; replies are matched to commands by request_id and events are skipped.
package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

const (
	mpvSocketRetries    = 20
	mpvSocketInterval   = 100 * time.Millisecond
	mpvReadDeadline     = 500 * time.Millisecond
	defaultStreamPrefix = "https://www.youtube.com/watch?v="
)

type mpvCommand struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

type mpvResponse struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int             `json:"request_id"`
	Event     string          `json:"event"`
}

func (r mpvResponse) ok() bool { return r.Error == "success" }

// MpvOpts configures an [MpvPlayer].
type MpvOpts struct {
	Path         string // mpv binary; empty attaches to an already running mpv
	SocketPath   string
	StreamPrefix string
	ExtraArgs    []string
	Logger       *log.Logger
}

// MpvPlayer implements [Player] on top of an mpv process.
type MpvPlayer struct {
	mu         sync.Mutex
	path       string
	socketPath string
	prefix     string
	extraArgs  []string
	logger     *log.Logger

	cmd    *exec.Cmd
	exited chan struct{}
	nextID int
	titles map[string]string // stream URL -> title from the result list
}

// NewMpvPlayer creates a player. No process is started until the first playback command.
func NewMpvPlayer(opts MpvOpts) *MpvPlayer {
	if opts.StreamPrefix == "" {
		opts.StreamPrefix = defaultStreamPrefix
	}
	if opts.SocketPath == "" {
		opts.SocketPath = fmt.Sprintf("%s/ytui-mpv-%d.sock", os.TempDir(), os.Getpid())
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &MpvPlayer{
		path:       opts.Path,
		socketPath: opts.SocketPath,
		prefix:     opts.StreamPrefix,
		extraArgs:  opts.ExtraArgs,
		logger:     shared.WithLogger(opts.Logger, "component", "mpv"),
		titles:     make(map[string]string),
	}
}

var _ TitledPlayer = (*MpvPlayer)(nil)

// NewMpvPlayerFromConfig builds a player from the [player] section of the config.
func NewMpvPlayerFromConfig(cfg *shared.Config, logger *log.Logger) *MpvPlayer {
	return NewMpvPlayer(MpvOpts{
		Path:         cfg.Player.MpvPath,
		SocketPath:   cfg.Player.SocketPath,
		StreamPrefix: cfg.Player.StreamPrefix,
		ExtraArgs:    cfg.Player.ExtraArgs,
		Logger:       logger,
	})
}

// StreamURL maps a video ID to the URL handed to mpv.
func (p *MpvPlayer) StreamURL(id string) string {
	return p.prefix + id
}

// PlayReplacing clears mpv's playlist, loads streamID and unpauses. Stats reports
// mpv's media-title for it; use PlayReplacingTitled to show the list title instead.
func (p *MpvPlayer) PlayReplacing(ctx context.Context, streamID string) error {
	return p.PlayReplacingTitled(ctx, streamID, "")
}

// PlayReplacingTitled is PlayReplacing that remembers title for Stats, the same
// way EnqueueAfterCurrent does for queued items.
func (p *MpvPlayer) PlayReplacingTitled(ctx context.Context, streamID, title string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureRunning(); err != nil {
		return err
	}

	p.titles = make(map[string]string)
	if title != "" {
		p.titles[p.StreamURL(streamID)] = title
	}
	_, err := p.exec(ctx,
		[]any{"loadfile", p.StreamURL(streamID), "replace"},
		[]any{"set_property", "pause", false},
	)
	return err
}

// EnqueueAfterCurrent appends streamID to mpv's playlist. Called right after
// PlayReplacing, successive appends land in list order behind the current entry.
func (p *MpvPlayer) EnqueueAfterCurrent(ctx context.Context, streamID, title string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureRunning(); err != nil {
		return err
	}

	url := p.StreamURL(streamID)
	if _, err := p.exec(ctx, []any{"loadfile", url, "append"}); err != nil {
		return err
	}
	p.titles[url] = title
	return nil
}

// TogglePause cycles mpv's pause property and reads it back.
// With no process running there is nothing to pause and it reports false.
func (p *MpvPlayer) TogglePause(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running() {
		return false, nil
	}

	resps, err := p.exec(ctx,
		[]any{"cycle", "pause"},
		[]any{"get_property", "pause"},
	)
	if err != nil {
		return false, err
	}

	var paused bool
	if err := json.Unmarshal(resps[1].Data, &paused); err != nil {
		return false, fmt.Errorf("%w: unexpected pause value %s", shared.ErrPlayback, resps[1].Data)
	}
	return paused, nil
}

// Stats reads time-pos, duration, media-title, path and pause in one batch.
// Properties mpv reports as unavailable are left zero.
func (p *MpvPlayer) Stats(ctx context.Context) (models.PlayerStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stats models.PlayerStats
	if !p.running() {
		return stats, nil
	}

	resps, err := p.send(ctx,
		[]any{"get_property", "time-pos"},
		[]any{"get_property", "duration"},
		[]any{"get_property", "media-title"},
		[]any{"get_property", "path"},
		[]any{"get_property", "pause"},
	)
	if err != nil {
		return stats, err
	}

	var pos, dur float64
	var title, path string
	if resps[0].ok() && json.Unmarshal(resps[0].Data, &pos) == nil {
		stats.Elapsed = time.Duration(pos * float64(time.Second))
	}
	if resps[1].ok() && json.Unmarshal(resps[1].Data, &dur) == nil {
		stats.Duration = time.Duration(dur * float64(time.Second))
	}
	if resps[2].ok() {
		_ = json.Unmarshal(resps[2].Data, &title)
	}
	if resps[3].ok() {
		_ = json.Unmarshal(resps[3].Data, &path)
	}
	if resps[4].ok() {
		_ = json.Unmarshal(resps[4].Data, &stats.Paused)
	}

	stats.Title = title
	if known, ok := p.titles[path]; ok && known != "" {
		stats.Title = known
	}
	return stats, nil
}

// Close stops a process this player started and removes its socket.
// An attached mpv is left running.
func (p *MpvPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("failed to kill mpv", "error", err)
	}
	<-p.exited
	p.cmd = nil
	os.Remove(p.socketPath)
	return nil
}

// running reports whether commands can be sent. An attached player is always assumed reachable.
// Callers hold p.mu.
func (p *MpvPlayer) running() bool {
	if p.path == "" {
		return true
	}
	if p.cmd == nil {
		return false
	}
	select {
	case <-p.exited:
		p.cmd = nil
		return false
	default:
		return true
	}
}

// ensureRunning launches mpv when this player owns the process and none is alive.
// Callers hold p.mu.
func (p *MpvPlayer) ensureRunning() error {
	if p.running() {
		return nil
	}

	os.Remove(p.socketPath)
	args := append([]string{
		"--idle",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server=" + p.socketPath,
	}, p.extraArgs...)

	p.logger.Info("starting mpv", "path", p.path, "socket", p.socketPath)
	cmd := exec.Command(p.path, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: could not start mpv: %v", shared.ErrPlayback, err)
	}

	exited := make(chan struct{})
	go func() {
		cmd.Wait()
		close(exited)
	}()
	p.cmd, p.exited = cmd, exited

	for range mpvSocketRetries {
		if _, err := os.Stat(p.socketPath); err == nil {
			return nil
		}
		select {
		case <-exited:
			p.cmd = nil
			return fmt.Errorf("%w: mpv exited before opening %s", shared.ErrPlayback, p.socketPath)
		case <-time.After(mpvSocketInterval):
		}
	}

	p.logger.Error("timed out waiting for mpv socket", "socket", p.socketPath)
	cmd.Process.Kill()
	<-exited
	p.cmd = nil
	return fmt.Errorf("%w: mpv started but socket did not appear at %s", shared.ErrPlayback, p.socketPath)
}

// exec sends a batch and fails on the first command mpv rejected.
func (p *MpvPlayer) exec(ctx context.Context, cmds ...[]any) ([]mpvResponse, error) {
	resps, err := p.send(ctx, cmds...)
	if err != nil {
		return nil, err
	}
	for i, r := range resps {
		if !r.ok() {
			return nil, fmt.Errorf("%w: %v: %s", shared.ErrPlayback, cmds[i][0], r.Error)
		}
	}
	return resps, nil
}

// send writes every command on one connection and collects one reply per command.
// Callers hold p.mu.
func (p *MpvPlayer) send(ctx context.Context, cmds ...[]any) ([]mpvResponse, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", p.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect to mpv socket: %v", shared.ErrPlayback, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(mpvReadDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	index := make(map[int]int, len(cmds))
	enc := json.NewEncoder(conn)
	for i, c := range cmds {
		p.nextID++
		index[p.nextID] = i
		if err := enc.Encode(mpvCommand{Command: c, RequestID: p.nextID}); err != nil {
			return nil, fmt.Errorf("%w: error sending mpv command: %v", shared.ErrPlayback, err)
		}
	}

	resps := make([]mpvResponse, len(cmds))
	got := 0
	scanner := bufio.NewScanner(conn)
	for got < len(cmds) && scanner.Scan() {
		var r mpvResponse
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			p.logger.Debug("could not parse line from mpv", "line", scanner.Text(), "error", err)
			continue
		}
		i, ok := index[r.RequestID]
		if r.Event != "" || !ok {
			continue
		}
		resps[i] = r
		delete(index, r.RequestID)
		got++
	}

	if got < len(cmds) {
		return nil, fmt.Errorf("%w: mpv answered %d of %d commands: %v", shared.ErrPlayback, got, len(cmds), scanner.Err())
	}
	return resps, nil
}
