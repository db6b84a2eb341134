// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/services"
)

// MockSource is a test double for [services.Source].
//
// Each operation calls its Func field when set and otherwise returns an empty result.
// Calls are recorded as "op:arg" strings in arrival order.
type MockSource struct {
	SearchFunc   func(ctx context.Context, q services.SearchQuery) (*models.SearchResults, error)
	TrendingFunc func(ctx context.Context, region string) ([]models.MusicItem, error)
	PlaylistFunc func(ctx context.Context, id string) ([]models.MusicItem, error)
	ArtistFunc   func(ctx context.Context, id string) (*models.ArtistContents, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockSource) record(op, arg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op+":"+arg)
}

// Calls returns a copy of the recorded calls.
func (m *MockSource) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockSource) Search(ctx context.Context, q services.SearchQuery) (*models.SearchResults, error) {
	m.record("search", q.Query)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q)
	}
	return &models.SearchResults{}, nil
}

func (m *MockSource) Trending(ctx context.Context, region string) ([]models.MusicItem, error) {
	m.record("trending", region)
	if m.TrendingFunc != nil {
		return m.TrendingFunc(ctx, region)
	}
	return []models.MusicItem{}, nil
}

func (m *MockSource) PlaylistContents(ctx context.Context, id string) ([]models.MusicItem, error) {
	m.record("playlist", id)
	if m.PlaylistFunc != nil {
		return m.PlaylistFunc(ctx, id)
	}
	return []models.MusicItem{}, nil
}

func (m *MockSource) ArtistContents(ctx context.Context, id string) (*models.ArtistContents, error) {
	m.record("artist", id)
	if m.ArtistFunc != nil {
		return m.ArtistFunc(ctx, id)
	}
	return &models.ArtistContents{}, nil
}

func (m *MockSource) Name() string { return "mock" }

// MockPlayer is a test double for [services.Player] that keeps the play queue in memory.
type MockPlayer struct {
	Err   error // returned by every command when set
	Delay time.Duration

	mu       sync.Mutex
	current  string
	queue    []string
	paused   bool
	commands []string
	stats    models.PlayerStats
	closed   bool
}

func (p *MockPlayer) do(ctx context.Context, cmd string) error {
	if err := Sleep(ctx, p.Delay); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, cmd)
	return p.Err
}

func (p *MockPlayer) PlayReplacing(ctx context.Context, streamID string) error {
	if err := p.do(ctx, "play:"+streamID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current, p.queue, p.paused = streamID, nil, false
	return nil
}

func (p *MockPlayer) EnqueueAfterCurrent(ctx context.Context, streamID, title string) error {
	if err := p.do(ctx, "enqueue:"+streamID); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, streamID)
	return nil
}

func (p *MockPlayer) TogglePause(ctx context.Context) (bool, error) {
	if err := p.do(ctx, "pause"); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = !p.paused
	return p.paused, nil
}

func (p *MockPlayer) Stats(ctx context.Context) (models.PlayerStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Paused = p.paused
	return s, nil
}

// SetStats sets what Stats reports.
func (p *MockPlayer) SetStats(s models.PlayerStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = s
}

func (p *MockPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Commands returns a copy of every command received, in order.
func (p *MockPlayer) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}

// Current returns the playing stream and the queue behind it.
func (p *MockPlayer) Current() (string, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, append([]string(nil), p.queue...)
}

func (p *MockPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *MockPlayer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MusicItems builds n items with IDs prefix0..prefixN-1.
func MusicItems(prefix string, n int) []models.MusicItem {
	items := make([]models.MusicItem, n)
	for i := range items {
		items[i] = models.MusicItem{
			ID:       fmt.Sprintf("%s%d", prefix, i),
			Title:    fmt.Sprintf("%s title %d", prefix, i),
			Author:   prefix + " author",
			Duration: 60 + i,
		}
	}
	return items
}

// PlaylistItems builds n playlists with IDs prefix0..prefixN-1.
func PlaylistItems(prefix string, n int) []models.PlaylistItem {
	items := make([]models.PlaylistItem, n)
	for i := range items {
		items[i] = models.PlaylistItem{
			ID:         fmt.Sprintf("%s%d", prefix, i),
			Title:      fmt.Sprintf("%s playlist %d", prefix, i),
			VideoCount: i,
		}
	}
	return items
}

// ArtistItems builds n artists with IDs prefix0..prefixN-1.
func ArtistItems(prefix string, n int) []models.ArtistItem {
	items := make([]models.ArtistItem, n)
	for i := range items {
		items[i] = models.ArtistItem{
			ID:   fmt.Sprintf("%s%d", prefix, i),
			Name: fmt.Sprintf("%s artist %d", prefix, i),
		}
	}
	return items
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
