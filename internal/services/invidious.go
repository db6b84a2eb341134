// Invidious [Source] implementation
//
// Talks to the public Invidious v1 API. The instance list comes from config and is
// walked in order on every call so a dead instance only costs one failed request.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultInvidiousTimeout = 8 * time.Second
	defaultInvidiousRate    = 5.0
)

// invidiousResult is the union of the video, playlist and channel objects the API returns.
// Search responses mix all three, discriminated by Type.
type invidiousResult struct {
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	VideoID       string            `json:"videoId"`
	PlaylistID    string            `json:"playlistId"`
	Author        string            `json:"author"`
	AuthorID      string            `json:"authorId"`
	LengthSeconds int               `json:"lengthSeconds"`
	VideoCount    int               `json:"videoCount"`
	SubCount      int               `json:"subCount"`
	Videos        []invidiousResult `json:"videos,omitempty"`
}

// invidiousPlaylistPage is one page of a channel's playlists.
type invidiousPlaylistPage struct {
	Playlists    []invidiousResult `json:"playlists"`
	Continuation string            `json:"continuation"`
}

// InvidiousOpts configures an [InvidiousSource].
type InvidiousOpts struct {
	Servers           []string
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// InvidiousSource implements [Source] against one or more Invidious instances.
type InvidiousSource struct {
	servers    []string
	timeout    time.Duration
	limiter    *rate.Limiter
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// NewInvidiousSource creates a new Invidious source.
func NewInvidiousSource(opts InvidiousOpts) *InvidiousSource {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultInvidiousTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultInvidiousRate
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	servers := make([]string, 0, len(opts.Servers))
	for _, s := range opts.Servers {
		if s = strings.TrimRight(strings.TrimSpace(s), "/"); s != "" {
			servers = append(servers, s)
		}
	}

	burst := max(1, int(opts.RequestsPerSecond))
	return &InvidiousSource{
		servers:    servers,
		timeout:    opts.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "invidious"),
	}
}

// NewInvidiousSourceFromConfig builds a source from the [source] section of the config.
func NewInvidiousSourceFromConfig(cfg *shared.Config, logger *log.Logger) *InvidiousSource {
	return NewInvidiousSource(InvidiousOpts{
		Servers:           cfg.Source.Servers,
		Timeout:           cfg.SourceTimeout(),
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		UserAgent:         cfg.Source.UserAgent,
		Logger:            logger,
	})
}

// Name returns the service name.
func (s *InvidiousSource) Name() string {
	return "Invidious"
}

// Servers returns the normalised instance list in the order it is tried.
func (s *InvidiousSource) Servers() []string {
	return append([]string(nil), s.servers...)
}

// Search runs one request per requested kind concurrently. The first failure cancels the others.
//
// Calls GET /api/v1/search?q=&type=video|playlist|channel
func (s *InvidiousSource) Search(ctx context.Context, q SearchQuery) (*models.SearchResults, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: %w: empty search query", shared.ErrAPIRequest, shared.ErrInvalidArgument)
	}

	results := &models.SearchResults{}
	if !q.Any() {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if q.IncludeMusic {
		g.Go(func() error {
			raw, err := s.search(gctx, query, "video")
			results.Music = toMusic(raw)
			return err
		})
	}
	if q.IncludePlaylists {
		g.Go(func() error {
			raw, err := s.search(gctx, query, "playlist")
			results.Playlists = toPlaylists(raw)
			return err
		})
	}
	if q.IncludeArtists {
		g.Go(func() error {
			raw, err := s.search(gctx, query, "channel")
			results.Artists = toArtists(raw)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *InvidiousSource) search(ctx context.Context, query, kind string) ([]invidiousResult, error) {
	params := url.Values{"q": {query}, "type": {kind}}
	return fetch[[]invidiousResult](ctx, s, "/api/v1/search", params)
}

// Trending returns the music trending list.
//
// Calls GET /api/v1/trending?type=music[&region=]
func (s *InvidiousSource) Trending(ctx context.Context, region string) ([]models.MusicItem, error) {
	params := url.Values{"type": {"music"}}
	if region != "" {
		params.Set("region", strings.ToUpper(region))
	}

	raw, err := fetch[[]invidiousResult](ctx, s, "/api/v1/trending", params)
	if err != nil {
		return nil, err
	}
	return toMusic(raw), nil
}

// PlaylistContents returns the videos of a playlist.
//
// Calls GET /api/v1/playlists/{id}
func (s *InvidiousSource) PlaylistContents(ctx context.Context, playlistID string) ([]models.MusicItem, error) {
	pl, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return pl.Music, nil
}

// Playlist returns a playlist's metadata together with its videos.
func (s *InvidiousSource) Playlist(ctx context.Context, playlistID string) (*models.PlaylistContents, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: %w: empty playlist id", shared.ErrAPIRequest, shared.ErrInvalidArgument)
	}

	pl, err := fetch[invidiousResult](ctx, s, "/api/v1/playlists/"+url.PathEscape(playlistID), nil)
	if err != nil {
		return nil, err
	}

	count := pl.VideoCount
	if count == 0 {
		count = len(pl.Videos)
	}
	return &models.PlaylistContents{
		Playlist: models.PlaylistItem{
			ID:         playlistID,
			Title:      pl.Title,
			Author:     pl.Author,
			VideoCount: count,
		},
		Music: toMusic(pl.Videos),
	}, nil
}

// ArtistContents fetches a channel's videos and playlists concurrently.
//
// Calls GET /api/v1/channels/{id}/videos and GET /api/v1/channels/{id}/playlists
func (s *InvidiousSource) ArtistContents(ctx context.Context, artistID string) (*models.ArtistContents, error) {
	if artistID == "" {
		return nil, fmt.Errorf("%w: %w: empty artist id", shared.ErrAPIRequest, shared.ErrInvalidArgument)
	}

	base := "/api/v1/channels/" + url.PathEscape(artistID)
	contents := &models.ArtistContents{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := fetch[json.RawMessage](gctx, s, base+"/videos", nil)
		if err != nil {
			return err
		}
		videos, err := decodeChannelVideos(raw)
		if err != nil {
			return fmt.Errorf("%w: %s/videos: %v", shared.ErrAPIRequest, base, err)
		}
		contents.Music = toMusic(videos)
		return nil
	})
	g.Go(func() error {
		page, err := fetch[invidiousPlaylistPage](gctx, s, base+"/playlists", nil)
		if err != nil {
			return err
		}
		contents.Playlists = toPlaylists(page.Playlists)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

// decodeChannelVideos accepts both the bare array served by older instances and the
// paginated {"videos": [...]} envelope served by newer ones.
func decodeChannelVideos(raw json.RawMessage) ([]invidiousResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var videos []invidiousResult
		if err := json.Unmarshal(trimmed, &videos); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return videos, nil
	}

	var page struct {
		Videos []invidiousResult `json:"videos"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return page.Videos, nil
}

// fetch performs one rate-limited, time-bounded GET, walking the server list until one succeeds.
// Each attempt decodes into a fresh T so a half-decoded failure never leaks into the result.
func fetch[T any](ctx context.Context, s *InvidiousSource, endpoint string, params url.Values) (T, error) {
	var zero T
	if len(s.servers) == 0 {
		return zero, fmt.Errorf("%w: %w: no servers configured", shared.ErrAPIRequest, shared.ErrServiceUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return zero, s.failure(ctx, endpoint, err)
	}

	var lastErr error
	for _, server := range s.servers {
		var result T
		err := s.doRequest(ctx, server, endpoint, params, &result)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		s.logger.Warn("backend request failed", "server", server, "endpoint", endpoint, "error", err)
	}

	return zero, s.failure(ctx, endpoint, lastErr)
}

// failure collapses every failure kind into ErrAPIRequest, tagging timeouts so callers can tell them apart if they care.
func (s *InvidiousSource) failure(ctx context.Context, endpoint string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w after %v", shared.ErrAPIRequest, endpoint, shared.ErrTimeout, s.timeout)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, endpoint, err)
}

func (s *InvidiousSource) doRequest(ctx context.Context, server, endpoint string, params url.Values, result any) error {
	apiURL := server + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("invidious API error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("invidious API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func toMusic(raw []invidiousResult) []models.MusicItem {
	items := make([]models.MusicItem, 0, len(raw))
	for _, r := range raw {
		if (r.Type != "" && r.Type != "video") || r.VideoID == "" {
			continue
		}
		items = append(items, models.MusicItem{
			ID:       r.VideoID,
			Title:    r.Title,
			Author:   r.Author,
			Duration: r.LengthSeconds,
		})
	}
	return items
}

func toPlaylists(raw []invidiousResult) []models.PlaylistItem {
	items := make([]models.PlaylistItem, 0, len(raw))
	for _, r := range raw {
		if (r.Type != "" && r.Type != "playlist") || r.PlaylistID == "" {
			continue
		}
		items = append(items, models.PlaylistItem{
			ID:         r.PlaylistID,
			Title:      r.Title,
			Author:     r.Author,
			VideoCount: r.VideoCount,
		})
	}
	return items
}

func toArtists(raw []invidiousResult) []models.ArtistItem {
	items := make([]models.ArtistItem, 0, len(raw))
	for _, r := range raw {
		if r.Type != "channel" || r.AuthorID == "" {
			continue
		}
		items = append(items, models.ArtistItem{
			ID:          r.AuthorID,
			Name:        r.Author,
			Subscribers: r.SubCount,
			VideoCount:  r.VideoCount,
		})
	}
	return items
}
