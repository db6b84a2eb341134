// package services defines the capabilities the client consumes: a remote metadata Source and a media Player
//
// Invidious (HTTP), mpv (JSON IPC)
package services

import (
	"context"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
)

// Source is a metadata backend. Every failure, whether transport, status or decoding,
// is reported as an error wrapping [shared.ErrAPIRequest].
type Source interface {
	// Search runs a query against the requested result kinds.
	Search(ctx context.Context, q SearchQuery) (*models.SearchResults, error)

	// Trending returns trending music, optionally for a region code.
	Trending(ctx context.Context, region string) ([]models.MusicItem, error)

	// PlaylistContents returns the videos of a playlist.
	PlaylistContents(ctx context.Context, playlistID string) ([]models.MusicItem, error)

	// ArtistContents returns the videos and playlists of a channel.
	ArtistContents(ctx context.Context, artistID string) (*models.ArtistContents, error)

	// Name returns the name of the backend (e.g. "Invidious")
	Name() string
}

// PlaylistDescriber is implemented by sources that can return a playlist's metadata
// along with its videos. Exports use it to name their files.
type PlaylistDescriber interface {
	Playlist(ctx context.Context, playlistID string) (*models.PlaylistContents, error)
}

// SearchQuery selects what a search returns.
type SearchQuery struct {
	Query            string
	IncludeMusic     bool
	IncludePlaylists bool
	IncludeArtists   bool
}

// Any reports whether at least one result kind was requested.
func (q SearchQuery) Any() bool {
	return q.IncludeMusic || q.IncludePlaylists || q.IncludeArtists
}

// Player is a media engine. Failures wrap [shared.ErrPlayback].
type Player interface {
	// PlayReplacing drops whatever is queued and starts streamID.
	PlayReplacing(ctx context.Context, streamID string) error

	// EnqueueAfterCurrent appends streamID to the play queue.
	EnqueueAfterCurrent(ctx context.Context, streamID, title string) error

	// TogglePause flips the pause state and returns the new one.
	TogglePause(ctx context.Context) (bool, error)

	// Stats reads playback position, duration and title. Unknown fields stay zero.
	Stats(ctx context.Context) (models.PlayerStats, error)

	// Close releases the engine.
	Close() error
}

// TitledPlayer is implemented by players that can report the list title of the
// item they were told to play instead of whatever the stream calls itself.
type TitledPlayer interface {
	PlayReplacingTitled(ctx context.Context, streamID, title string) error
}
