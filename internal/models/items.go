package models

import "time"

// MusicItem is a single playable video.
type MusicItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Duration int    `json:"duration"` // seconds; 0 when unknown or live
}

// PlaylistItem is a remote playlist.
type PlaylistItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	VideoCount int    `json:"video_count"`
}

// ArtistItem is a remote channel.
type ArtistItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
	VideoCount  int    `json:"video_count"`
}

// SearchResults groups the three result kinds of a search. Kinds that were not requested stay nil.
type SearchResults struct {
	Music     []MusicItem    `json:"music,omitempty"`
	Playlists []PlaylistItem `json:"playlists,omitempty"`
	Artists   []ArtistItem   `json:"artists,omitempty"`
}

// ArtistContents is what opening an artist yields.
type ArtistContents struct {
	Music     []MusicItem    `json:"music"`
	Playlists []PlaylistItem `json:"playlists"`
}

// PlaylistContents is a playlist together with its videos, used for exports.
type PlaylistContents struct {
	Playlist PlaylistItem `json:"playlist"`
	Music    []MusicItem  `json:"music"`
}

// PlayerStats is a best-effort read of the media engine. Zero values mean the
// engine has not reported that property yet.
type PlayerStats struct {
	Elapsed  time.Duration `json:"elapsed"`
	Duration time.Duration `json:"duration"`
	Title    string        `json:"title"`
	Paused   bool          `json:"paused"`
}

// Idle reports whether nothing is loaded.
func (s PlayerStats) Idle() bool {
	return s.Title == "" && s.Duration == 0
}
