// Package models defines the value types that flow between the metadata backend, the orchestrator, the renderer and the local database.
//
// The package contains two categories of types:
//
// 1. Result snapshots: immutable values produced by a fetch and replaced wholesale by the next one
//   - [MusicItem] : a playable video with its duration
//   - [PlaylistItem] : a remote playlist
//   - [ArtistItem] : a remote channel
//   - [SearchResults], [ArtistContents], [PlaylistContents] : groupings returned by the backend
//   - [PlayerStats] : a best-effort read of the media engine
//
// 2. Persistent entities: rows in the local SQLite database
//   - [Favourite] : a starred item of any kind
//   - [HistoryEntry] : one play started from the client
//
// Persistent entities implement [Model]; [Repository] is the CRUD contract for their stores.
package models
