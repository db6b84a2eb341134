// Package repositories implements SQLite persistence for favourites and play history.
//
// Key Implementations:
//   - [FavouriteRepository] : starred music, playlists and artists with soft deletes
//   - [HistoryRepository] : append-only log of plays, newest first
//   - [HistoryRecorder] : adapts [HistoryRepository] to the orchestrator's history hook
//
// Sequence numbers provide a stable insertion order independent of UUIDs and timestamps.
// [NextSequence] atomically increments per-table counters kept in dedicated sequence tables.
package repositories
