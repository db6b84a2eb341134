// Package tasks is the asynchronous core of the client: it turns user intents into
// background fetches and playback commands without ever blocking the renderer.
//
// # Data Flow
//
//  1. The UI writes into the [IntentQueue] through one setter per category. Each setter
//     overwrites its slot (last write wins) and wakes the orchestrator.
//  2. [Orchestrator.Run] wakes, drains the whole queue in one lock acquisition and, for
//     every populated category, cancels the live [Task] of that category before spawning
//     its replacement.
//  3. Tasks call the [services.Source] or [services.Player] and write their outcome into
//     the [ResultStore], replacing a whole slot with items or with the error.
//  4. Every store write notifies the render [Signal]; the UI reads with [ResultStore.TakeUnseen].
//
// # Cancellation
//
// A superseded or shut-down task never writes: the store checks the task's context under
// its own lock before applying a write. Playback failures are reported as [Notice] values
// on an optional channel and never touch the store.
//
// # Play and Pause
//
// A drained snapshot holding both a play and a pause toggle runs only the play.
// Playing an item replaces the player's queue and appends up to QueueSize following items
// so playback continues down the list. An optional [HistoryRecorder] is told about each play.
//
// # Exports
//
// [Exporter] writes playlists to disk with a worker pool sharing a rate limiter, reporting
// [ProgressUpdate] values on a non-blocking channel and finishing with a JSON manifest.
package tasks
