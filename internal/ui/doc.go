// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The screen is a search box above three result panes (Music, Playlists, Artists), followed by
// a now-playing bar, the latest notice and a help line.
//
// The (view) [Model] never fetches anything itself. Key presses become intents on the
// orchestrator's queue; a wait command blocks on the render signal (or the refresh interval)
// and hands the store's snapshot, the player's stats and pending notices back as one message.
//
// A pane whose fetch failed shows a single "Error: <message>" entry. Panes are only rebuilt
// after the store was written, so cancelled fetches leave the previous lists on screen.
package ui
