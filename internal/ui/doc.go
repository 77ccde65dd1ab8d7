// Package ui implements an interactive terminal browser for a rekordbox library using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [PlaylistListView] : Browse the playlist tree, entering and leaving folders
//  2. [TrackListView] : Preview a playlist's tracks with bpm, key and rating
//  3. [ConfirmView] : Confirm exporting the playlist
//  4. [ExportView] : Monitor real-time progress updates
//  5. [ResultView] : Display the written files or the failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the ExportEngine, providing non-blocking status reporting during exports.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, e, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
