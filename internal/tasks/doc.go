// Package tasks runs long playlist operations against an open library with real-time progress reporting.
//
// # Core Operations
//
// [ExportEngine] offers two operations:
//
//  1. [ExportEngine.Export] : one playlist with its ordered tracks
//     - Rejects folders, which hold no tracks
//     - Decodes smart-list criteria into a readable summary
//
//  2. [ExportEngine.BulkExport] : every exportable playlist, or a chosen set
//     - Reads playlists through a rate limiter so a busy database is not starved
//     - Writes files from a bounded worker pool
//     - Writes a manifest summarizing successes and failures
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, and a message.
// Updates use select with default to prevent blocking.
package tasks
