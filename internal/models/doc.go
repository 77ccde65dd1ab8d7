// Package models defines the library entities and query results exchanged between the record sources, the core engine, and the
// dispatch layers (CLI, tool server, TUI).
//
// The package contains three categories of types:
//
// 1. Raw records: what a source hands to the core
//   - [Record] : named-field lookup with graceful absence
//   - [Fields] : the map-backed [Record] every source produces
//   - [Entity] : a related-entity reference (artist, album, genre, key)
//
// 2. Normalized entities: what the core hands back
//   - [Track] : one media item with DJ metadata
//   - [Playlist] : a folder, smart playlist, or regular playlist
//   - [Membership] : one track's position in one playlist
//
// 3. Results: plain structured values returned by library operations
//   - [SearchOptions], [Analysis], [ValidationResult], [LibraryStats], [MutationResult], [ConnectionStatus], [PlaylistNode]
//   - [PlaylistExport], [BulkExportResult] : exporter input and bulk export summary
//
// All normalized and result types serialize to JSON with snake_case keys.
package models
