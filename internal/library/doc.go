// Package library is the query engine over a rekordbox library.
//
// Raw records from a [source.Source] pass through the soft-delete filter and
// the field resolver into normalized tracks and playlists. Search, playlist
// hierarchy, smart-criteria decoding and aggregation all operate on that
// live, normalized view.
//
// Nothing is cached: every [Library] operation re-reads the source, so two
// calls with unchanged data return identical results. Mutations (rating and
// play count) write through to the source after a best-effort backup.
package library
