// Package source provides the record sources the library engine reads from.
//
// A [Source] materializes raw rows (soft-deleted ones included) as
// [models.Record] values and persists single-field content updates. Three
// implementations exist:
//   - [SQLite] reads a rekordbox-shaped master.db and supports updates
//   - [XML] reads a rekordbox.xml collection export (read-only)
//   - [Memory] holds records in memory, for tests and fixtures
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// Content fields that may be updated through [Source.UpdateContent].
const (
	FieldRating    = "Rating"
	FieldPlayCount = "DJPlayCount"
)

// Source is the raw record collaborator of the library engine.
type Source interface {
	// Content returns every content (track) row.
	Content(ctx context.Context) ([]models.Record, error)
	// Playlists returns every playlist row.
	Playlists(ctx context.Context) ([]models.Record, error)
	// PlaylistSongs returns membership rows of one playlist, or all rows when playlistID is empty.
	PlaylistSongs(ctx context.Context, playlistID string) ([]models.Record, error)
	// UpdateContent locates a live content row by id, writes one field and commits.
	// Either every step succeeds or nothing is persisted. It returns the number of rows written.
	UpdateContent(ctx context.Context, id, field string, value int) (int, error)
	// Ping checks that the source is still reachable.
	Ping(ctx context.Context) error
	// Path is the on-disk location of the source, if any.
	Path() string
	Close() error
}

func writable(field string) bool {
	return field == FieldRating || field == FieldPlayCount
}

// Kinds accepted by [Open].
const (
	KindSQLite = "sqlite"
	KindXML    = "xml"
)

// Open opens the source of the given kind at path. An empty kind is inferred from the file extension.
func Open(kind, path string) (Source, error) {
	if kind == "" {
		kind = KindSQLite
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			kind = KindXML
		}
	}

	switch kind {
	case KindSQLite:
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrLibraryPath, err)
		}
		return OpenSQLite(path)
	case KindXML:
		return OpenXML(path)
	default:
		return nil, fmt.Errorf("%w: unknown source %q", shared.ErrInvalidConfig, kind)
	}
}
