package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// PlaylistReader is the part of the library an export needs.
type PlaylistReader interface {
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, error)
	GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error)
}

// ExportEngine exports playlists from a [PlaylistReader].
type ExportEngine struct {
	lib    PlaylistReader
	logger *log.Logger
}

// NewExportEngine creates an [ExportEngine]. A nil logger discards output.
func NewExportEngine(lib PlaylistReader, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &ExportEngine{lib: lib, logger: shared.WithLogger(logger, "component", "export")}
}

func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Export returns a playlist with its tracks in playlist order.
//
// Folders cannot be exported. Smart playlists carry their decoded criteria.
func (e *ExportEngine) Export(ctx context.Context, id string) (*models.PlaylistExport, error) {
	p, err := e.lib.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsFolder {
		return nil, fmt.Errorf("%w: playlist %s is a folder", shared.ErrInvalidArgument, p.ID)
	}

	tracks, err := e.lib.GetPlaylistTracks(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	export := &models.PlaylistExport{Playlist: *p, Tracks: tracks}
	if p.IsSmartPlaylist && p.SmartCriteria != nil {
		export.Criteria = *p.SmartCriteria
	}
	return export, nil
}

// ExportableIDs returns the ids of every live playlist that is not a folder, in library order.
func (e *ExportEngine) ExportableIDs(ctx context.Context) ([]string, error) {
	playlists, err := e.lib.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(playlists))
	for _, p := range playlists {
		if !p.IsFolder {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}
