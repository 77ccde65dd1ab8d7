package library

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
	"github.com/desertthunder/rbx/internal/source"
)

// Options configures a [Library] handle.
type Options struct {
	Logger *log.Logger
	// Backup enables a timestamped copy of the source before each mutation.
	Backup bool
	// BackupDir overrides the directory backups are written to. Defaults to the source's directory.
	BackupDir string
	// Now is the clock used for backup names and mutation timestamps.
	Now func() time.Time
}

// Library is an open connection handle to a record source.
//
// A handle is ready after [Open] and closed after [Library.Close]; every
// operation on a nil or closed handle fails with [shared.ErrNotConnected].
type Library struct {
	src    source.Source
	opts   Options
	logger *log.Logger
	closed atomic.Bool
}

// Open verifies the source is reachable and returns a ready handle.
func Open(ctx context.Context, src source.Source, opts Options) (*Library, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source", shared.ErrNotConnected)
	}
	if err := src.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotConnected, err)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Library{src: src, opts: opts, logger: shared.WithLogger(opts.Logger, "component", "library")}
	l.logger.Info("library opened", "path", src.Path())
	return l, nil
}

// Close releases the source. Closing twice is a no-op.
func (l *Library) Close() error {
	if l == nil || !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.logger.Debug("library closed", "path", l.src.Path())
	return l.src.Close()
}

// Path returns the location of the underlying source.
func (l *Library) Path() string {
	if l == nil || l.src == nil {
		return ""
	}
	return l.src.Path()
}

func (l *Library) ready() error {
	if l == nil || l.src == nil || l.closed.Load() {
		return shared.ErrNotConnected
	}
	return nil
}

func (l *Library) tracks(ctx context.Context) ([]models.Track, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	recs, err := l.src.Content(ctx)
	if err != nil {
		l.logger.Error("failed to read content", "err", err)
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return LiveTracks(recs), nil
}

func (l *Library) playlistRecords(ctx context.Context) ([]models.Record, error) {
	recs, err := l.src.Playlists(ctx)
	if err != nil {
		l.logger.Error("failed to read playlists", "err", err)
		return nil, fmt.Errorf("failed to read playlists: %w", err)
	}
	return LiveOnly(recs), nil
}

// SearchTracks returns live tracks matching every set option, up to the effective limit.
func (l *Library) SearchTracks(ctx context.Context, opts models.SearchOptions) ([]models.Track, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return Search(tracks, opts), nil
}

// GetTrack returns the live track with the given id or [shared.ErrTrackNotFound].
func (l *Library) GetTrack(ctx context.Context, id string) (*models.Track, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := FindTrack(tracks, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return &t, nil
}

// GetTracksByKey returns live tracks in the given musical key.
func (l *Library) GetTracksByKey(ctx context.Context, key string) ([]models.Track, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return ByKey(tracks, key), nil
}

// GetTracksByBPMRange returns live tracks with lo <= bpm <= hi.
func (l *Library) GetTracksByBPMRange(ctx context.Context, lo, hi float64) ([]models.Track, error) {
	if lo > hi {
		return nil, fmt.Errorf("%w: bpm range %.2f > %.2f", shared.ErrInvalidArgument, lo, hi)
	}
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return ByBPMRange(tracks, lo, hi), nil
}

// MostPlayed returns up to limit live tracks by descending play count.
func (l *Library) MostPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return MostPlayed(tracks, limit), nil
}

// TopRated returns up to limit live tracks by descending rating and play count.
func (l *Library) TopRated(ctx context.Context, limit int) ([]models.Track, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return TopRated(tracks, limit), nil
}

// Unplayed returns up to limit live tracks that have never been played.
func (l *Library) Unplayed(ctx context.Context, limit int) ([]models.Track, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return Unplayed(tracks, limit), nil
}

// SearchByFilename returns live tracks whose file path contains name.
func (l *Library) SearchByFilename(ctx context.Context, name string) ([]models.Track, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return SearchFilename(tracks, name), nil
}

// TrackFilePath returns the file location of a live track.
func (l *Library) TrackFilePath(ctx context.Context, id string) (*models.FileLocation, error) {
	t, err := l.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	loc := Locate(*t)
	return &loc, nil
}

// GetPlaylists returns every live playlist with its live membership count.
func (l *Library) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	recs, err := l.playlistRecords(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := l.src.PlaylistSongs(ctx, "")
	if err != nil {
		l.logger.Error("failed to read playlist songs", "err", err)
		return nil, fmt.Errorf("failed to read playlist songs: %w", err)
	}

	counts := CountMemberships(rows)
	playlists := make([]models.Playlist, 0, len(recs))
	for _, rec := range recs {
		playlists = append(playlists, NormalizePlaylist(rec, counts[idField(rec, fieldID)]))
	}
	return playlists, nil
}

// GetPlaylist returns one live playlist or [shared.ErrPlaylistNotFound].
func (l *Library) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	want, ok := CanonicalID(id)
	if !ok {
		if err := l.ready(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	playlists, err := l.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range playlists {
		if p.ID == want {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
}

// GetPlaylistTracks returns the live tracks of a playlist in membership order.
//
// Membership rows pointing at missing or deleted tracks are skipped.
func (l *Library) GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	if _, err := l.GetPlaylist(ctx, id); err != nil {
		return nil, err
	}
	want, _ := CanonicalID(id)
	rows, err := l.src.PlaylistSongs(ctx, want)
	if err != nil {
		l.logger.Error("failed to read playlist songs", "playlist", want, "err", err)
		return nil, fmt.Errorf("failed to read playlist songs: %w", err)
	}
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return OrderTracks(MembershipsOf(rows, want), tracks), nil
}

// PlaylistTree returns live playlists arranged by folder.
func (l *Library) PlaylistTree(ctx context.Context) ([]*models.PlaylistNode, error) {
	playlists, err := l.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(playlists), nil
}

// AnalyzeLibrary groups live tracks and ranks the groups; see [Analyze].
func (l *Library) AnalyzeLibrary(ctx context.Context, groupBy, aggregateBy string, topN int) (*models.Analysis, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if _, err := Analyze(nil, groupBy, aggregateBy, topN); err != nil {
		return nil, err
	}
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	return Analyze(tracks, groupBy, aggregateBy, topN)
}

// ValidateTrackIDs partitions ids into live and unknown track ids.
func (l *Library) ValidateTrackIDs(ctx context.Context, ids []string) (*models.ValidationResult, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	res := ValidateIDs(tracks, ids)
	return &res, nil
}

// LibraryStats summarizes the live library.
func (l *Library) LibraryStats(ctx context.Context) (*models.LibraryStats, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return nil, err
	}
	playlists, err := l.playlistRecords(ctx)
	if err != nil {
		return nil, err
	}

	stats := Stats(tracks)
	stats.TotalPlaylists = len(playlists)
	stats.DatabasePath = l.src.Path()
	stats.ConnectionStatus = string(models.StateConnected)
	return &stats, nil
}

// TrackCount returns the number of live tracks.
func (l *Library) TrackCount(ctx context.Context) (int, error) {
	tracks, err := l.tracks(ctx)
	if err != nil {
		return 0, err
	}
	return len(tracks), nil
}

// Status reports the connection state of the handle. It never fails.
func (l *Library) Status(ctx context.Context) models.ConnectionStatus {
	if err := l.ready(); err != nil {
		return models.ConnectionStatus{State: models.StateNotConnected, Message: "library is not connected"}
	}
	if err := l.src.Ping(ctx); err != nil {
		l.logger.Warn("connection lost", "path", l.src.Path(), "err", err)
		return models.ConnectionStatus{
			State:        models.StateConnectionLost,
			DatabasePath: l.src.Path(),
			Message:      err.Error(),
		}
	}
	count, err := l.TrackCount(ctx)
	if err != nil {
		return models.ConnectionStatus{
			State:        models.StateConnectionLost,
			DatabasePath: l.src.Path(),
			Message:      err.Error(),
		}
	}
	return models.ConnectionStatus{
		State:        models.StateConnected,
		DatabasePath: l.src.Path(),
		TotalTracks:  count,
		Message:      fmt.Sprintf("connected, %d tracks", count),
	}
}
