package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/rbx/internal/formatter"
	"github.com/desertthunder/rbx/internal/models"
)

const (
	defaultWorkers = 4
	maxWorkers     = 10
)

// Export formats accepted by [ExportEngine.BulkExport].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatM3U      = "m3u"
)

// Formats lists every export format.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText, FormatM3U}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format, one of [Formats] (default: json)
	OutputDir  string  // Base output directory (default: rekordbox_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 4, max: 10)
	RateLimit  float64 // Playlist reads per second; non-positive means unlimited
}

type exportJob struct {
	index  int
	export *models.PlaylistExport
}

type indexedResult struct {
	index int
	res   models.PlaylistExportResult
}

// BulkExport exports playlists concurrently and writes a manifest. With no ids, every exportable playlist is exported.
//
// A producer reads playlists through the limiter and feeds a bounded pool of writers.
// Failures are recorded per playlist; results keep the order of ids.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*models.BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if !slices.Contains(Formats, opts.Format) {
		return nil, fmt.Errorf("unsupported export format %q", opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("rekordbox_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, maxWorkers)

	e.sendProgress(prog, fetchingPlaylistsUpdate(1, 1))
	if len(ids) == 0 {
		all, err := e.ExportableIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}
		ids = all
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &models.BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]models.PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	jobs := make(chan exportJob, len(ids))
	results := make(chan indexedResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			export, err := e.Export(ctx, id)
			if err != nil {
				results <- indexedResult{index: i, res: models.PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        fmt.Errorf("failed to read playlist: %w", err),
				}}
				continue
			}

			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), export.Playlist.Name))
			jobs <- exportJob{index: i, export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]indexedResult, 0, len(ids))
	completed := 0
	for r := range results {
		completed++
		collected = append(collected, r)

		if r.res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), r.res.PlaylistName, len(r.res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", r.res.PlaylistID, "err", r.res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), r.res.PlaylistName, r.res.Error))
		}
	}

	slices.SortFunc(collected, func(a, b indexedResult) int { return cmp.Compare(a.index, b.index) })
	for _, r := range collected {
		result.Results = append(result.Results, r.res)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled after %d of %d playlists: %w", completed, len(ids), err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))
	e.logger.Info("bulk export finished",
		"dir", opts.OutputDir, "format", opts.Format,
		"ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// exportWorker writes playlists from the jobs channel until it closes.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- indexedResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- indexedResult{index: job.index, res: writePlaylist(job.export, opts)}
	}
}

// writePlaylist writes a single playlist in the requested format.
func writePlaylist(export *models.PlaylistExport, opts BulkExportOpts) models.PlaylistExportResult {
	result := models.PlaylistExportResult{
		PlaylistID:   export.Playlist.ID,
		PlaylistName: export.Playlist.Name,
		Files:        []string{},
	}
	base := filepath.Join(opts.OutputDir, export.Playlist.ID)

	var err error
	switch opts.Format {
	case FormatCSV:
		var res *formatter.CSVExportResult
		if res, err = formatter.WriteCSVExport(export, base); err == nil {
			result.Files = []string{res.TracksFile, res.MetadataFile}
		}
	case FormatMarkdown:
		var res *formatter.MarkdownExportResult
		if res, err = formatter.WriteMarkdownExport(export, base); err == nil {
			result.Files = res.Files
		}
	case FormatText:
		var path string
		if path, err = formatter.WriteTextExport(export, base+"_tracks.txt"); err == nil {
			result.Files = []string{path}
		}
	case FormatM3U:
		var path string
		if path, err = formatter.WriteM3UExport(export, base+".m3u8"); err == nil {
			result.Files = []string{path}
		}
	default:
		var path string
		if path, err = formatter.WriteJSONExport(export, base+".json"); err == nil {
			result.Files = []string{path}
		}
	}

	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}
	result.Success = true
	return result
}
