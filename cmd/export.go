package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/tasks"
)

func (r *Runner) exportOpts(cmd *cli.Command) tasks.BulkExportOpts {
	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: r.config.Export.Workers,
		RateLimit:  r.config.Export.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	return opts
}

// Export writes the given playlists, or every exportable playlist, in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	engine := tasks.NewExportEngine(lib, r.logger)
	quiet := cmd.Bool("quiet")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.FetchPlaylists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportPlaylist:
				r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.WriteManifest:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	result, err := engine.BulkExport(ctx, progressCh, cmd.Args().Slice(), r.exportOpts(cmd))
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("Exported %s of %s to %s",
		humanize.Comma(int64(result.SuccessfulExports)), humanize.Comma(int64(result.TotalPlaylists)),
		result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %v\n", res.PlaylistName, res.Error)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		return fmt.Errorf("%d of %d playlists failed to export", result.FailedExports, result.TotalPlaylists)
	}
	return nil
}
