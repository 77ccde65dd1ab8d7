package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/formatter"
)

// AnalyzeLibrary groups tracks by a field and ranks the groups.
func (r *Runner) AnalyzeLibrary(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	analysis, err := lib.AnalyzeLibrary(ctx, cmd.String("group-by"), cmd.String("aggregate-by"), cmd.Int("top"))
	if err != nil {
		return err
	}
	return r.emit(cmd, analysis, func() error { return r.writePlain("%s", formatter.AnalysisReport(analysis)) })
}

// LibraryStats prints totals and distributions of the live library.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	stats, err := lib.LibraryStats(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, stats, func() error { return r.writePlain("%s", formatter.StatsReport(stats)) })
}

// LibraryStatus reports whether the library can be reached.
func (r *Runner) LibraryStatus(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	status := lib.Status(ctx)
	return r.emit(cmd, status, func() error {
		r.writePlain("State:  %s\n", status.State)
		if status.DatabasePath != "" {
			r.writePlain("Path:   %s\n", status.DatabasePath)
		}
		r.writePlain("Tracks: %d\n", status.TotalTracks)
		return r.writePlain("%s\n", status.Message)
	})
}
