package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/shared"
	"github.com/desertthunder/rbx/internal/tasks"
	"github.com/desertthunder/rbx/internal/ui"
)

// TUI launches the interactive playlist browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	engine := tasks.NewExportEngine(lib, r.logger)
	return ui.Run(ctx, lib, engine, r.exportOpts(cmd))
}
