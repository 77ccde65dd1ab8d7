package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/server"
)

// Serve exposes the library tools over HTTP until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("serving library tools", "addr", cfg.Addr(), "library", lib.Path())
	return server.Serve(ctx, cfg.Addr(), server.New(lib, cfg, r.logger), r.logger)
}
