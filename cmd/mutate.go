package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/models"
)

type mutation func(ctx context.Context, id string, value int) (*models.MutationResult, error)

func (r *Runner) mutate(ctx context.Context, cmd *cli.Command, pick func(lib mutators) mutation) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	value, err := intArg(cmd, "value")
	if err != nil {
		return err
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	result, err := pick(lib)(ctx, id, value)
	if err != nil {
		return err
	}

	return r.emit(cmd, result, func() error {
		r.writePlain("✓ %s\n", result.Message)
		if result.BackupCreated {
			r.writePlain("Backup: %s\n", result.BackupPath)
		}
		return nil
	})
}

type mutators interface {
	UpdateRating(ctx context.Context, id string, rating int) (*models.MutationResult, error)
	UpdatePlayCount(ctx context.Context, id string, count int) (*models.MutationResult, error)
}

// RateTrack sets a track's star rating.
func (r *Runner) RateTrack(ctx context.Context, cmd *cli.Command) error {
	return r.mutate(ctx, cmd, func(lib mutators) mutation { return lib.UpdateRating })
}

// SetPlayCount sets a track's play count.
func (r *Runner) SetPlayCount(ctx context.Context, cmd *cli.Command) error {
	return r.mutate(ctx, cmd, func(lib mutators) mutation { return lib.UpdatePlayCount })
}
