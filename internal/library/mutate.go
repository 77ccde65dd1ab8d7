package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
	"github.com/desertthunder/rbx/internal/source"
)

const (
	MinRating = 0
	MaxRating = 5
)

// UpdateRating sets the rating (0-5) of a live track.
//
// The result is non-nil whenever the handle is connected and the arguments are
// valid. A failed update returns a result with Success false alongside the error.
func (l *Library) UpdateRating(ctx context.Context, id string, rating int) (*models.MutationResult, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%w: rating %d not in %d-%d", shared.ErrInvalidArgument, rating, MinRating, MaxRating)
	}
	return l.update(ctx, id, source.FieldRating, rating)
}

// UpdatePlayCount sets the play count of a live track. See [Library.UpdateRating] for result semantics.
func (l *Library) UpdatePlayCount(ctx context.Context, id string, count int) (*models.MutationResult, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: play count %d is negative", shared.ErrInvalidArgument, count)
	}
	return l.update(ctx, id, source.FieldPlayCount, count)
}

// update runs backup, locate, write and commit in that order.
func (l *Library) update(ctx context.Context, id, field string, value int) (*models.MutationResult, error) {
	res := &models.MutationResult{Timestamp: l.opts.Now()}
	res.BackupPath, res.BackupCreated = l.backup(ctx)

	fail := func(err error) (*models.MutationResult, error) {
		res.Success = false
		res.Message = err.Error()
		l.logger.Warn("mutation failed", "track", id, "field", field, "err", err)
		return res, err
	}

	tracks, err := l.tracks(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", shared.ErrMutationFailed, err))
	}
	target, ok := FindTrack(tracks, id)
	if !ok {
		return fail(fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id))
	}

	n, err := l.src.UpdateContent(ctx, target.ID, field, value)
	switch {
	case errors.Is(err, shared.ErrTrackNotFound):
		return fail(err)
	case err != nil:
		return fail(fmt.Errorf("%w: %w", shared.ErrMutationFailed, err))
	case n == 0:
		return fail(fmt.Errorf("%w: no rows written for track %s", shared.ErrMutationFailed, target.ID))
	}

	res.Success = true
	res.AffectedRecords = n
	res.Message = fmt.Sprintf("updated %s of track %s to %d", field, target.ID, value)
	l.logger.Info("track updated", "track", target.ID, "field", field, "value", value, "backup", res.BackupCreated)
	return res, nil
}
