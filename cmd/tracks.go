package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/formatter"
	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func floatArg(cmd *cli.Command, name string) (float64, error) {
	s, err := requireArg(cmd, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> must be a number, got %q", shared.ErrInvalidArgument, name, s)
	}
	return v, nil
}

func intArg(cmd *cli.Command, name string) (int, error) {
	s, err := requireArg(cmd, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> must be an integer, got %q", shared.ErrInvalidArgument, name, s)
	}
	return v, nil
}

// searchOptions builds search predicates from the flags that were set.
func searchOptions(cmd *cli.Command) models.SearchOptions {
	opts := models.SearchOptions{
		Query:  cmd.String("query"),
		Artist: cmd.String("artist"),
		Title:  cmd.String("title"),
		Album:  cmd.String("album"),
		Genre:  cmd.String("genre"),
		Key:    cmd.String("key"),
		Limit:  cmd.Int("limit"),
	}

	floatOpt := func(name string) *float64 {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.Float(name)
		return &v
	}
	intOpt := func(name string) *int {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.Int(name)
		return &v
	}

	opts.BPMMin = floatOpt("bpm-min")
	opts.BPMMax = floatOpt("bpm-max")
	opts.RatingMin = intOpt("rating-min")
	opts.RatingMax = intOpt("rating-max")
	opts.PlayCountMin = intOpt("plays-min")
	opts.PlayCountMax = intOpt("plays-max")
	return opts
}

func (r *Runner) writeTracks(title string, tracks []models.Track) error {
	r.writePlainHeader(fmt.Sprintf("%s (%d)", title, len(tracks)))
	if len(tracks) == 0 {
		return r.writePlain("No tracks found\n")
	}

	r.writePlain("%-8s %-32s %-24s %8s %-4s %-5s %s\n", "ID", "TITLE", "ARTIST", "BPM", "KEY", "PLAYS", "TIME")
	for _, t := range tracks {
		r.writePlain("%-8s %-32s %-24s %8s %-4s %-5d %s\n",
			t.ID, clip(t.Title, 32), clip(t.Artist, 24), formatter.FormatBPM(t.BPM),
			orDash(t.Key), t.PlayCount, shared.FormatDuration(t.Length))
	}
	return nil
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// SearchTracks lists tracks matching every given filter.
func (r *Runner) SearchTracks(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tracks, err := lib.SearchTracks(ctx, searchOptions(cmd))
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error { return r.writeTracks("Search results", tracks) })
}

// GetTrack prints every field of one track.
func (r *Runner) GetTrack(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	track, err := lib.GetTrack(ctx, id)
	if err != nil {
		return err
	}

	return r.emit(cmd, track, func() error {
		r.writePlainHeader(track.Title)
		r.writePlain("ID:         %s\n", track.ID)
		r.writePlain("Artist:     %s\n", orDash(track.Artist))
		r.writePlain("Album:      %s\n", orDash(track.Album))
		r.writePlain("Genre:      %s\n", orDash(track.Genre))
		r.writePlain("Key:        %s\n", orDash(track.Key))
		r.writePlain("BPM:        %s\n", formatter.FormatBPM(track.BPM))
		r.writePlain("Rating:     %d\n", track.Rating)
		r.writePlain("Plays:      %d\n", track.PlayCount)
		r.writePlain("Length:     %s\n", shared.FormatDuration(track.Length))
		r.writePlain("Year:       %d\n", track.Year)
		r.writePlain("Added:      %s\n", orDash(track.DateAdded))
		return r.writePlain("File:       %s\n", orDash(track.FilePath))
	})
}

// TracksByKey lists tracks in one musical key.
func (r *Runner) TracksByKey(ctx context.Context, cmd *cli.Command) error {
	key, err := requireArg(cmd, "key")
	if err != nil {
		return err
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tracks, err := lib.GetTracksByKey(ctx, key)
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error { return r.writeTracks("Key "+key, tracks) })
}

// TracksByBPM lists tracks with a known BPM inside [min, max].
func (r *Runner) TracksByBPM(ctx context.Context, cmd *cli.Command) error {
	lo, err := floatArg(cmd, "min")
	if err != nil {
		return err
	}
	hi, err := floatArg(cmd, "max")
	if err != nil {
		return err
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tracks, err := lib.GetTracksByBPMRange(ctx, lo, hi)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("BPM %s-%s", formatter.FormatBPM(lo), formatter.FormatBPM(hi))
	return r.emit(cmd, tracks, func() error { return r.writeTracks(title, tracks) })
}

// MostPlayed lists tracks by descending play count.
func (r *Runner) MostPlayed(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tracks, err := lib.MostPlayed(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error { return r.writeTracks("Most played", tracks) })
}

// TopRated lists rated tracks by descending rating.
func (r *Runner) TopRated(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tracks, err := lib.TopRated(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error { return r.writeTracks("Top rated", tracks) })
}

// Unplayed lists tracks with no plays, newest first.
func (r *Runner) Unplayed(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tracks, err := lib.Unplayed(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error { return r.writeTracks("Unplayed", tracks) })
}

// TracksByFilename finds tracks whose file name contains the argument.
func (r *Runner) TracksByFilename(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tracks, err := lib.SearchByFilename(ctx, name)
	if err != nil {
		return err
	}
	return r.emit(cmd, tracks, func() error { return r.writeTracks("Files matching "+name, tracks) })
}

// TrackPath prints where a track lives on disk.
func (r *Runner) TrackPath(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	loc, err := lib.TrackFilePath(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, loc, func() error { return r.writePlain("%s\n", loc.FilePath) })
}

// ValidateTracks partitions the given IDs into existing and missing tracks.
func (r *Runner) ValidateTracks(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one track id", shared.ErrMissingArgument)
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	result, err := lib.ValidateTrackIDs(ctx, ids)
	if err != nil {
		return err
	}
	return r.emit(cmd, result, func() error {
		r.writePlain("Checked %d: %d valid, %d invalid\n", result.TotalChecked, result.ValidCount, result.InvalidCount)
		if result.InvalidCount > 0 {
			r.writePlain("Invalid: %s\n", strings.Join(result.Invalid, ", "))
		}
		return nil
	})
}
