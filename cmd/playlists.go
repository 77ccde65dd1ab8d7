package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/models"
)

// ListPlaylists prints every live playlist with its kind and track count.
func (r *Runner) ListPlaylists(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	playlists, err := lib.GetPlaylists(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, playlists, func() error {
		r.writePlainHeader("Playlists")
		r.writePlain("%-8s %-36s %-8s %6s\n", "ID", "NAME", "KIND", "TRACKS")
		for _, p := range playlists {
			r.writePlain("%-8s %-36s %-8s %6d\n", p.ID, clip(p.Name, 36), p.Kind(), p.TrackCount)
		}
		return r.writePlain("\nTotal: %d\n", len(playlists))
	})
}

// PlaylistTracks prints a playlist's tracks in playlist order.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	playlist, err := lib.GetPlaylist(ctx, id)
	if err != nil {
		return err
	}
	tracks, err := lib.GetPlaylistTracks(ctx, id)
	if err != nil {
		return err
	}

	return r.emit(cmd, tracks, func() error {
		if playlist.SmartCriteria != nil {
			r.writePlain("Criteria: %s\n", *playlist.SmartCriteria)
		}
		return r.writeTracks(playlist.Name, tracks)
	})
}

// PlaylistTree prints the folder hierarchy.
func (r *Runner) PlaylistTree(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library(ctx)
	if err != nil {
		return err
	}

	tree, err := lib.PlaylistTree(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, tree, func() error {
		r.writePlainHeader("Playlist tree")
		r.writeTree(tree, 0)
		return nil
	})
}

func (r *Runner) writeTree(nodes []*models.PlaylistNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch {
		case n.IsFolder:
			r.writePlain("%s▸ %s/\n", indent, n.Name)
		case n.IsSmartPlaylist:
			r.writePlain("%s• %s [smart] (%d)\n", indent, n.Name, n.TrackCount)
		default:
			r.writePlain("%s• %s (%d)\n", indent, n.Name, n.TrackCount)
		}
		r.writeTree(n.Children, depth+1)
	}
}
