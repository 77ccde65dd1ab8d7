package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/rbx/internal/formatter"
	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.PlaylistNode] to implement [list.Item].
type playlistItem struct {
	node *models.PlaylistNode
}

func (i playlistItem) FilterValue() string { return i.node.Name }
func (i playlistItem) Title() string {
	if i.node.IsFolder {
		return "▸ " + i.node.Name
	}
	return i.node.Name
}
func (i playlistItem) Description() string {
	switch {
	case i.node.IsFolder:
		return fmt.Sprintf("folder • %d items", len(i.node.Children))
	case i.node.IsSmartPlaylist:
		return fmt.Sprintf("smart • %d tracks", i.node.TrackCount)
	default:
		return fmt.Sprintf("%d tracks", i.node.TrackCount)
	}
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	parts := []string{i.track.Artist, shared.FormatDuration(i.track.Length)}
	if i.track.BPM > 0 {
		parts = append(parts, formatter.FormatBPM(i.track.BPM)+" BPM")
	}
	if i.track.Key != "" {
		parts = append(parts, i.track.Key)
	}
	if i.track.Rating > 0 {
		parts = append(parts, strings.Repeat("★", i.track.Rating))
	}
	return strings.Join(parts, " • ")
}

func playlistItems(nodes []*models.PlaylistNode) []list.Item {
	items := make([]list.Item, len(nodes))
	for i, n := range nodes {
		items[i] = playlistItem{node: n}
	}
	return items
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
