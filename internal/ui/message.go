package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTreeFetched MsgKind = iota
	MsgTracksFetched
	MsgProgressUpdate
	MsgExportComplete
)

type treeFetched struct {
	roots []*models.PlaylistNode
	err   error
}

type tracksFetched struct {
	node   *models.PlaylistNode
	tracks []models.Track
	err    error
}

type exportComplete struct {
	result *models.BulkExportResult
	err    error
}

// treeFetchedMsg is the constructor for [MsgTreeFetched]
func treeFetchedMsg(roots []*models.PlaylistNode, err error) Msg {
	return Msg{kind: MsgTreeFetched, data: treeFetched{roots, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(node *models.PlaylistNode, tracks []models.Track, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksFetched{node, tracks, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *models.BulkExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportComplete{result, err}}
}
