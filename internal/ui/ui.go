package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	ExportView
	ResultView
)

// Browser is the part of the library the TUI reads.
type Browser interface {
	PlaylistTree(ctx context.Context) ([]*models.PlaylistNode, error)
	GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	lib          Browser
	engine       *tasks.ExportEngine
	exportOpts   tasks.BulkExportOpts
	width        int
	height       int
	roots        []*models.PlaylistNode
	path         []*models.PlaylistNode // folders entered, outermost first
	cursors      []int                  // list cursor to restore when leaving each folder
	playlistList list.Model
	trackList    list.Model
	selected     *models.PlaylistNode
	tracks       []models.Track
	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	result       *models.BulkExportResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. Exports from the confirm view use opts.
func NewModel(ctx context.Context, lib Browser, engine *tasks.ExportEngine, opts tasks.BulkExportOpts) *Model {
	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		lib:          lib,
		engine:       engine,
		exportOpts:   opts,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by reading the playlist tree.
func (m *Model) Init() tea.Cmd {
	return m.fetchTree()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ExportView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTreeFetched:
		data := msg.data.(treeFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.roots = data.roots
		m.path, m.cursors = nil, nil
		m.showFolder(0)
		return m, nil

	case MsgTracksFetched:
		data := msg.data.(tracksFetched)
		if data.err != nil {
			m.err = data.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selected = data.node
		m.tracks = data.tracks
		m.trackList.SetItems(trackItems(data.tracks))
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", data.node.Name)
		m.trackList.ResetSelected()
		m.view = TrackListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		data := msg.data.(exportComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.progressChan, m.doneChan = nil, nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) resize() {
	w, h := max(0, m.width-4), max(0, m.height-8)
	m.playlistList.SetSize(w, h)
	m.trackList.SetSize(w, h)
}

// current returns the nodes listed at the current folder depth.
func (m *Model) current() []*models.PlaylistNode {
	if len(m.path) == 0 {
		return m.roots
	}
	return m.path[len(m.path)-1].Children
}

func (m *Model) showFolder(cursor int) {
	m.playlistList.SetItems(playlistItems(m.current()))
	m.playlistList.Title = "Playlists"
	if len(m.path) > 0 {
		m.playlistList.Title = m.path[len(m.path)-1].Name
	}
	m.playlistList.Select(cursor)
}

// Breadcrumb returns the entered folder names joined by " / ".
func (m *Model) Breadcrumb() string {
	names := make([]string, len(m.path))
	for i, n := range m.path {
		names[i] = n.Name
	}
	return strings.Join(names, " / ")
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if len(m.path) > 0 {
			cursor := m.cursors[len(m.cursors)-1]
			m.path = m.path[:len(m.path)-1]
			m.cursors = m.cursors[:len(m.cursors)-1]
			m.showFolder(cursor)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		selected, ok := m.playlistList.SelectedItem().(playlistItem)
		if !ok {
			return m, nil
		}
		if selected.node.IsFolder {
			m.cursors = append(m.cursors, m.playlistList.Index())
			m.path = append(m.path, selected.node)
			m.showFolder(0)
			return m, nil
		}
		return m, m.fetchTracks(selected.node)
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.export):
		if m.engine != nil {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = ExportView
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.selected = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchTree() tea.Cmd {
	return func() tea.Msg {
		roots, err := m.lib.PlaylistTree(m.ctx)
		return treeFetchedMsg(roots, err)
	}
}

func (m *Model) fetchTracks(node *models.PlaylistNode) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.lib.GetPlaylistTracks(m.ctx, node.ID)
		return tracksFetchedMsg(node, tracks, err)
	}
}

// startExport runs the export in the background. The completion message is
// queued before the progress channel closes, so the reader always finds it.
func (m *Model) startExport() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan, m.doneChan = progress, done
	m.progress = tasks.ProgressUpdate{}

	id := m.selected.ID
	go func() {
		result, err := m.engine.BulkExport(m.ctx, progress, []string{id}, m.exportOpts)
		if err == nil && result.FailedExports > 0 {
			err = result.Results[0].Error
		}
		done <- exportCompleteMsg(result, err)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) helpView(bindings ...key.Binding) string {
	return m.help.ShortHelpView(bindings)
}

func (m *Model) renderPlaylistList() string {
	var b strings.Builder
	if crumb := m.Breadcrumb(); crumb != "" {
		b.WriteString(styles.crumb.Render(crumb) + "\n")
	}
	b.WriteString(m.playlistList.View())
	b.WriteString("\n\n")
	if len(m.path) > 0 {
		b.WriteString(m.helpView(m.keys.enter, m.keys.back, m.keys.quit))
	} else {
		b.WriteString(m.helpView(m.keys.enter, m.keys.quit))
	}
	return b.String()
}

func (m *Model) renderTrackList() string {
	bindings := []key.Binding{m.keys.back, m.keys.quit}
	if m.engine != nil {
		bindings = append([]key.Binding{m.keys.export}, bindings...)
	}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.helpView(bindings...))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Export '%s'?", m.selected.Name))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nFormat: %s\nDirectory: %s\n",
		m.selected.Name, len(m.tracks), m.exportFormat(), m.exportDir())

	return fmt.Sprintf("%s\n%s\n%s", title, info, m.helpView(m.keys.yes, m.keys.no, m.keys.quit))
}

func (m *Model) exportFormat() string {
	if m.exportOpts.Format == "" {
		return tasks.FormatJSON
	}
	return m.exportOpts.Format
}

func (m *Model) exportDir() string {
	if m.exportOpts.OutputDir == "" {
		return "(new directory)"
	}
	return m.exportOpts.OutputDir
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPlaylists:
		phase = "Reading playlist..."
	case tasks.ExportPlaylist:
		phase = fmt.Sprintf("Writing files (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteManifest:
		phase = "Writing manifest..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil || len(m.result.Results) == 0 {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	res := m.result.Results[0]
	title := styles.ok.Render("✓ Export Complete!")

	var b strings.Builder
	fmt.Fprintf(&b, "\nPlaylist: %s (%d tracks)\nDirectory: %s\n", res.PlaylistName, len(m.tracks), m.result.OutputDirectory)
	if len(res.Files) > 0 {
		b.WriteString(styles.warn.Render("\nFiles:"))
		for _, f := range res.Files {
			fmt.Fprintf(&b, "\n  • %s", f)
		}
		b.WriteString("\n")
	}
	if m.result.ManifestPath != "" {
		b.WriteString(styles.help.Render(fmt.Sprintf("\nManifest: %s", m.result.ManifestPath)))
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, b.String(), m.helpView(m.keys.restart, m.keys.quit))
}

// Run starts the TUI program and blocks until it exits.
func Run(ctx context.Context, lib Browser, engine *tasks.ExportEngine, opts tasks.BulkExportOpts) error {
	p := tea.NewProgram(NewModel(ctx, lib, engine, opts), tea.WithContext(ctx), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	if m, ok := final.(*Model); ok && m.err != nil && m.view != ResultView {
		return m.err
	}
	return nil
}
