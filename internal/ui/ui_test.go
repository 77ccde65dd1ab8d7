package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rbx/internal/library"
	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/source"
	"github.com/desertthunder/rbx/internal/tasks"
	th "github.com/desertthunder/rbx/internal/testing"
)

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func newTestModel(t *testing.T, opts tasks.BulkExportOpts) *Model {
	t.Helper()
	ctx := context.Background()
	lib, err := library.Open(ctx, source.NewMemory(th.LibraryFixture()), library.Options{})
	if err != nil {
		t.Fatalf("failed to open library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })

	m := NewModel(ctx, lib, tasks.NewExportEngine(lib, nil), opts)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(m.Init()())
	return m
}

// send applies msg and runs the returned command chain until it settles.
func send(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	for cmd != nil {
		next := cmd()
		if next == nil {
			return
		}
		if _, ok := next.(Msg); !ok {
			return
		}
		_, cmd = m.Update(next)
	}
}

func selectByName(t *testing.T, m *Model, name string) {
	t.Helper()
	for i, item := range m.playlistList.Items() {
		if item.(playlistItem).node.Name == name {
			m.playlistList.Select(i)
			return
		}
	}
	t.Fatalf("playlist %q not listed", name)
}

func TestModelNavigation(t *testing.T) {
	t.Run("lists root playlists", func(t *testing.T) {
		m := newTestModel(t, tasks.BulkExportOpts{})
		if m.view != PlaylistListView {
			t.Fatalf("expected playlist view, got %d", m.view)
		}
		items := m.playlistList.Items()
		if len(items) != 2 {
			t.Fatalf("expected Sets and Empty at the root, got %d items", len(items))
		}
		if got := items[0].(playlistItem).Title(); got != "▸ Sets" {
			t.Errorf("expected folder marker, got %q", got)
		}
	})

	t.Run("enters and leaves folders", func(t *testing.T) {
		m := newTestModel(t, tasks.BulkExportOpts{})
		selectByName(t, m, "Sets")
		send(m, enterKey)

		if m.Breadcrumb() != "Sets" {
			t.Errorf("expected breadcrumb Sets, got %q", m.Breadcrumb())
		}
		if n := len(m.playlistList.Items()); n != 2 {
			t.Errorf("expected 2 children, got %d", n)
		}

		send(m, escKey)
		if m.Breadcrumb() != "" || len(m.playlistList.Items()) != 2 {
			t.Errorf("expected to be back at the root")
		}
		if m.playlistList.SelectedItem().(playlistItem).node.Name != "Sets" {
			t.Error("expected cursor restored on Sets")
		}
	})

	t.Run("opens a playlist", func(t *testing.T) {
		m := newTestModel(t, tasks.BulkExportOpts{})
		selectByName(t, m, "Sets")
		send(m, enterKey)
		selectByName(t, m, "Warmup")
		send(m, enterKey)

		if m.view != TrackListView {
			t.Fatalf("expected track view, got %d", m.view)
		}
		var titles []string
		for _, item := range m.trackList.Items() {
			titles = append(titles, item.(trackItem).Title())
		}
		if strings.Join(titles, ",") != "Strobe,Opus,Gecko" {
			t.Errorf("unexpected tracks %v", titles)
		}

		send(m, escKey)
		if m.view != PlaylistListView || m.Breadcrumb() != "Sets" {
			t.Errorf("expected to return to the Sets folder")
		}
	})

	t.Run("fetch error is shown", func(t *testing.T) {
		m := NewModel(context.Background(), nil, nil, tasks.BulkExportOpts{})
		m.Update(treeFetchedMsg(nil, errors.New("database locked")))
		if !strings.Contains(m.View(), "database locked") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})

	t.Run("q quits", func(t *testing.T) {
		m := newTestModel(t, tasks.BulkExportOpts{})
		_, cmd := m.Update(runeKey("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestModelExport(t *testing.T) {
	open := func(t *testing.T, opts tasks.BulkExportOpts) *Model {
		m := newTestModel(t, opts)
		selectByName(t, m, "Sets")
		send(m, enterKey)
		selectByName(t, m, "Warmup")
		send(m, enterKey)
		return m
	}

	t.Run("declining returns to tracks", func(t *testing.T) {
		m := open(t, tasks.BulkExportOpts{OutputDir: t.TempDir()})
		send(m, runeKey("e"))
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "Export 'Warmup'?") {
			t.Errorf("unexpected confirm view %q", m.View())
		}
		send(m, runeKey("n"))
		if m.view != TrackListView {
			t.Errorf("expected track view, got %d", m.view)
		}
	})

	t.Run("confirming exports the playlist", func(t *testing.T) {
		dir := t.TempDir()
		m := open(t, tasks.BulkExportOpts{Format: tasks.FormatCSV, OutputDir: dir})
		send(m, runeKey("e"))
		send(m, runeKey("y"))

		if m.view != ResultView {
			t.Fatalf("expected result view, got %d", m.view)
		}
		if m.err != nil {
			t.Fatalf("unexpected export error: %v", m.err)
		}
		if m.result == nil || m.result.SuccessfulExports != 1 {
			t.Fatalf("unexpected result %+v", m.result)
		}
		for _, f := range m.result.Results[0].Files {
			th.AssertFileExists(t, f)
		}
		if !strings.Contains(m.View(), "Export Complete") {
			t.Errorf("unexpected result view %q", m.View())
		}

		send(m, runeKey("r"))
		if m.view != PlaylistListView || m.result != nil {
			t.Error("expected to return to browsing")
		}
	})
}

func TestItems(t *testing.T) {
	t.Run("playlist descriptions", func(t *testing.T) {
		tests := []struct {
			node models.PlaylistNode
			want string
		}{
			{models.PlaylistNode{Playlist: models.Playlist{IsFolder: true}, Children: []*models.PlaylistNode{{}, {}}}, "folder • 2 items"},
			{models.PlaylistNode{Playlist: models.Playlist{IsSmartPlaylist: true, TrackCount: 4}}, "smart • 4 tracks"},
			{models.PlaylistNode{Playlist: models.Playlist{TrackCount: 3}}, "3 tracks"},
		}
		for _, tt := range tests {
			if got := (playlistItem{node: &tt.node}).Description(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		}
	})

	t.Run("track description skips unknown values", func(t *testing.T) {
		full := trackItem{track: models.Track{Artist: "deadmau5", Length: 637, BPM: 128, Key: "8A", Rating: 3}}
		if got := full.Description(); got != "deadmau5 • 10:37 • 128.00 BPM • 8A • ★★★" {
			t.Errorf("unexpected description %q", got)
		}
		bare := trackItem{track: models.Track{Artist: "Aphex Twin", Length: 366}}
		if got := bare.Description(); got != "Aphex Twin • 6:06" {
			t.Errorf("unexpected description %q", got)
		}
	})
}
