package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
	"github.com/desertthunder/rbx/internal/source"
	th "github.com/desertthunder/rbx/internal/testing"
)

type response struct {
	Tool      string          `json:"tool"`
	RequestID string          `json:"request_id"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error"`
}

func do(t *testing.T, req *http.Request) (int, response) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, body
}

func callTool(t *testing.T, url, tool, args string) (int, response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/tools/"+tool, strings.NewReader(args))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t, req)
}

func get(t *testing.T, url string) (int, response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	return do(t, req)
}

func decodeResult[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(r.Result, &v); err != nil {
		t.Fatalf("failed to decode result %s: %v", r.Result, err)
	}
	return v
}

func trackIDs(tracks []models.Track) string {
	ids := make([]string, len(tracks))
	for i, tr := range tracks {
		ids[i] = tr.ID
	}
	return strings.Join(ids, ",")
}

func TestToolCatalogue(t *testing.T) {
	lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
	srv := newTestServer(t, lib, shared.ServerConfig{})

	t.Run("lists every tool", func(t *testing.T) {
		code, resp := get(t, srv.URL+"/tools")
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		tools := decodeResult[[]Tool](t, resp)
		if len(tools) != len(Tools()) {
			t.Fatalf("expected %d tools, got %d", len(Tools()), len(tools))
		}
		if tools[0].Name != "search_tracks" {
			t.Errorf("expected search_tracks first, got %s", tools[0].Name)
		}

		mutating := 0
		for _, tool := range tools {
			if tool.Mutates {
				mutating++
			}
		}
		if mutating != 2 {
			t.Errorf("expected 2 mutating tools, got %d", mutating)
		}
	})

	t.Run("tool names are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for _, tool := range Tools() {
			if seen[tool.Name] {
				t.Errorf("duplicate tool %s", tool.Name)
			}
			seen[tool.Name] = true
		}
	})

	t.Run("unknown tool is 404", func(t *testing.T) {
		code, resp := callTool(t, srv.URL, "drop_database", `{}`)
		if code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", code)
		}
		if resp.Tool != "drop_database" || resp.Error == "" {
			t.Errorf("unexpected envelope %+v", resp)
		}
	})

	t.Run("echoes the request id", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/status", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		_, resp := do(t, req)
		if resp.RequestID != "req-42" {
			t.Errorf("expected req-42, got %q", resp.RequestID)
		}
	})
}

func TestReadTools(t *testing.T) {
	lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
	srv := newTestServer(t, lib, shared.ServerConfig{})

	tests := []struct {
		name string
		tool string
		args string
		want string
	}{
		{"search by artist skips deleted tracks", "search_tracks", `{"artist":"deadmau5"}`, "1"},
		{"search with empty body", "search_tracks", ``, "1,2,3,5"},
		{"search with limit", "search_tracks", `{"limit":2}`, "1,2"},
		{"tracks by key", "get_tracks_by_key", `{"key":"8A"}`, "1,5"},
		{"tracks by bpm range", "get_tracks_by_bpm_range", `{"bpm_min":127,"bpm_max":129}`, "1"},
		{"filename search", "search_tracks_by_filename", `{"filename":".wav"}`, "3"},
		{"playlist tracks in order", "get_playlist_tracks", `{"playlist_id":"11"}`, "1,2,5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := callTool(t, srv.URL, tt.tool, tt.args)
			if code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", code, resp.Error)
			}
			if got := trackIDs(decodeResult[[]models.Track](t, resp)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("track details", func(t *testing.T) {
		code, resp := callTool(t, srv.URL, "get_track_details", `{"track_id":"2"}`)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", code, resp.Error)
		}
		track := decodeResult[models.Track](t, resp)
		if track.Artist != "Eric Prydz" || track.BPM != 126 {
			t.Errorf("unexpected track %+v", track)
		}
	})

	t.Run("track file path", func(t *testing.T) {
		_, resp := callTool(t, srv.URL, "get_track_file_path", `{"track_id":"1"}`)
		loc := decodeResult[models.FileLocation](t, resp)
		if loc.FileName != "Strobe.mp3" {
			t.Errorf("expected Strobe.mp3, got %q", loc.FileName)
		}
	})

	t.Run("most played", func(t *testing.T) {
		_, resp := callTool(t, srv.URL, "get_most_played_tracks", `{"limit":1}`)
		if got := trackIDs(decodeResult[[]models.Track](t, resp)); got != "1" {
			t.Errorf("expected 1, got %s", got)
		}
	})

	t.Run("validate ids", func(t *testing.T) {
		_, resp := callTool(t, srv.URL, "validate_track_ids", `{"track_ids":["1","4","x"]}`)
		res := decodeResult[models.ValidationResult](t, resp)
		if res.ValidCount != 1 || res.InvalidCount != 2 {
			t.Errorf("unexpected validation %+v", res)
		}
	})

	t.Run("analyze by genre", func(t *testing.T) {
		_, resp := callTool(t, srv.URL, "analyze_library", `{"group_by":"genre"}`)
		res := decodeResult[models.Analysis](t, resp)
		if res.AggregateBy != "count" || res.TotalGroups == 0 {
			t.Errorf("unexpected analysis %+v", res)
		}
	})

	t.Run("playlists and tree", func(t *testing.T) {
		_, resp := callTool(t, srv.URL, "get_playlists", ``)
		if n := len(decodeResult[[]models.Playlist](t, resp)); n != 4 {
			t.Errorf("expected 4 live playlists, got %d", n)
		}

		_, resp = callTool(t, srv.URL, "get_playlist_tree", ``)
		roots := decodeResult[[]*models.PlaylistNode](t, resp)
		if len(roots) != 2 || len(roots[0].Children) != 2 {
			t.Errorf("expected Sets with 2 children and Empty at the root, got %d roots", len(roots))
		}
	})

	t.Run("stats", func(t *testing.T) {
		_, resp := callTool(t, srv.URL, "get_library_stats", ``)
		stats := decodeResult[models.LibraryStats](t, resp)
		if stats.TotalTracks != 4 || stats.TotalPlaylists != 4 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})
}

func TestEmptyResults(t *testing.T) {
	fixture := newTestServer(t, newTestLibrary(t, source.NewMemory(th.LibraryFixture())), shared.ServerConfig{})
	empty := newTestServer(t, newTestLibrary(t, source.NewMemory(nil, nil, nil)), shared.ServerConfig{})

	tests := []struct {
		name string
		url  string
		tool string
		args string
	}{
		{"search with no match", fixture.URL, "search_tracks", `{"artist":"nobody"}`},
		{"unknown key", fixture.URL, "get_tracks_by_key", `{"key":"12B"}`},
		{"bpm range with no tracks", fixture.URL, "get_tracks_by_bpm_range", `{"bpm_min":200,"bpm_max":210}`},
		{"filename with no match", fixture.URL, "search_tracks_by_filename", `{"filename":"missing.aiff"}`},
		{"playlist with only deleted rows", fixture.URL, "get_playlist_tracks", `{"playlist_id":"14"}`},
		{"most played on an empty library", empty.URL, "get_most_played_tracks", ``},
		{"top rated on an empty library", empty.URL, "get_top_rated_tracks", ``},
		{"unplayed on an empty library", empty.URL, "get_unplayed_tracks", ``},
		{"playlists on an empty library", empty.URL, "get_playlists", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := callTool(t, tt.url, tt.tool, tt.args)
			if code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", code, resp.Error)
			}
			if got := string(resp.Result); got != "[]" {
				t.Errorf("expected an empty array, got %s", got)
			}
		})
	}
}

func TestToolErrors(t *testing.T) {
	lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
	srv := newTestServer(t, lib, shared.ServerConfig{})

	tests := []struct {
		name string
		tool string
		args string
		code int
	}{
		{"deleted track", "get_track_details", `{"track_id":"4"}`, http.StatusNotFound},
		{"missing track id", "get_track_details", `{}`, http.StatusBadRequest},
		{"deleted playlist", "get_playlist_tracks", `{"playlist_id":"13"}`, http.StatusNotFound},
		{"missing bpm bound", "get_tracks_by_bpm_range", `{"bpm_min":120}`, http.StatusBadRequest},
		{"inverted bpm range", "get_tracks_by_bpm_range", `{"bpm_min":130,"bpm_max":120}`, http.StatusBadRequest},
		{"unknown group", "analyze_library", `{"group_by":"mood"}`, http.StatusBadRequest},
		{"unknown argument", "search_tracks", `{"mood":"dark"}`, http.StatusBadRequest},
		{"malformed body", "search_tracks", `{"artist":`, http.StatusBadRequest},
		{"rating out of range", "update_track_rating", `{"track_id":"1","rating":9}`, http.StatusBadRequest},
		{"negative play count", "update_track_play_count", `{"track_id":"1","play_count":-1}`, http.StatusBadRequest},
		{"missing rating", "update_track_rating", `{"track_id":"1"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := callTool(t, srv.URL, tt.tool, tt.args)
			if code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, code, resp.Error)
			}
			if resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestMutationTools(t *testing.T) {
	t.Run("update rating then read it back", func(t *testing.T) {
		lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
		srv := newTestServer(t, lib, shared.ServerConfig{})

		code, resp := callTool(t, srv.URL, "update_track_rating", `{"track_id":"5","rating":4}`)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", code, resp.Error)
		}
		res := decodeResult[models.MutationResult](t, resp)
		if !res.Success || res.AffectedRecords != 1 {
			t.Errorf("unexpected result %+v", res)
		}

		_, resp = callTool(t, srv.URL, "get_track_details", `{"track_id":"5"}`)
		if got := decodeResult[models.Track](t, resp).Rating; got != 4 {
			t.Errorf("expected rating 4, got %d", got)
		}
	})

	t.Run("update play count of a deleted track reports failure", func(t *testing.T) {
		lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
		srv := newTestServer(t, lib, shared.ServerConfig{})

		code, resp := callTool(t, srv.URL, "update_track_play_count", `{"track_id":"4","play_count":3}`)
		if code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", code)
		}
		if res := decodeResult[models.MutationResult](t, resp); res.Success {
			t.Error("expected Success false")
		}
	})

	t.Run("commit failure is a server error", func(t *testing.T) {
		src := source.NewMemory(th.LibraryFixture())
		src.CommitErr = errors.New("disk full")
		srv := newTestServer(t, newTestLibrary(t, src), shared.ServerConfig{})

		code, _ := callTool(t, srv.URL, "update_track_rating", `{"track_id":"1","rating":1}`)
		if code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", code)
		}
	})

	t.Run("read-only source is a conflict", func(t *testing.T) {
		x, err := source.ParseXML(strings.NewReader(th.XMLFixture))
		if err != nil {
			t.Fatalf("failed to parse xml: %v", err)
		}
		srv := newTestServer(t, newTestLibrary(t, x), shared.ServerConfig{})

		code, resp := callTool(t, srv.URL, "update_track_rating", `{"track_id":"1001","rating":2}`)
		if code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", code, resp.Error)
		}
		if res := decodeResult[models.MutationResult](t, resp); res.Success {
			t.Error("expected Success false")
		}
	})
}

func TestStatusAndLimits(t *testing.T) {
	t.Run("status reports connected", func(t *testing.T) {
		lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
		srv := newTestServer(t, lib, shared.ServerConfig{})

		code, resp := get(t, srv.URL+"/status")
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		st := decodeResult[models.ConnectionStatus](t, resp)
		if st.State != models.StateConnected || st.TotalTracks != 4 {
			t.Errorf("unexpected status %+v", st)
		}
	})

	t.Run("closed library is unavailable", func(t *testing.T) {
		lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
		srv := newTestServer(t, lib, shared.ServerConfig{})
		lib.Close()

		code, resp := get(t, srv.URL+"/status")
		if code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", code)
		}
		if st := decodeResult[models.ConnectionStatus](t, resp); st.State != models.StateNotConnected {
			t.Errorf("expected not_connected, got %s", st.State)
		}

		code, _ = callTool(t, srv.URL, "search_tracks", `{}`)
		if code != http.StatusServiceUnavailable {
			t.Errorf("expected 503 from a tool, got %d", code)
		}
	})

	t.Run("rate limit applies across tools", func(t *testing.T) {
		lib := newTestLibrary(t, source.NewMemory(th.LibraryFixture()))
		srv := newTestServer(t, lib, shared.ServerConfig{RateLimit: 1})

		codes := make([]string, 0, 3)
		for range 3 {
			code, _ := get(t, srv.URL+"/status")
			codes = append(codes, fmt.Sprint(code))
		}
		if codes[0] != "200" || codes[2] != "429" {
			t.Errorf("expected 200 then 429, got %v", codes)
		}
	})
}
