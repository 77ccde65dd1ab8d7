package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
	th "github.com/desertthunder/rbx/internal/testing"
)

func TestXML(t *testing.T) {
	ctx := context.Background()

	x, err := ParseXML(strings.NewReader(th.XMLFixture))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	t.Run("Content maps track attributes", func(t *testing.T) {
		recs, err := x.Content(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(recs))
		}
		f := recs[1].(models.Fields)
		checks := map[string]any{
			"ID":          "1002",
			"Title":       "Test Track 2",
			"ArtistName":  "Test Artist 2",
			"GenreName":   "Techno",
			"KeyName":     "2B",
			"BPM":         13250,
			"Rating":      5,
			"Length":      300,
			"ReleaseYear": 2022,
			"FolderPath":  "/Users/test/Music/Test Track 2.mp3",
		}
		for field, want := range checks {
			if got := f[field]; got != want {
				t.Errorf("%s: expected %#v, got %#v", field, want, got)
			}
		}
		if got := recs[0].(models.Fields)["Rating"]; got != 4 {
			t.Errorf("expected 204 to map to 4 stars, got %v", got)
		}
	})

	t.Run("Playlists numbers nodes in document order", func(t *testing.T) {
		recs, _ := x.Playlists(ctx)
		if len(recs) != 3 {
			t.Fatalf("expected 3 playlist nodes, got %d", len(recs))
		}
		club := recs[0].(models.Fields)
		peak := recs[1].(models.Fields)
		loc := recs[2].(models.Fields)
		if club["Name"] != "Club" || club["Attribute"] != 1 || club["ParentID"] != "root" {
			t.Errorf("unexpected folder %v", club)
		}
		if peak["Name"] != "Peak" || peak["Attribute"] != 0 || peak["ParentID"] != club["ID"] {
			t.Errorf("unexpected playlist %v", peak)
		}
		if loc["ParentID"] != "root" {
			t.Errorf("unexpected playlist %v", loc)
		}
	})

	t.Run("PlaylistSongs keeps track order and resolves location keys", func(t *testing.T) {
		peak, _ := x.PlaylistSongs(ctx, "2")
		if len(peak) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(peak))
		}
		if first := peak[0].(models.Fields); first["ContentID"] != "1002" || first["TrackNo"] != 1 {
			t.Errorf("unexpected first row %v", first)
		}

		byLocation, _ := x.PlaylistSongs(ctx, "3")
		if len(byLocation) != 1 || byLocation[0].(models.Fields)["ContentID"] != "1001" {
			t.Errorf("unexpected rows %v", byLocation)
		}

		all, _ := x.PlaylistSongs(ctx, "")
		if len(all) != 3 {
			t.Errorf("expected 3 rows, got %d", len(all))
		}
	})

	t.Run("is read-only", func(t *testing.T) {
		if _, err := x.UpdateContent(ctx, "1001", FieldRating, 1); !errors.Is(err, shared.ErrReadOnlySource) {
			t.Errorf("expected ErrReadOnlySource, got %v", err)
		}
		if !x.ReadOnly() {
			t.Error("expected ReadOnly")
		}
	})

	t.Run("rejects malformed documents", func(t *testing.T) {
		if _, err := ParseXML(strings.NewReader("<DJ_PLAYLISTS><COLLECTION>")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("closed source", func(t *testing.T) {
		y, _ := ParseXML(strings.NewReader(th.XMLFixture))
		y.Close()
		if _, err := y.Content(ctx); !errors.Is(err, shared.ErrConnectionLost) {
			t.Errorf("expected ErrConnectionLost, got %v", err)
		}
	})
}

func TestXMLHelpers(t *testing.T) {
	t.Run("xmlRating", func(t *testing.T) {
		tests := map[int]int{0: 0, 3: 3, 51: 1, 102: 2, 153: 3, 204: 4, 255: 5, 300: 5, -1: 0}
		for in, want := range tests {
			if got := xmlRating(in); got != want {
				t.Errorf("xmlRating(%d): expected %d, got %d", in, want, got)
			}
		}
	})

	t.Run("locationPath", func(t *testing.T) {
		tests := map[string]string{
			"file://localhost/Users/a/My%20Song.mp3": "/Users/a/My Song.mp3",
			"file://localhost/C:/Music/x.mp3":        "C:/Music/x.mp3",
			"/plain/path.mp3":                        "/plain/path.mp3",
			"":                                       "",
		}
		for in, want := range tests {
			if got := locationPath(in); got != want {
				t.Errorf("locationPath(%q): expected %q, got %q", in, want, got)
			}
		}
	})
}
