package library

import (
	"testing"

	"github.com/desertthunder/rbx/internal/models"
)

func ptr[T any](v T) *T { return &v }

func ids(tracks []models.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func searchTracks() []models.Track {
	return []models.Track{
		{ID: "1", Title: "Strobe", Artist: "deadmau5", Album: "For Lack", Genre: "Progressive House", Key: "8A", BPM: 128, Rating: 5, PlayCount: 42},
		{ID: "2", Title: "Opus", Artist: "Eric Prydz", Genre: "Techno", Key: "5A", BPM: 126, Rating: 4, PlayCount: 17},
		{ID: "3", Title: "Windowlicker", Artist: "Aphex Twin", Genre: "IDM", Key: "3A", BPM: 119.99},
		{ID: "5", Title: "Gecko", Artist: "Oliver Heldens", Genre: "House", Key: "8A", BPM: 125, Rating: 3},
		{ID: "6", Title: "Ghosts 'n' Stuff", Artist: "deadmau5", Genre: "Electro House", Key: "8A", BPM: 128.01, Rating: 4, PlayCount: 8},
	}
}

func TestSearch(t *testing.T) {
	tracks := searchTracks()

	tests := []struct {
		name string
		opts models.SearchOptions
		want []string
	}{
		{"no options returns all in encounter order", models.SearchOptions{}, []string{"1", "2", "3", "5", "6"}},
		{"query matches title", models.SearchOptions{Query: "opus"}, []string{"2"}},
		{"query matches artist", models.SearchOptions{Query: "DEADMAU5"}, []string{"1", "6"}},
		{"query matches genre", models.SearchOptions{Query: "house"}, []string{"1", "5", "6"}},
		{"artist substring", models.SearchOptions{Artist: "prydz"}, []string{"2"}},
		{"title substring", models.SearchOptions{Title: "WINDOW"}, []string{"3"}},
		{"album substring", models.SearchOptions{Album: "lack"}, []string{"1"}},
		{"genre substring", models.SearchOptions{Genre: "House"}, []string{"1", "5", "6"}},
		{"key is exact", models.SearchOptions{Key: "8A"}, []string{"1", "5", "6"}},
		{"key is not a substring match", models.SearchOptions{Key: "8"}, []string{}},
		{"bpm bounds are inclusive", models.SearchOptions{BPMMin: ptr(120.0), BPMMax: ptr(128.0)}, []string{"1", "2", "5"}},
		{"rating min", models.SearchOptions{RatingMin: ptr(4)}, []string{"1", "2", "6"}},
		{"rating max", models.SearchOptions{RatingMax: ptr(3)}, []string{"3", "5"}},
		{"play count range", models.SearchOptions{PlayCountMin: ptr(1), PlayCountMax: ptr(20)}, []string{"2", "6"}},
		{"predicates conjoin", models.SearchOptions{Query: "house", Key: "8A", RatingMin: ptr(4)}, []string{"1", "6"}},
		{"limit truncates after filtering", models.SearchOptions{Key: "8A", Limit: 2}, []string{"1", "5"}},
		{"no match", models.SearchOptions{Artist: "nobody"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Search(tracks, tt.opts))
			if !equalIDs(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("default limit", func(t *testing.T) {
		many := make([]models.Track, 80)
		for i := range many {
			many[i] = models.Track{ID: string(rune('a' + i%26))}
		}
		if got := len(Search(many, models.SearchOptions{})); got != models.DefaultSearchLimit {
			t.Errorf("expected %d results, got %d", models.DefaultSearchLimit, got)
		}
	})

	t.Run("bpm range excludes 119.99 and includes 128.0", func(t *testing.T) {
		opts := models.SearchOptions{BPMMin: ptr(120.0), BPMMax: ptr(128.0)}
		if Matches(models.Track{BPM: 119.99}, opts) {
			t.Error("expected 119.99 to be excluded")
		}
		if !Matches(models.Track{BPM: 128.0}, opts) {
			t.Error("expected 128.0 to be included")
		}
	})

	t.Run("evaluation order does not change results", func(t *testing.T) {
		opts := models.SearchOptions{Genre: "house", Key: "8A"}
		a := ids(Search(tracks, opts))
		b := ids(Search(tracks, models.SearchOptions{Key: "8A", Genre: "house"}))
		if !equalIDs(a, b) {
			t.Errorf("expected equal results, got %v and %v", a, b)
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		before := ids(tracks)
		Search(tracks, models.SearchOptions{Limit: 1})
		if !equalIDs(before, ids(tracks)) {
			t.Error("input slice was modified")
		}
	})
}
