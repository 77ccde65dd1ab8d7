package source

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
	th "github.com/desertthunder/rbx/internal/testing"
)

func byID(recs []models.Record) map[string]models.Fields {
	out := make(map[string]models.Fields, len(recs))
	for _, r := range recs {
		f := r.(models.Fields)
		out[asString(f["ID"])] = f
	}
	return out
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("Content returns every row with joined entities", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		defer src.Close()

		recs, err := src.Content(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 5 {
			t.Fatalf("expected 5 rows including deleted, got %d", len(recs))
		}
		rows := byID(recs)

		artist, ok := rows["2"]["Artist"].(models.Entity)
		if !ok || artist.Name != "Eric Prydz" || artist.ID != "2" {
			t.Errorf("expected joined artist entity, got %#v", rows["2"]["Artist"])
		}
		if key, ok := rows["1"]["Key"].(models.Entity); !ok || key.Name != "8A" {
			t.Errorf("expected key entity from ScaleName, got %#v", rows["1"]["Key"])
		}
		if got := rows["3"]["Artist"]; got != "7" {
			t.Errorf("expected dangling artist id as raw text, got %#v", got)
		}
		if _, ok := rows["2"]["Album"]; ok {
			t.Error("expected NULL album to be absent")
		}
		if _, ok := rows["3"]["BPM"]; ok {
			t.Error("expected NULL bpm to be absent")
		}
		if _, ok := rows["1"]["ar_ID"]; ok {
			t.Error("join columns should be removed")
		}
	})

	t.Run("Playlists in sequence order", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		defer src.Close()

		recs, err := src.Playlists(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []string
		for _, r := range recs {
			got = append(got, asString(r.(models.Fields)["ID"]))
		}
		want := []string{"10", "11", "12", "13", "14"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("expected %v, got %v", want, got)
				break
			}
		}
		if smart := byID(recs)["12"]["SmartList"]; smart != th.RecentCriteria {
			t.Errorf("unexpected smart list %#v", smart)
		}
	})

	t.Run("PlaylistSongs filters by playlist", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		defer src.Close()

		all, err := src.PlaylistSongs(ctx, "")
		if err != nil || len(all) != 6 {
			t.Fatalf("expected 6 rows, got %d (%v)", len(all), err)
		}
		some, err := src.PlaylistSongs(ctx, "11")
		if err != nil || len(some) != 5 {
			t.Fatalf("expected 5 rows, got %d (%v)", len(some), err)
		}
		none, _ := src.PlaylistSongs(ctx, "999")
		if len(none) != 0 {
			t.Errorf("expected no rows, got %d", len(none))
		}
	})

	t.Run("UpdateContent writes and bumps the update counter", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		defer src.Close()

		n, err := src.UpdateContent(ctx, "1", FieldRating, 2)
		if err != nil || n != 1 {
			t.Fatalf("expected 1 row, got %d (%v)", n, err)
		}
		var rating int
		if err := src.DB().QueryRow("SELECT Rating FROM djmdContent WHERE ID = '1'").Scan(&rating); err != nil {
			t.Fatalf("failed to read rating: %v", err)
		}
		if rating != 2 {
			t.Errorf("expected rating 2, got %d", rating)
		}
		if count, _ := src.UpdateCount(ctx); count != 1 {
			t.Errorf("expected update counter 1, got %d", count)
		}
	})

	t.Run("UpdateContent skips deleted and unknown rows", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		defer src.Close()

		for _, id := range []string{"4", "999"} {
			if _, err := src.UpdateContent(ctx, id, FieldPlayCount, 1); !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("%s: expected ErrTrackNotFound, got %v", id, err)
			}
		}
		if count, _ := src.UpdateCount(ctx); count != 0 {
			t.Errorf("expected untouched update counter, got %d", count)
		}
	})

	t.Run("UpdateContent rejects other columns", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		defer src.Close()

		if _, err := src.UpdateContent(ctx, "1", "Title", 1); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("UpdateContent rolls back when the commit cannot complete", func(t *testing.T) {
		db := th.NewLibraryDB(t)
		src := NewSQLite(db, ":memory:")
		defer src.Close()

		if _, err := db.Exec("DROP TABLE agentRegistry"); err != nil {
			t.Fatalf("failed to drop table: %v", err)
		}
		if _, err := src.UpdateContent(ctx, "1", FieldRating, 1); err == nil {
			t.Fatal("expected error")
		}
		var rating int
		if err := db.QueryRow("SELECT Rating FROM djmdContent WHERE ID = '1'").Scan(&rating); err != nil {
			t.Fatalf("failed to read rating: %v", err)
		}
		if rating != 5 {
			t.Errorf("expected rating rolled back to 5, got %d", rating)
		}
	})

	t.Run("Ping after close", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		src.Close()
		if err := src.Ping(ctx); !errors.Is(err, shared.ErrConnectionLost) {
			t.Errorf("expected ErrConnectionLost, got %v", err)
		}
	})

	t.Run("Backup", func(t *testing.T) {
		src := NewSQLite(th.NewLibraryDB(t), ":memory:")
		defer src.Close()

		dst := filepath.Join(t.TempDir(), "copy.db")
		if err := src.Backup(ctx, dst); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		copied, err := OpenSQLite(dst)
		if err != nil {
			t.Fatalf("failed to open copy: %v", err)
		}
		defer copied.Close()
		recs, _ := copied.Content(ctx)
		if len(recs) != 5 {
			t.Errorf("expected 5 rows in copy, got %d", len(recs))
		}
	})
}

func TestOpen(t *testing.T) {
	t.Run("missing sqlite file", func(t *testing.T) {
		_, err := Open(KindSQLite, filepath.Join(t.TempDir(), "master.db"))
		if !errors.Is(err, shared.ErrLibraryPath) {
			t.Errorf("expected ErrLibraryPath, got %v", err)
		}
	})

	t.Run("infers xml from extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rekordbox.xml")
		th.MustWriteFile(t, path, th.XMLFixture)

		src, err := Open("", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer src.Close()
		if _, ok := src.(*XML); !ok {
			t.Errorf("expected *XML, got %T", src)
		}
		if src.Path() != path {
			t.Errorf("expected path %s, got %s", path, src.Path())
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := Open("itunes", "lib.xml"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
