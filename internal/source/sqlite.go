package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// reference describes a related-entity join on djmdContent.
type reference struct {
	field  string // record field the entity is exposed as
	column string // foreign key column on djmdContent
	alias  string // column prefix of the joined row
}

var contentReferences = []reference{
	{field: "Artist", column: "ArtistID", alias: "ar_"},
	{field: "Album", column: "AlbumID", alias: "al_"},
	{field: "Genre", column: "GenreID", alias: "ge_"},
	{field: "Key", column: "KeyID", alias: "ke_"},
}

const contentQuery = `
	SELECT c.ID, c.Title, c.ArtistID, c.AlbumID, c.GenreID, c.KeyID,
		c.BPM, c.Rating, c.DJPlayCount, c.Length, c.ReleaseYear, c.FolderPath,
		c.DateCreated, c.StockDate, c.BitRate, c.SampleRate, c.Commnt,
		c.created_at, c.updated_at, c.rb_local_deleted,
		ar.ID AS ar_ID, ar.Name AS ar_Name,
		al.ID AS al_ID, al.Name AS al_Name,
		ge.ID AS ge_ID, ge.Name AS ge_Name,
		ke.ID AS ke_ID, ke.ScaleName AS ke_Name
	FROM djmdContent c
	LEFT JOIN djmdArtist ar ON ar.ID = c.ArtistID
	LEFT JOIN djmdAlbum al ON al.ID = c.AlbumID
	LEFT JOIN djmdGenre ge ON ge.ID = c.GenreID
	LEFT JOIN djmdKey ke ON ke.ID = c.KeyID
	ORDER BY c.rowid
`

const playlistQuery = `
	SELECT ID, Seq, Name, Attribute, ParentID, SmartList, created_at, updated_at, rb_local_deleted
	FROM djmdPlaylist
	ORDER BY Seq, rowid
`

const songsQuery = `
	SELECT ID, PlaylistID, ContentID, TrackNo, created_at, updated_at, rb_local_deleted
	FROM djmdSongPlaylist
`

// SQLite is a [Source] over a rekordbox-shaped SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the database at path. The schema must already exist, see [shared.RunMigrations].
func OpenSQLite(path string) (*SQLite, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	return NewSQLite(db, path), nil
}

// NewSQLite wraps an open database handle.
func NewSQLite(db *sql.DB, path string) *SQLite {
	return &SQLite{db: db, path: path}
}

// DB exposes the underlying handle.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Content(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, contentQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content: %w", err)
	}
	for _, rec := range recs {
		attachReferences(rec.(models.Fields))
	}
	return recs, nil
}

// attachReferences replaces the joined columns of each reference with a [models.Entity].
// A dangling foreign key is exposed as its raw id.
func attachReferences(f models.Fields) {
	for _, ref := range contentReferences {
		id, joined := f[ref.alias+"ID"]
		name := f[ref.alias+"Name"]
		delete(f, ref.alias+"ID")
		delete(f, ref.alias+"Name")

		switch {
		case joined:
			e := models.Entity{ID: fmt.Sprint(id)}
			if name != nil {
				e.Name = asString(name)
			}
			f[ref.field] = e
		case f[ref.column] != nil:
			f[ref.field] = asString(f[ref.column])
		}
	}
}

func (s *SQLite) Playlists(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, playlistQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlists: %w", err)
	}
	return recs, nil
}

func (s *SQLite) PlaylistSongs(ctx context.Context, playlistID string) ([]models.Record, error) {
	query, args := songsQuery+" ORDER BY rowid", []any{}
	if playlistID != "" {
		query, args = songsQuery+" WHERE PlaylistID = ? ORDER BY rowid", []any{playlistID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist songs: %w", err)
	}
	return recs, nil
}

// UpdateContent writes one field of a live content row and bumps the local update counter in one transaction.
func (s *SQLite) UpdateContent(ctx context.Context, id, field string, value int) (int, error) {
	if !writable(field) {
		return 0, fmt.Errorf("%w: field %s is not writable", shared.ErrInvalidArgument, field)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// field is one of the writable column names, never user input
	update := fmt.Sprintf(`
		UPDATE djmdContent SET %s = ?, updated_at = CURRENT_TIMESTAMP
		WHERE ID = ? AND COALESCE(rb_local_deleted, 0) = 0
	`, field)
	res, err := tx.ExecContext(ctx, update, value, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE agentRegistry SET int_1 = int_1 + 1, updated_at = CURRENT_TIMESTAMP
		WHERE registry_id = 'localUpdateCount'
	`); err != nil {
		return 0, fmt.Errorf("failed to bump update counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return int(n), nil
}

// UpdateCount returns the local update counter.
func (s *SQLite) UpdateCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT int_1 FROM agentRegistry WHERE registry_id = 'localUpdateCount'").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to read update counter: %w", err)
	}
	return n, nil
}

// Backup writes a consistent copy of the database to dst.
func (s *SQLite) Backup(ctx context.Context, dst string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrConnectionLost, err)
	}
	return nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }

// scanRecords reads every row into a [models.Fields]. NULL columns are left out.
func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var recs []models.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		f := make(models.Fields, len(cols))
		for i, col := range cols {
			if vals[i] == nil {
				continue
			}
			if b, ok := vals[i].([]byte); ok {
				f[col] = string(b)
				continue
			}
			f[col] = vals[i]
		}
		recs = append(recs, f)
	}
	return recs, rows.Err()
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
