package testing

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// Smart-list payloads as stored in djmdPlaylist.SmartList.
const (
	ArtistCriteria = `<NODE Id="1" LogicalOperator="1" AutomaticUpdate="0">` +
		`<CONDITION PropertyName="artist" Operator="1" ValueUnit="" ValueLeft="deadmau5" ValueRight=""/></NODE>`
	RecentCriteria = `<NODE Id="2" LogicalOperator="1" AutomaticUpdate="1">` +
		`<CONDITION PropertyName="stockDate" Operator="8" ValueUnit="day" ValueLeft="30" ValueRight=""/>` +
		`<CONDITION PropertyName="counter" Operator="4" ValueUnit="" ValueLeft="5" ValueRight=""/></NODE>`
)

// LibraryFixture returns content, playlist and membership rows covering the resolution and soft-delete cases.
//
// Live tracks, in order: 1 Strobe, 2 Opus, 3 Windowlicker, 5 Gecko. Track 4 is deleted.
// Playlists: 10 Sets (folder, with smart content), 11 Warmup (in Sets), 12 Recent (smart, in Sets),
// 13 Trash (deleted), 14 Empty (root, only a deleted membership row).
func LibraryFixture() (content, playlists, songs []models.Fields) {
	content = []models.Fields{
		{
			"ID": "1", "Title": "Strobe", "ArtistName": "deadmau5", "GenreName": "Progressive House", "KeyName": "8A",
			"Album": models.Entity{ID: "1", Name: "For Lack of a Better Name"},
			"BPM": 12800, "Rating": 5, "DJPlayCount": 42, "Length": 637, "ReleaseYear": 2009,
			"FolderPath": "/Music/deadmau5/Strobe.mp3", "DateCreated": "2023-01-10", "StockDate": "2023-02-01",
			"BitRate": 320, "SampleRate": 44100, "Commnt": "peak time", "rb_local_deleted": 0,
		},
		{
			"ID": "2", "Title": "Opus",
			"Artist": models.Entity{ID: "2", Name: "Eric Prydz"},
			"Genre":  models.Entity{ID: "1", Name: "Techno"},
			"Key":    models.Entity{ID: "5", Name: "5A"},
			"BPM":    12600, "Rating": 4, "DJPlayCount": 17, "Length": 540, "ReleaseYear": 2016,
			"FolderPath": "/Music/Eric Prydz/Opus.flac", "rb_local_deleted": 0,
		},
		{
			"ID": "3", "Title": "Windowlicker", "Artist": "7", "GenreName": "IDM", "KeyName": "3A",
			"BPM": nil, "Rating": 0, "DJPlayCount": 0, "Length": 366,
			"FolderPath": "/Music/Aphex Twin/Windowlicker.WAV",
		},
		{
			"ID": "4", "Title": "Deleted Anthem", "ArtistName": "deadmau5", "GenreName": "House",
			"BPM": 12800, "Rating": 5, "DJPlayCount": 99, "Length": 300, "rb_local_deleted": 1,
		},
		{
			"ID": "5", "Title": "Gecko", "ArtistName": "Oliver Heldens", "GenreName": "House", "KeyName": "8A",
			"BPM": 12500, "Rating": 3, "DJPlayCount": 0, "Length": 190, "ReleaseYear": 2013,
			"FolderPath": "/Music/Oliver Heldens/Gecko.mp3", "rb_local_deleted": 0,
		},
	}

	playlists = []models.Fields{
		{"ID": "10", "Name": "Sets", "Attribute": 1, "ParentID": "root", "SmartList": ArtistCriteria, "rb_local_deleted": 0},
		{"ID": "11", "Name": "Warmup", "Attribute": 0, "ParentID": "10", "rb_local_deleted": 0},
		{"ID": "12", "Name": "Recent", "Attribute": 4, "ParentID": "10", "SmartList": RecentCriteria, "rb_local_deleted": 0},
		{"ID": "13", "Name": "Trash", "Attribute": 0, "ParentID": "root", "rb_local_deleted": 1},
		{"ID": "14", "Name": "Empty", "Attribute": 0, "ParentID": "root", "rb_local_deleted": 0},
	}

	songs = []models.Fields{
		{"ID": "100", "PlaylistID": "11", "ContentID": "5", "TrackNo": 3, "rb_local_deleted": 0},
		{"ID": "101", "PlaylistID": "11", "ContentID": "1", "TrackNo": 1, "rb_local_deleted": 0},
		{"ID": "102", "PlaylistID": "11", "ContentID": "2", "TrackNo": 2, "rb_local_deleted": 0},
		{"ID": "103", "PlaylistID": "11", "ContentID": "4", "TrackNo": 4, "rb_local_deleted": 0},
		{"ID": "104", "PlaylistID": "11", "ContentID": "3", "TrackNo": 5, "rb_local_deleted": 1},
		{"ID": "105", "PlaylistID": "14", "ContentID": "1", "TrackNo": 1, "rb_local_deleted": 1},
	}
	return content, playlists, songs
}

// seedLibrary mirrors [LibraryFixture] in the SQLite schema, with joins in place of flattened names.
const seedLibrary = `
INSERT INTO djmdArtist (ID, Name) VALUES ('1', 'deadmau5'), ('2', 'Eric Prydz'), ('3', 'Oliver Heldens');
INSERT INTO djmdAlbum (ID, Name) VALUES ('1', 'For Lack of a Better Name');
INSERT INTO djmdGenre (ID, Name) VALUES ('1', 'Techno'), ('2', 'Progressive House'), ('3', 'House'), ('4', 'IDM');
INSERT INTO djmdKey (ID, ScaleName, Seq) VALUES ('1', '8A', 1), ('5', '5A', 5), ('3', '3A', 3);

INSERT INTO djmdContent (ID, Title, ArtistID, AlbumID, GenreID, KeyID, BPM, Rating, DJPlayCount, Length, ReleaseYear,
	FolderPath, DateCreated, StockDate, BitRate, SampleRate, Commnt, rb_local_deleted) VALUES
	('1', 'Strobe', '1', '1', '2', '1', 12800, 5, 42, 637, 2009, '/Music/deadmau5/Strobe.mp3', '2023-01-10', '2023-02-01', 320, 44100, 'peak time', 0),
	('2', 'Opus', '2', NULL, '1', '5', 12600, 4, 17, 540, 2016, '/Music/Eric Prydz/Opus.flac', NULL, NULL, NULL, NULL, NULL, 0),
	('3', 'Windowlicker', '7', NULL, '4', '3', NULL, 0, 0, 366, NULL, '/Music/Aphex Twin/Windowlicker.WAV', NULL, NULL, NULL, NULL, NULL, 0),
	('4', 'Deleted Anthem', '1', NULL, '3', NULL, 12800, 5, 99, 300, NULL, NULL, NULL, NULL, NULL, NULL, NULL, 1),
	('5', 'Gecko', '3', NULL, '3', '1', 12500, 3, 0, 190, 2013, '/Music/Oliver Heldens/Gecko.mp3', NULL, NULL, NULL, NULL, NULL, 0);

INSERT INTO djmdPlaylist (ID, Seq, Name, Attribute, ParentID, SmartList, rb_local_deleted) VALUES
	('10', 1, 'Sets', 1, 'root', NULL, 0),
	('11', 2, 'Warmup', 0, '10', NULL, 0),
	('12', 3, 'Recent', 4, '10', NULL, 0),
	('13', 4, 'Trash', 0, 'root', NULL, 1),
	('14', 5, 'Empty', 0, 'root', NULL, 0);

INSERT INTO djmdSongPlaylist (ID, PlaylistID, ContentID, TrackNo, rb_local_deleted) VALUES
	('100', '11', '5', 3, 0),
	('101', '11', '1', 1, 0),
	('102', '11', '2', 2, 0),
	('103', '11', '4', 4, 0),
	('104', '11', '3', 5, 1),
	('105', '14', '1', 1, 1);
`

// NewLibraryDB creates an in-memory database with the library schema and the fixture rows.
func NewLibraryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := db.Exec(seedLibrary); err != nil {
		db.Close()
		t.Fatalf("failed to seed library: %v", err)
	}
	// Smart payloads contain quotes, so they go in as parameters.
	for id, payload := range map[string]string{"10": ArtistCriteria, "12": RecentCriteria} {
		if _, err := db.Exec("UPDATE djmdPlaylist SET SmartList = ? WHERE ID = ?", payload, id); err != nil {
			db.Close()
			t.Fatalf("failed to seed smart list: %v", err)
		}
	}
	return db
}

// XMLFixture is a rekordbox.xml export with two tracks, a folder and two playlists.
const XMLFixture = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<DJ_PLAYLISTS Version="1.0.0">
  <PRODUCT Name="rekordbox" Version="7.1.4" Company="AlphaTheta"/>
  <COLLECTION Entries="2">
    <TRACK TrackID="1001" Name="Test Track 1" Artist="Test Artist 1" Album="Test Album 1" Genre="House" TotalTime="240" Year="2023" AverageBpm="128.00" DateAdded="2024-01-01" BitRate="320" SampleRate="44100" Comments="8A - Energy 8" PlayCount="5" Rating="204" Location="file://localhost/Users/test/Music/Test%20Track%201.mp3" Tonality="8A">
      <TEMPO Inizio="0.100" Bpm="128.00" Metro="4/4" Battito="1"/>
    </TRACK>
    <TRACK TrackID="1002" Name="Test Track 2" Artist="Test Artist 2" Genre="Techno" TotalTime="300" Year="2022" AverageBpm="132.50" DateAdded="2024-01-02" BitRate="320" SampleRate="44100" PlayCount="0" Rating="255" Location="file://localhost/Users/test/Music/Test%20Track%202.mp3" Tonality="2B"/>
  </COLLECTION>
  <PLAYLISTS>
    <NODE Type="0" Name="ROOT" Count="2">
      <NODE Name="Club" Type="0" Count="1">
        <NODE Name="Peak" Type="1" KeyType="0" Entries="2">
          <TRACK Key="1002"/>
          <TRACK Key="1001"/>
        </NODE>
      </NODE>
      <NODE Name="By Location" Type="1" KeyType="1" Entries="1">
        <TRACK Key="file://localhost/Users/test/Music/Test%20Track%201.mp3"/>
      </NODE>
    </NODE>
  </PLAYLISTS>
</DJ_PLAYLISTS>
`
