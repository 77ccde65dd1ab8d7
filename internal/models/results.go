package models

import "time"

// DefaultSearchLimit applies when [SearchOptions.Limit] is not positive.
const DefaultSearchLimit = 50

// SearchOptions is a conjunction of optional track predicates.
//
// Nil pointers and empty strings are unset. Query is an OR across title, artist, and genre.
type SearchOptions struct {
	Query        string   `json:"query,omitempty"`
	Artist       string   `json:"artist,omitempty"`
	Title        string   `json:"title,omitempty"`
	Album        string   `json:"album,omitempty"`
	Genre        string   `json:"genre,omitempty"`
	Key          string   `json:"key,omitempty"`
	BPMMin       *float64 `json:"bpm_min,omitempty"`
	BPMMax       *float64 `json:"bpm_max,omitempty"`
	RatingMin    *int     `json:"rating_min,omitempty"`
	RatingMax    *int     `json:"rating_max,omitempty"`
	PlayCountMin *int     `json:"play_count_min,omitempty"`
	PlayCountMax *int     `json:"play_count_max,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// EffectiveLimit returns Limit, or [DefaultSearchLimit] when unset.
func (o SearchOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}

// GroupResult is one aggregation bucket.
type GroupResult struct {
	Key       string `json:"key"`
	Count     int    `json:"count"`
	PlayCount int    `json:"play_count"`
	TotalTime int    `json:"total_time"`
}

// Analysis is the ranked output of a library aggregation.
type Analysis struct {
	GroupBy     string        `json:"group_by"`
	AggregateBy string        `json:"aggregate_by"`
	Results     []GroupResult `json:"results"`
	TotalGroups int           `json:"total_groups"`
}

// ValidationResult partitions requested track IDs against the live library.
type ValidationResult struct {
	Valid        []string `json:"valid"`
	Invalid      []string `json:"invalid"`
	TotalChecked int      `json:"total_checked"`
	ValidCount   int      `json:"valid_count"`
	InvalidCount int      `json:"invalid_count"`
}

// GenreCount is one entry of a genre histogram.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// LibraryStats summarizes the live library.
type LibraryStats struct {
	TotalTracks          int            `json:"total_tracks"`
	TotalPlaylists       int            `json:"total_playlists"`
	TotalPlaytimeSeconds int            `json:"total_playtime_seconds"`
	AverageBPM           float64        `json:"average_bpm"`
	GenreDistribution    []GenreCount   `json:"genre_distribution"`
	KeyDistribution      map[string]int `json:"key_distribution"`
	RatingDistribution   map[int]int    `json:"rating_distribution"`
	DatabasePath         string         `json:"database_path"`
	ConnectionStatus     string         `json:"connection_status"`
}

// MutationResult reports the outcome of a rating or play-count update.
type MutationResult struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	AffectedRecords int       `json:"affected_records"`
	BackupCreated   bool      `json:"backup_created"`
	BackupPath      string    `json:"backup_path,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// ConnectionState enumerates the states reported by [ConnectionStatus].
type ConnectionState string

const (
	StateNotConnected   ConnectionState = "not_connected"
	StateConnected      ConnectionState = "connected"
	StateConnectionLost ConnectionState = "connection_lost"
)

// ConnectionStatus describes the library handle.
type ConnectionStatus struct {
	State        ConnectionState `json:"state"`
	DatabasePath string          `json:"database_path,omitempty"`
	TotalTracks  int             `json:"total_tracks,omitempty"`
	Message      string          `json:"message"`
}

// PlaylistExport is a playlist with its ordered tracks, as written by the exporters.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
	// Criteria is the decoded smart-list description, empty for regular playlists.
	Criteria string `json:"criteria,omitempty"`
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Error        error
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	Results           []PlaylistExportResult
	OutputDirectory   string
	ManifestPath      string
}
