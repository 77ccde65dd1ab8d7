// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text, M3U, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

var csvHeaders = []string{"ID", "Title", "Artist", "Album", "Genre", "Key", "BPM", "Rating", "PlayCount", "Length", "FilePath"}

// FormatBPM renders a bpm with two decimals, or "-" when unknown.
func FormatBPM(bpm float64) string {
	if bpm == 0 {
		return "-"
	}
	return strconv.FormatFloat(bpm, 'f', 2, 64)
}

func totalLength(tracks []models.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Length
	}
	return total
}

// ExportToCSV converts a PlaylistExport to CSV with one row per track, in playlist order.
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			track.Genre,
			track.Key,
			strconv.FormatFloat(track.BPM, 'f', 2, 64),
			strconv.Itoa(track.Rating),
			strconv.Itoa(track.PlayCount),
			strconv.Itoa(track.Length),
			track.FilePath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown with a summary header and a numbered track list.
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Name)
	fmt.Fprintf(&buf, "**Type**: %s\n", export.Playlist.Kind())
	if export.Criteria != "" {
		fmt.Fprintf(&buf, "**Criteria**: %s\n", export.Criteria)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Total time**: %s\n\n", shared.FormatDuration(totalLength(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s, %s BPM, %s]\n",
			i+1, track.Artist, track.Title, albumPart,
			shared.FormatDuration(track.Length), FormatBPM(track.BPM), orDash(track.Key))
	}

	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Criteria != "" {
		fmt.Fprintf(&buf, "Criteria: %s\n", export.Criteria)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}

	return buf.Bytes(), nil
}

// ExportToM3U converts a PlaylistExport to an extended M3U playlist. Tracks without a file path are skipped.
func ExportToM3U(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	fmt.Fprintf(&buf, "#PLAYLIST:%s\n", export.Playlist.Name)
	for _, track := range export.Tracks {
		if track.FilePath == "" {
			continue
		}
		fmt.Fprintf(&buf, "#EXTINF:%d,%s - %s\n%s\n", track.Length, track.Artist, track.Title, track.FilePath)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a PlaylistExport to indented JSON, tracks included.
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a playlist to {dir}/README.md. The directory defaults to the playlist ID.
func WriteMarkdownExport(export *models.PlaylistExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{Directory: outputDir, Files: []string{mdFile}}, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", export.Playlist.ID)
	}
	return writeExport(export, path, ExportToText, "text")
}

// WriteM3UExport exports a playlist to an M3U file, defaulting to {playlist.ID}.m3u8.
func WriteM3UExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.m3u8", export.Playlist.ID)
	}
	return writeExport(export, path, ExportToM3U, "M3U")
}

// WriteJSONExport exports a playlist with its tracks to JSON, defaulting to {playlist.ID}.json.
func WriteJSONExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.json", export.Playlist.ID)
	}
	return writeExport(export, path, ExportToJSON, "JSON")
}

func writeExport(export *models.PlaylistExport, path string, render func(*models.PlaylistExport) ([]byte, error), kind string) (string, error) {
	data, err := render(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", kind, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", kind, err)
	}
	return path, nil
}
