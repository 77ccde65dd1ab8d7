package formatter

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// StatsReport renders [models.LibraryStats] as a human readable summary.
func StatsReport(stats *models.LibraryStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Library:     %s (%s)\n", stats.DatabasePath, stats.ConnectionStatus)
	fmt.Fprintf(&b, "Tracks:      %s\n", humanize.Comma(int64(stats.TotalTracks)))
	fmt.Fprintf(&b, "Playlists:   %s\n", humanize.Comma(int64(stats.TotalPlaylists)))
	fmt.Fprintf(&b, "Playtime:    %s\n", shared.FormatDuration(stats.TotalPlaytimeSeconds))
	fmt.Fprintf(&b, "Average BPM: %s\n", FormatBPM(stats.AverageBPM))

	if len(stats.GenreDistribution) > 0 {
		b.WriteString("\nTop genres:\n")
		for i, g := range stats.GenreDistribution {
			fmt.Fprintf(&b, "  %-5s %-24s %s\n", humanize.Ordinal(i+1), g.Genre, humanize.Comma(int64(g.Count)))
		}
	}

	if len(stats.KeyDistribution) > 0 {
		b.WriteString("\nKeys:\n")
		for _, k := range slices.Sorted(maps.Keys(stats.KeyDistribution)) {
			fmt.Fprintf(&b, "  %-6s %s\n", k, humanize.Comma(int64(stats.KeyDistribution[k])))
		}
	}

	if len(stats.RatingDistribution) > 0 {
		b.WriteString("\nRatings:\n")
		for _, r := range slices.Sorted(maps.Keys(stats.RatingDistribution)) {
			fmt.Fprintf(&b, "  %-6s %s\n", stars(r), humanize.Comma(int64(stats.RatingDistribution[r])))
		}
	}

	return b.String()
}

func stars(rating int) string {
	if rating <= 0 {
		return "-"
	}
	return strings.Repeat("*", rating)
}

// AnalysisReport renders an [models.Analysis] as an aligned table.
func AnalysisReport(a *models.Analysis) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Grouped by %s, ranked by %s (%d groups)\n\n", a.GroupBy, a.AggregateBy, a.TotalGroups)
	fmt.Fprintf(&buf, "%-24s %8s %10s %10s\n", "KEY", "TRACKS", "PLAYS", "TIME")
	for _, r := range a.Results {
		fmt.Fprintf(&buf, "%-24s %8s %10s %10s\n",
			r.Key, humanize.Comma(int64(r.Count)), humanize.Comma(int64(r.PlayCount)), shared.FormatDuration(r.TotalTime))
	}
	return buf.String()
}
