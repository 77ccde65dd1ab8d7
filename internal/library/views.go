package library

import (
	"cmp"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/desertthunder/rbx/internal/models"
)

// genreHistogramSize is the number of genres kept in [Stats].
const genreHistogramSize = 10

func truncate(tracks []models.Track, limit int) []models.Track {
	if limit > 0 && len(tracks) > limit {
		return tracks[:limit]
	}
	return tracks
}

// MostPlayed orders tracks by descending play count, keeping encounter order on ties.
func MostPlayed(tracks []models.Track, limit int) []models.Track {
	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, func(a, b models.Track) int {
		return cmp.Compare(b.PlayCount, a.PlayCount)
	})
	return truncate(sorted, limit)
}

// TopRated orders tracks by descending rating, then descending play count.
func TopRated(tracks []models.Track, limit int) []models.Track {
	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, func(a, b models.Track) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(b.PlayCount, a.PlayCount)
	})
	return truncate(sorted, limit)
}

// Unplayed returns tracks with a zero play count.
func Unplayed(tracks []models.Track, limit int) []models.Track {
	out := make([]models.Track, 0)
	for _, t := range tracks {
		if t.PlayCount == 0 {
			out = append(out, t)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// ByKey returns tracks whose resolved key equals key.
func ByKey(tracks []models.Track, key string) []models.Track {
	out := make([]models.Track, 0)
	for _, t := range tracks {
		if t.Key == key {
			out = append(out, t)
		}
	}
	return out
}

// ByBPMRange returns tracks with lo <= bpm <= hi.
func ByBPMRange(tracks []models.Track, lo, hi float64) []models.Track {
	out := make([]models.Track, 0)
	for _, t := range tracks {
		if t.BPM >= lo && t.BPM <= hi {
			out = append(out, t)
		}
	}
	return out
}

// SearchFilename matches a case-insensitive substring of the file path.
func SearchFilename(tracks []models.Track, name string) []models.Track {
	needle := strings.ToLower(name)
	out := make([]models.Track, 0)
	for _, t := range tracks {
		if t.FilePath != "" && strings.Contains(strings.ToLower(t.FilePath), needle) {
			out = append(out, t)
		}
	}
	return out
}

// FindTrack looks a track up by id. Identifiers that do not parse never match.
func FindTrack(tracks []models.Track, id string) (models.Track, bool) {
	want, ok := CanonicalID(id)
	if !ok {
		return models.Track{}, false
	}
	for _, t := range tracks {
		if t.ID == want {
			return t, true
		}
	}
	return models.Track{}, false
}

// Locate describes where a track lives on disk.
func Locate(t models.Track) models.FileLocation {
	return models.FileLocation{
		TrackID:  t.ID,
		FilePath: t.FilePath,
		FileName: filepath.Base(filepath.FromSlash(t.FilePath)),
	}
}

// ValidateIDs partitions ids into those present among tracks and the rest, preserving request order.
func ValidateIDs(tracks []models.Track, ids []string) models.ValidationResult {
	live := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		live[t.ID] = struct{}{}
	}

	res := models.ValidationResult{Valid: []string{}, Invalid: []string{}}
	for _, id := range ids {
		canonical, ok := CanonicalID(id)
		if _, found := live[canonical]; ok && found {
			res.Valid = append(res.Valid, id)
		} else {
			res.Invalid = append(res.Invalid, id)
		}
	}
	res.TotalChecked = len(ids)
	res.ValidCount = len(res.Valid)
	res.InvalidCount = len(res.Invalid)
	return res
}

// Stats summarizes tracks. Playlist count, path and status are filled in by the caller.
func Stats(tracks []models.Track) models.LibraryStats {
	stats := models.LibraryStats{
		TotalTracks:        len(tracks),
		GenreDistribution:  []models.GenreCount{},
		KeyDistribution:    map[string]int{},
		RatingDistribution: map[int]int{},
	}

	var bpmSum float64
	genreIndex := make(map[string]int)
	for _, t := range tracks {
		stats.TotalPlaytimeSeconds += t.Length
		bpmSum += t.BPM

		genre := orUnknown(t.Genre)
		if i, ok := genreIndex[genre]; ok {
			stats.GenreDistribution[i].Count++
		} else {
			genreIndex[genre] = len(stats.GenreDistribution)
			stats.GenreDistribution = append(stats.GenreDistribution, models.GenreCount{Genre: genre, Count: 1})
		}
		if t.Key != "" {
			stats.KeyDistribution[t.Key]++
		}
		stats.RatingDistribution[t.Rating]++
	}

	if len(tracks) > 0 {
		stats.AverageBPM = math.Round(bpmSum/float64(len(tracks))*100) / 100
	}

	slices.SortStableFunc(stats.GenreDistribution, func(a, b models.GenreCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(stats.GenreDistribution) > genreHistogramSize {
		stats.GenreDistribution = stats.GenreDistribution[:genreHistogramSize]
	}
	return stats
}
