package library

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// Group dimensions accepted by [Analyze].
const (
	GroupGenre  = "genre"
	GroupKey    = "key"
	GroupYear   = "year"
	GroupArtist = "artist"
	GroupRating = "rating"
)

// Metrics accepted by [Analyze].
const (
	MetricCount     = "count"
	MetricPlayCount = "playCount"
	MetricTotalTime = "totalTime"
)

const unknownGroup = "Unknown"

// DefaultTopN is the number of groups returned when top_n is not positive.
const DefaultTopN = 10

var groupKeys = map[string]func(t *models.Track) string{
	GroupGenre:  func(t *models.Track) string { return orUnknown(t.Genre) },
	GroupKey:    func(t *models.Track) string { return orUnknown(t.Key) },
	GroupArtist: func(t *models.Track) string { return orUnknown(t.Artist) },
	GroupRating: func(t *models.Track) string { return strconv.Itoa(t.Rating) },
	GroupYear: func(t *models.Track) string {
		if t.Year == 0 {
			return unknownGroup
		}
		return strconv.Itoa(t.Year)
	},
}

var metrics = map[string]func(g models.GroupResult) int{
	MetricCount:     func(g models.GroupResult) int { return g.Count },
	MetricPlayCount: func(g models.GroupResult) int { return g.PlayCount },
	MetricTotalTime: func(g models.GroupResult) int { return g.TotalTime },
}

func orUnknown(s string) string {
	if s == "" {
		return unknownGroup
	}
	return s
}

// Analyze groups tracks by groupBy and ranks the groups by aggregateBy, descending.
//
// Ties keep first-seen order. TotalGroups counts groups before truncation to topN.
func Analyze(tracks []models.Track, groupBy, aggregateBy string, topN int) (*models.Analysis, error) {
	keyOf, ok := groupKeys[groupBy]
	if !ok {
		return nil, fmt.Errorf("%w: group_by %q", shared.ErrInvalidArgument, groupBy)
	}
	metric, ok := metrics[aggregateBy]
	if !ok {
		return nil, fmt.Errorf("%w: aggregate_by %q", shared.ErrInvalidArgument, aggregateBy)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	index := make(map[string]int)
	var groups []models.GroupResult
	for i := range tracks {
		t := &tracks[i]
		k := keyOf(t)
		pos, seen := index[k]
		if !seen {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, models.GroupResult{Key: k})
		}
		groups[pos].Count++
		groups[pos].PlayCount += t.PlayCount
		groups[pos].TotalTime += t.Length
	}

	slices.SortStableFunc(groups, func(a, b models.GroupResult) int {
		return metric(b) - metric(a)
	})

	total := len(groups)
	if len(groups) > topN {
		groups = groups[:topN]
	}
	if groups == nil {
		groups = []models.GroupResult{}
	}

	return &models.Analysis{
		GroupBy:     groupBy,
		AggregateBy: aggregateBy,
		Results:     groups,
		TotalGroups: total,
	}, nil
}
