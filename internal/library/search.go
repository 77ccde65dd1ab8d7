package library

import (
	"strings"

	"github.com/desertthunder/rbx/internal/models"
)

// predicate is one search condition over a normalized track.
type predicate func(t *models.Track) bool

// predicates compiles the set options of a search into a conjunction.
// Cheap exact and numeric checks come before substring matches.
func predicates(opts models.SearchOptions) []predicate {
	var ps []predicate

	if opts.Key != "" {
		ps = append(ps, func(t *models.Track) bool { return t.Key == opts.Key })
	}
	if opts.BPMMin != nil {
		lo := *opts.BPMMin
		ps = append(ps, func(t *models.Track) bool { return t.BPM >= lo })
	}
	if opts.BPMMax != nil {
		hi := *opts.BPMMax
		ps = append(ps, func(t *models.Track) bool { return t.BPM <= hi })
	}
	if opts.RatingMin != nil {
		lo := *opts.RatingMin
		ps = append(ps, func(t *models.Track) bool { return t.Rating >= lo })
	}
	if opts.RatingMax != nil {
		hi := *opts.RatingMax
		ps = append(ps, func(t *models.Track) bool { return t.Rating <= hi })
	}
	if opts.PlayCountMin != nil {
		lo := *opts.PlayCountMin
		ps = append(ps, func(t *models.Track) bool { return t.PlayCount >= lo })
	}
	if opts.PlayCountMax != nil {
		hi := *opts.PlayCountMax
		ps = append(ps, func(t *models.Track) bool { return t.PlayCount <= hi })
	}
	if opts.Artist != "" {
		ps = append(ps, containsFold(opts.Artist, func(t *models.Track) string { return t.Artist }))
	}
	if opts.Title != "" {
		ps = append(ps, containsFold(opts.Title, func(t *models.Track) string { return t.Title }))
	}
	if opts.Album != "" {
		ps = append(ps, containsFold(opts.Album, func(t *models.Track) string { return t.Album }))
	}
	if opts.Genre != "" {
		ps = append(ps, containsFold(opts.Genre, func(t *models.Track) string { return t.Genre }))
	}
	if opts.Query != "" {
		q := strings.ToLower(opts.Query)
		ps = append(ps, func(t *models.Track) bool {
			return strings.Contains(strings.ToLower(t.Title), q) ||
				strings.Contains(strings.ToLower(t.Artist), q) ||
				strings.Contains(strings.ToLower(t.Genre), q)
		})
	}
	return ps
}

func containsFold(needle string, field func(t *models.Track) string) predicate {
	n := strings.ToLower(needle)
	return func(t *models.Track) bool {
		return strings.Contains(strings.ToLower(field(t)), n)
	}
}

// Matches reports whether a track satisfies every set option.
func Matches(t models.Track, opts models.SearchOptions) bool {
	for _, p := range predicates(opts) {
		if !p(&t) {
			return false
		}
	}
	return true
}

// Search filters tracks by opts in encounter order and truncates to the effective limit.
func Search(tracks []models.Track, opts models.SearchOptions) []models.Track {
	ps := predicates(opts)
	limit := opts.EffectiveLimit()
	results := make([]models.Track, 0, min(limit, len(tracks)))

next:
	for i := range tracks {
		for _, p := range ps {
			if !p(&tracks[i]) {
				continue next
			}
		}
		results = append(results, tracks[i])
		if len(results) >= limit {
			break
		}
	}
	return results
}
