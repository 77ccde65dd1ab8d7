package library

import "github.com/desertthunder/rbx/internal/models"

// IsLive reports whether a record passes the soft-delete filter.
//
// A record is live when its deletion marker is absent, null, or 0.
func IsLive(rec models.Record) bool {
	if rec == nil {
		return false
	}
	v, ok := rec.Field(fieldDeletedMarker)
	if !ok || v == nil {
		return true
	}
	f, ok := coerceFloat(v)
	return ok && f == 0
}

// LiveOnly returns the live subset of records in input order.
func LiveOnly(records []models.Record) []models.Record {
	live := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if IsLive(rec) {
			live = append(live, rec)
		}
	}
	return live
}

// LiveTracks filters and normalizes content records.
func LiveTracks(records []models.Record) []models.Track {
	tracks := make([]models.Track, 0, len(records))
	for _, rec := range records {
		if IsLive(rec) {
			tracks = append(tracks, NormalizeTrack(rec))
		}
	}
	return tracks
}
