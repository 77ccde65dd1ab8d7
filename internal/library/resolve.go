package library

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/rbx/internal/models"
)

// Raw field names in the library schema.
const (
	fieldID        = "ID"
	fieldTitle     = "Title"
	fieldBPM       = "BPM"
	fieldRating    = "Rating"
	fieldPlayCount = "DJPlayCount"
	fieldLength    = "Length"
	fieldYear      = "ReleaseYear"
	fieldPath      = "FolderPath"
	fieldCreated   = "DateCreated"
	fieldStock     = "StockDate"
	fieldBitRate   = "BitRate"
	fieldSample    = "SampleRate"
	fieldComment   = "Commnt"

	fieldName          = "Name"
	fieldAttribute     = "Attribute"
	fieldIsFolder      = "is_folder"
	fieldSmartList     = "SmartList"
	fieldParentID      = "ParentID"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
	fieldPlaylistID    = "PlaylistID"
	fieldContentID     = "ContentID"
	fieldTrackNo       = "TrackNo"
	fieldDeletedMarker = "rb_local_deleted"
)

// nameFields lists the flattened and related-entity field names of each resolvable reference.
var nameFields = map[string][2]string{
	"artist": {"ArtistName", "Artist"},
	"album":  {"AlbumName", "Album"},
	"genre":  {"GenreName", "Genre"},
	"key":    {"KeyName", "Key"},
}

// strategy is one step of a resolution chain. ok is false when the step has nothing to offer.
type strategy func(rec models.Record) (value string, ok bool)

// flattenedField reads a precomputed display field.
func flattenedField(name string) strategy {
	return func(rec models.Record) (string, bool) {
		v, ok := rec.Field(name)
		if !ok || v == nil {
			return "", false
		}
		return coerceString(v)
	}
}

// relatedName reads the display field of a related-entity reference.
func relatedName(name string) strategy {
	return func(rec models.Record) (string, bool) {
		v, ok := rec.Field(name)
		if !ok || v == nil {
			return "", false
		}
		switch ref := v.(type) {
		case models.Named:
			return ref.DisplayName(), true
		case map[string]any:
			n, ok := ref[fieldName]
			if !ok || n == nil {
				return "", false
			}
			return coerceString(n)
		}
		return "", false
	}
}

// rawReference coerces the reference itself to text.
func rawReference(name string) strategy {
	return func(rec models.Record) (string, bool) {
		v, ok := rec.Field(name)
		if !ok || v == nil {
			return "", false
		}
		switch v.(type) {
		case models.Named, map[string]any:
			return "", false
		}
		s, ok := coerceString(v)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	}
}

// resolveChain returns the first value offered by the strategies, or "".
func resolveChain(rec models.Record, chain ...strategy) string {
	for _, step := range chain {
		if v, ok := step(rec); ok {
			return v
		}
	}
	return ""
}

// ResolveName resolves a reference field through the fallback chain:
// the flattened field, then the related entity's display name, then the raw
// reference as text, then "".
func ResolveName(rec models.Record, flattened, related string) string {
	if rec == nil {
		return ""
	}
	return resolveChain(rec, flattenedField(flattened), relatedName(related), rawReference(related))
}

// ResolveReference resolves one of "artist", "album", "genre" or "key".
func ResolveReference(rec models.Record, ref string) string {
	names, ok := nameFields[ref]
	if !ok {
		return ""
	}
	return ResolveName(rec, names[0], names[1])
}

// ResolveBPM converts the stored integer BPM (times 100) to beats per minute.
func ResolveBPM(rec models.Record) float64 {
	raw, _ := floatField(rec, fieldBPM)
	if raw == 0 {
		return 0
	}
	return raw / 100.0
}

// NormalizeTrack maps a raw content record to a [models.Track].
func NormalizeTrack(rec models.Record) models.Track {
	return models.Track{
		ID:           idField(rec, fieldID),
		Title:        stringField(rec, fieldTitle),
		Artist:       ResolveReference(rec, "artist"),
		Album:        ResolveReference(rec, "album"),
		Genre:        ResolveReference(rec, "genre"),
		Key:          ResolveReference(rec, "key"),
		BPM:          ResolveBPM(rec),
		Rating:       intField(rec, fieldRating),
		PlayCount:    intField(rec, fieldPlayCount),
		Length:       intField(rec, fieldLength),
		Year:         intField(rec, fieldYear),
		FilePath:     stringField(rec, fieldPath),
		DateAdded:    stringField(rec, fieldCreated),
		DateModified: stringField(rec, fieldStock),
		Bitrate:      intField(rec, fieldBitRate),
		SampleRate:   intField(rec, fieldSample),
		Comments:     stringField(rec, fieldComment),
	}
}

func stringField(rec models.Record, name string) string {
	if rec == nil {
		return ""
	}
	v, ok := rec.Field(name)
	if !ok || v == nil {
		return ""
	}
	s, _ := coerceString(v)
	return s
}

// intField reads integers exactly. Floats outside the int range are the zero value.
func intField(rec models.Record, name string) int {
	if rec == nil {
		return 0
	}
	v, ok := rec.Field(name)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case int32:
		return int(n)
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return int(i)
		}
	}
	f, ok := coerceFloat(v)
	if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int(f)
}

func boolField(rec models.Record, name string) bool {
	if rec == nil {
		return false
	}
	v, ok := rec.Field(name)
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	f, ok := coerceFloat(v)
	return ok && f != 0
}

func floatField(rec models.Record, name string) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	v, ok := rec.Field(name)
	if !ok || v == nil {
		return 0, false
	}
	return coerceFloat(v)
}

// idField reads an identifier in canonical integer form when it parses, raw text otherwise.
func idField(rec models.Record, name string) string {
	raw := stringField(rec, name)
	if id, ok := CanonicalID(raw); ok {
		return id
	}
	return raw
}

// CanonicalID parses an identifier as an integer and returns its canonical text.
// ok is false for identifiers that cannot be parsed.
func CanonicalID(id string) (string, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

func coerceString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case int32:
		return strconv.FormatInt(int64(s), 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case bool:
		return strconv.FormatBool(s), true
	case time.Time:
		return s.Format(time.DateTime), true
	case models.Named:
		return s.DisplayName(), true
	case interface{ String() string }:
		return s.String(), true
	}
	return "", false
}

func coerceFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case float64:
		f = n
	case float32:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []byte:
		return coerceFloat(string(n))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
