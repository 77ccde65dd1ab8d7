package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// maxSearchLimit caps the limit a client may request from search_tracks.
const maxSearchLimit = 1000

// maxBodyBytes bounds the size of a tool argument object.
const maxBodyBytes = 1 << 20

// Library is the set of operations served as tools.
type Library interface {
	SearchTracks(ctx context.Context, opts models.SearchOptions) ([]models.Track, error)
	GetTrack(ctx context.Context, id string) (*models.Track, error)
	GetTracksByKey(ctx context.Context, key string) ([]models.Track, error)
	GetTracksByBPMRange(ctx context.Context, lo, hi float64) ([]models.Track, error)
	MostPlayed(ctx context.Context, limit int) ([]models.Track, error)
	TopRated(ctx context.Context, limit int) ([]models.Track, error)
	Unplayed(ctx context.Context, limit int) ([]models.Track, error)
	SearchByFilename(ctx context.Context, name string) ([]models.Track, error)
	TrackFilePath(ctx context.Context, id string) (*models.FileLocation, error)
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)
	GetPlaylistTracks(ctx context.Context, id string) ([]models.Track, error)
	PlaylistTree(ctx context.Context) ([]*models.PlaylistNode, error)
	AnalyzeLibrary(ctx context.Context, groupBy, aggregateBy string, topN int) (*models.Analysis, error)
	ValidateTrackIDs(ctx context.Context, ids []string) (*models.ValidationResult, error)
	LibraryStats(ctx context.Context) (*models.LibraryStats, error)
	UpdateRating(ctx context.Context, id string, rating int) (*models.MutationResult, error)
	UpdatePlayCount(ctx context.Context, id string, count int) (*models.MutationResult, error)
	Status(ctx context.Context) models.ConnectionStatus
}

// Tool describes one callable operation.
type Tool struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
	Mutates     bool     `json:"mutates,omitempty"`

	call func(ctx context.Context, lib Library, args json.RawMessage) (any, error)
}

type envelope struct {
	Tool      string `json:"tool,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Result    any    `json:"result"`
	Error     string `json:"error,omitempty"`
}

type trackArgs struct {
	TrackID string `json:"track_id"`
}

type limitArgs struct {
	Limit int `json:"limit"`
}

// decode unmarshals args into a T, rejecting unknown fields. Empty args decode to the zero value.
func decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(bytes.TrimSpace(args)) == 0 {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	return v, nil
}

func require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return nil
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// Tools returns the catalogue in a stable order.
func Tools() []Tool {
	return []Tool{
		{
			Name:        "search_tracks",
			Description: "Search live tracks by text, artist, title, album, genre, key, bpm, rating and play count",
			Params:      []string{"query", "artist", "title", "album", "genre", "key", "bpm_min", "bpm_max", "rating_min", "rating_max", "play_count_min", "play_count_max", "limit"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				opts, err := decode[models.SearchOptions](args)
				if err != nil {
					return nil, err
				}
				opts.Limit = min(opts.EffectiveLimit(), maxSearchLimit)
				return lib.SearchTracks(ctx, opts)
			},
		},
		{
			Name:        "get_track_details",
			Description: "Get one track by id",
			Params:      []string{"track_id"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[trackArgs](args)
				if err != nil {
					return nil, err
				}
				if err := require("track_id", a.TrackID); err != nil {
					return nil, err
				}
				return lib.GetTrack(ctx, a.TrackID)
			},
		},
		{
			Name:        "get_tracks_by_key",
			Description: "Get tracks in a musical key (e.g. 5A, 12B)",
			Params:      []string{"key"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					Key string `json:"key"`
				}](args)
				if err != nil {
					return nil, err
				}
				if err := require("key", a.Key); err != nil {
					return nil, err
				}
				return lib.GetTracksByKey(ctx, a.Key)
			},
		},
		{
			Name:        "get_tracks_by_bpm_range",
			Description: "Get tracks with bpm_min <= bpm <= bpm_max",
			Params:      []string{"bpm_min", "bpm_max"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					Min *float64 `json:"bpm_min"`
					Max *float64 `json:"bpm_max"`
				}](args)
				if err != nil {
					return nil, err
				}
				if a.Min == nil || a.Max == nil {
					return nil, fmt.Errorf("%w: bpm_min and bpm_max", shared.ErrMissingArgument)
				}
				return lib.GetTracksByBPMRange(ctx, *a.Min, *a.Max)
			},
		},
		{
			Name:        "get_most_played_tracks",
			Description: "Get the most played tracks",
			Params:      []string{"limit"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[limitArgs](args)
				if err != nil {
					return nil, err
				}
				return lib.MostPlayed(ctx, orDefault(a.Limit, 20))
			},
		},
		{
			Name:        "get_top_rated_tracks",
			Description: "Get the highest rated tracks, ties broken by play count",
			Params:      []string{"limit"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[limitArgs](args)
				if err != nil {
					return nil, err
				}
				return lib.TopRated(ctx, orDefault(a.Limit, 20))
			},
		},
		{
			Name:        "get_unplayed_tracks",
			Description: "Get tracks that have never been played",
			Params:      []string{"limit"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[limitArgs](args)
				if err != nil {
					return nil, err
				}
				return lib.Unplayed(ctx, orDefault(a.Limit, 50))
			},
		},
		{
			Name:        "get_track_file_path",
			Description: "Get the file path and name of a track",
			Params:      []string{"track_id"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[trackArgs](args)
				if err != nil {
					return nil, err
				}
				if err := require("track_id", a.TrackID); err != nil {
					return nil, err
				}
				return lib.TrackFilePath(ctx, a.TrackID)
			},
		},
		{
			Name:        "search_tracks_by_filename",
			Description: "Search tracks by a case-insensitive substring of the file path",
			Params:      []string{"filename"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					Filename string `json:"filename"`
				}](args)
				if err != nil {
					return nil, err
				}
				if err := require("filename", a.Filename); err != nil {
					return nil, err
				}
				return lib.SearchByFilename(ctx, a.Filename)
			},
		},
		{
			Name:        "analyze_library",
			Description: "Group tracks by genre, key, year, artist or rating and rank by count, playCount or totalTime",
			Params:      []string{"group_by", "aggregate_by", "top_n"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					GroupBy     string `json:"group_by"`
					AggregateBy string `json:"aggregate_by"`
					TopN        int    `json:"top_n"`
				}](args)
				if err != nil {
					return nil, err
				}
				if a.AggregateBy == "" {
					a.AggregateBy = "count"
				}
				if err := require("group_by", a.GroupBy); err != nil {
					return nil, err
				}
				return lib.AnalyzeLibrary(ctx, a.GroupBy, a.AggregateBy, orDefault(a.TopN, 10))
			},
		},
		{
			Name:        "validate_track_ids",
			Description: "Partition track ids into valid and invalid",
			Params:      []string{"track_ids"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					TrackIDs []string `json:"track_ids"`
				}](args)
				if err != nil {
					return nil, err
				}
				return lib.ValidateTrackIDs(ctx, a.TrackIDs)
			},
		},
		{
			Name:        "get_playlists",
			Description: "List live playlists, folders and smart playlists",
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				return lib.GetPlaylists(ctx)
			},
		},
		{
			Name:        "get_playlist_tracks",
			Description: "Get the tracks of a playlist in playlist order",
			Params:      []string{"playlist_id"},
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					PlaylistID string `json:"playlist_id"`
				}](args)
				if err != nil {
					return nil, err
				}
				if err := require("playlist_id", a.PlaylistID); err != nil {
					return nil, err
				}
				return lib.GetPlaylistTracks(ctx, a.PlaylistID)
			},
		},
		{
			Name:        "get_playlist_tree",
			Description: "Get playlists nested under their folders",
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				return lib.PlaylistTree(ctx)
			},
		},
		{
			Name:        "get_library_stats",
			Description: "Summarize track count, playtime, average bpm and genres",
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				return lib.LibraryStats(ctx)
			},
		},
		{
			Name:        "get_database_status",
			Description: "Report the connection state of the library",
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				return lib.Status(ctx), nil
			},
		},
		{
			Name:        "update_track_rating",
			Description: "Set a track's rating (0-5); the database is backed up first",
			Params:      []string{"track_id", "rating"},
			Mutates:     true,
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					TrackID string `json:"track_id"`
					Rating  *int   `json:"rating"`
				}](args)
				if err != nil {
					return nil, err
				}
				if err := require("track_id", a.TrackID); err != nil {
					return nil, err
				}
				if a.Rating == nil {
					return nil, fmt.Errorf("%w: rating", shared.ErrMissingArgument)
				}
				return lib.UpdateRating(ctx, a.TrackID, *a.Rating)
			},
		},
		{
			Name:        "update_track_play_count",
			Description: "Set a track's play count; the database is backed up first",
			Params:      []string{"track_id", "play_count"},
			Mutates:     true,
			call: func(ctx context.Context, lib Library, args json.RawMessage) (any, error) {
				a, err := decode[struct {
					TrackID   string `json:"track_id"`
					PlayCount *int   `json:"play_count"`
				}](args)
				if err != nil {
					return nil, err
				}
				if err := require("track_id", a.TrackID); err != nil {
					return nil, err
				}
				if a.PlayCount == nil {
					return nil, fmt.Errorf("%w: play_count", shared.ErrMissingArgument)
				}
				return lib.UpdatePlayCount(ctx, a.TrackID, *a.PlayCount)
			},
		},
	}
}

// ToolHandler serves [Tools] against a [Library].
type ToolHandler struct {
	lib    Library
	tools  map[string]Tool
	order  []string
	logger *log.Logger
}

// NewToolHandler creates a [ToolHandler] serving every tool in the catalogue.
func NewToolHandler(lib Library, logger *log.Logger) *ToolHandler {
	h := &ToolHandler{lib: lib, tools: make(map[string]Tool), logger: logger}
	for _, t := range Tools() {
		h.tools[t.Name] = t
		h.order = append(h.order, t.Name)
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *ToolHandler) Routes() []string {
	return []string{"GET /tools", "POST /tools/{name}", "GET /status"}
}

func (h *ToolHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/tools":
		h.list(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/status":
		h.status(w, r)
	default:
		h.call(w, r, r.PathValue("name"))
	}
}

func (h *ToolHandler) list(w http.ResponseWriter, r *http.Request) {
	tools := make([]Tool, 0, len(h.order))
	for _, name := range h.order {
		tools = append(tools, h.tools[name])
	}
	writeJSON(w, http.StatusOK, envelope{RequestID: RequestIDFrom(r.Context()), Result: tools})
}

func (h *ToolHandler) status(w http.ResponseWriter, r *http.Request) {
	st := h.lib.Status(r.Context())
	code := http.StatusOK
	if st.State != models.StateConnected {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, envelope{RequestID: RequestIDFrom(r.Context()), Result: st})
}

func (h *ToolHandler) call(w http.ResponseWriter, r *http.Request, name string) {
	env := envelope{Tool: name, RequestID: RequestIDFrom(r.Context())}

	tool, ok := h.tools[name]
	if !ok {
		env.Error = fmt.Sprintf("unknown tool %q", name)
		writeJSON(w, http.StatusNotFound, env)
		return
	}

	args, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		env.Error = fmt.Sprintf("failed to read arguments: %v", err)
		writeJSON(w, http.StatusBadRequest, env)
		return
	}

	result, err := tool.call(r.Context(), h.lib, args)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			h.logger.Error("tool failed", "tool", name, "err", err, "request_id", env.RequestID)
		} else {
			h.logger.Debug("tool rejected", "tool", name, "err", err, "request_id", env.RequestID)
		}
		env.Error = err.Error()
		if tool.Mutates && !isNil(result) {
			env.Result = result
		}
		writeJSON(w, code, env)
		return
	}

	env.Result = result
	writeJSON(w, http.StatusOK, env)
}

// isNil reports whether v is nil or a nil pointer held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	if m, ok := v.(*models.MutationResult); ok {
		return m == nil
	}
	return false
}

type statusCode struct {
	err  error
	code int
}

// statusCodes is checked in order, so more specific causes come first.
var statusCodes = []statusCode{
	{shared.ErrTrackNotFound, http.StatusNotFound},
	{shared.ErrPlaylistNotFound, http.StatusNotFound},
	{shared.ErrNotConnected, http.StatusServiceUnavailable},
	{shared.ErrConnectionLost, http.StatusServiceUnavailable},
	{shared.ErrInvalidArgument, http.StatusBadRequest},
	{shared.ErrMissingArgument, http.StatusBadRequest},
	{shared.ErrReadOnlySource, http.StatusConflict},
	{shared.ErrMutationFailed, http.StatusInternalServerError},
}

// statusFor maps a library error to an HTTP status.
func statusFor(err error) int {
	idx := slices.IndexFunc(statusCodes, func(s statusCode) bool { return errors.Is(err, s.err) })
	if idx < 0 {
		return http.StatusInternalServerError
	}
	return statusCodes[idx].code
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}
