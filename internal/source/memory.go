package source

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// Memory is an in-memory [Source] over map records.
//
// Set CommitErr to make the next updates fail before anything is written, and
// PingErr to simulate a lost connection.
type Memory struct {
	mu        sync.RWMutex
	content   []models.Fields
	playlists []models.Fields
	songs     []models.Fields
	path      string
	closed    bool

	CommitErr error
	PingErr   error
}

// NewMemory creates a [Memory] source holding copies of the given rows.
func NewMemory(content, playlists, songs []models.Fields) *Memory {
	return &Memory{content: cloneRows(content), playlists: cloneRows(playlists), songs: cloneRows(songs)}
}

// WithPath sets the path reported by [Memory.Path].
func (m *Memory) WithPath(path string) *Memory {
	m.path = path
	return m
}

func cloneRows(rows []models.Fields) []models.Fields {
	out := make([]models.Fields, len(rows))
	for i, r := range rows {
		out[i] = maps.Clone(r)
	}
	return out
}

func records(rows []models.Fields) []models.Record {
	out := make([]models.Record, len(rows))
	for i, r := range rows {
		out[i] = maps.Clone(r)
	}
	return out
}

func (m *Memory) read(rows func() []models.Fields) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, shared.ErrConnectionLost
	}
	return records(rows()), nil
}

func (m *Memory) Content(ctx context.Context) ([]models.Record, error) {
	return m.read(func() []models.Fields { return m.content })
}

func (m *Memory) Playlists(ctx context.Context) ([]models.Record, error) {
	return m.read(func() []models.Fields { return m.playlists })
}

func (m *Memory) PlaylistSongs(ctx context.Context, playlistID string) ([]models.Record, error) {
	return m.read(func() []models.Fields {
		if playlistID == "" {
			return m.songs
		}
		var rows []models.Fields
		for _, r := range m.songs {
			if sameID(r["PlaylistID"], playlistID) {
				rows = append(rows, r)
			}
		}
		return rows
	})
}

func (m *Memory) UpdateContent(ctx context.Context, id, field string, value int) (int, error) {
	if !writable(field) {
		return 0, fmt.Errorf("%w: field %s is not writable", shared.ErrInvalidArgument, field)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, shared.ErrConnectionLost
	}

	for _, r := range m.content {
		if !sameID(r["ID"], id) || deleted(r) {
			continue
		}
		if m.CommitErr != nil {
			return 0, m.CommitErr
		}
		r[field] = value
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return shared.ErrConnectionLost
	}
	return m.PingErr
}

func (m *Memory) Path() string { return m.path }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// sameID compares a stored identifier with a requested one in canonical integer form when both parse.
func sameID(stored any, id string) bool {
	if stored == nil {
		return false
	}
	s := strings.TrimSpace(fmt.Sprint(stored))
	a, errA := strconv.ParseInt(s, 10, 64)
	b, errB := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if errA == nil && errB == nil {
		return a == b
	}
	return s == id
}

// deleted is the inverse of the library's liveness rule: an absent or null
// marker is live, 0 is live, and anything else, including unparseable values, is deleted.
func deleted(r models.Fields) bool {
	v, ok := r["rb_local_deleted"]
	if !ok || v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(v)), 64)
	return err != nil || n != 0
}
