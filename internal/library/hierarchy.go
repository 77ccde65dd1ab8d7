package library

import (
	"cmp"
	"slices"

	"github.com/desertthunder/rbx/internal/models"
)

// folderAttribute is the Attribute value rekordbox uses for folders.
const folderAttribute = 1

// rootParent is the ParentID sentinel of root-level playlists.
const rootParent = "root"

// Kind is a playlist classification.
type Kind int

const (
	KindRegular Kind = iota
	KindSmart
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindSmart:
		return "smart"
	default:
		return "playlist"
	}
}

// Classify determines whether a playlist record is a folder, smart playlist, or regular playlist.
//
// Folder indicators take precedence over smart-list content. Attribute values other than the folder
// value are regular.
func Classify(rec models.Record) Kind {
	if boolField(rec, fieldIsFolder) || attribute(rec) == folderAttribute {
		return KindFolder
	}
	if stringField(rec, fieldSmartList) != "" {
		return KindSmart
	}
	return KindRegular
}

func attribute(rec models.Record) int {
	f, ok := floatField(rec, fieldAttribute)
	if !ok {
		return -1
	}
	return int(f)
}

// NormalizeParent maps the root sentinel and empty references to nil.
func NormalizeParent(rec models.Record) *string {
	parent := stringField(rec, fieldParentID)
	if parent == "" || parent == rootParent {
		return nil
	}
	if id, ok := CanonicalID(parent); ok {
		if id == "0" {
			return nil
		}
		parent = id
	}
	return &parent
}

// NormalizePlaylist maps a raw playlist record to a [models.Playlist] with the given track count.
func NormalizePlaylist(rec models.Record, trackCount int) models.Playlist {
	kind := Classify(rec)
	p := models.Playlist{
		ID:              idField(rec, fieldID),
		Name:            stringField(rec, fieldName),
		TrackCount:      trackCount,
		CreatedDate:     stringField(rec, fieldCreatedAt),
		ModifiedDate:    stringField(rec, fieldUpdatedAt),
		IsFolder:        kind == KindFolder,
		IsSmartPlaylist: kind == KindSmart,
		ParentID:        NormalizeParent(rec),
	}
	if kind == KindSmart {
		summary := DecodeCriteria(stringField(rec, fieldSmartList))
		p.SmartCriteria = &summary
	}
	return p
}

// MembershipsOf returns the live membership rows of one playlist.
func MembershipsOf(rows []models.Record, playlistID string) []models.Membership {
	want, ok := CanonicalID(playlistID)
	if !ok {
		want = playlistID
	}

	var out []models.Membership
	for _, rec := range rows {
		if !IsLive(rec) {
			continue
		}
		m := normalizeMembership(rec)
		if m.PlaylistID == want {
			out = append(out, m)
		}
	}
	return out
}

// CountMemberships counts live membership rows per playlist id.
func CountMemberships(rows []models.Record) map[string]int {
	counts := make(map[string]int)
	for _, rec := range rows {
		if IsLive(rec) {
			counts[idField(rec, fieldPlaylistID)]++
		}
	}
	return counts
}

func normalizeMembership(rec models.Record) models.Membership {
	return models.Membership{
		PlaylistID: idField(rec, fieldPlaylistID),
		ContentID:  idField(rec, fieldContentID),
		OrderKey:   intField(rec, fieldTrackNo),
	}
}

// OrderTracks sorts memberships by ascending order key (stable) and resolves each against tracks.
// Rows whose track is not present are dropped.
func OrderTracks(memberships []models.Membership, tracks []models.Track) []models.Track {
	index := make(map[string]int, len(tracks))
	for i, t := range tracks {
		if _, seen := index[t.ID]; !seen {
			index[t.ID] = i
		}
	}

	sorted := slices.Clone(memberships)
	slices.SortStableFunc(sorted, func(a, b models.Membership) int {
		return cmp.Compare(a.OrderKey, b.OrderKey)
	})

	ordered := make([]models.Track, 0, len(sorted))
	for _, m := range sorted {
		if i, ok := index[m.ContentID]; ok {
			ordered = append(ordered, tracks[i])
		}
	}
	return ordered
}

// Children returns the playlists whose parent is folderID, in input order.
func Children(playlists []models.Playlist, folderID string) []models.Playlist {
	var out []models.Playlist
	for _, p := range playlists {
		if p.ParentID != nil && *p.ParentID == folderID {
			out = append(out, p)
		}
	}
	return out
}

// BuildTree arranges playlists into a forest.
//
// Each playlist appears exactly once. Playlists whose parent is missing, or
// whose ancestry never reaches a root, are placed at the top level.
func BuildTree(playlists []models.Playlist) []*models.PlaylistNode {
	nodes := make(map[string]*models.PlaylistNode, len(playlists))
	order := make([]string, 0, len(playlists))
	for _, p := range playlists {
		if _, dup := nodes[p.ID]; dup {
			continue
		}
		nodes[p.ID] = &models.PlaylistNode{Playlist: p}
		order = append(order, p.ID)
	}

	children := make(map[string][]string)
	var roots []string
	for _, id := range order {
		parent := nodes[id].ParentID
		if parent == nil || *parent == id || nodes[*parent] == nil {
			roots = append(roots, id)
			continue
		}
		children[*parent] = append(children[*parent], id)
	}

	visited := make(map[string]bool, len(order))
	var attach func(id string) *models.PlaylistNode
	attach = func(id string) *models.PlaylistNode {
		visited[id] = true
		node := nodes[id]
		for _, child := range children[id] {
			if visited[child] {
				continue
			}
			node.Children = append(node.Children, attach(child))
		}
		return node
	}

	forest := make([]*models.PlaylistNode, 0, len(roots))
	for _, id := range roots {
		forest = append(forest, attach(id))
	}
	// Whatever is left sits on a parent cycle.
	for _, id := range order {
		if !visited[id] {
			forest = append(forest, attach(id))
		}
	}
	return forest
}
