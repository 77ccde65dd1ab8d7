package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/rbx/internal/models"
	"github.com/desertthunder/rbx/internal/shared"
)

// rekordbox.xml playlist node types
const (
	xmlNodeFolder   = 0
	xmlNodePlaylist = 1
)

// xmlRatingStep is the size of one star in the 0-255 rating scale of exports.
const xmlRatingStep = 51

type xmlDocument struct {
	XMLName    xml.Name      `xml:"DJ_PLAYLISTS"`
	Version    string        `xml:"Version,attr"`
	Product    xmlProduct    `xml:"PRODUCT"`
	Collection xmlCollection `xml:"COLLECTION"`
	Root       xmlNode       `xml:"PLAYLISTS>NODE"`
}

type xmlProduct struct {
	Name    string `xml:"Name,attr"`
	Version string `xml:"Version,attr"`
	Company string `xml:"Company,attr"`
}

type xmlCollection struct {
	Entries int        `xml:"Entries,attr"`
	Tracks  []xmlTrack `xml:"TRACK"`
}

type xmlTrack struct {
	TrackID      string `xml:"TrackID,attr"`
	Name         string `xml:"Name,attr"`
	Artist       string `xml:"Artist,attr"`
	Album        string `xml:"Album,attr"`
	Genre        string `xml:"Genre,attr"`
	TotalTime    string `xml:"TotalTime,attr"`
	Year         string `xml:"Year,attr"`
	AverageBpm   string `xml:"AverageBpm,attr"`
	DateAdded    string `xml:"DateAdded,attr"`
	DateModified string `xml:"DateModified,attr"`
	BitRate      string `xml:"BitRate,attr"`
	SampleRate   string `xml:"SampleRate,attr"`
	Comments     string `xml:"Comments,attr"`
	PlayCount    string `xml:"PlayCount,attr"`
	Rating       string `xml:"Rating,attr"`
	Location     string `xml:"Location,attr"`
	Tonality     string `xml:"Tonality,attr"`
}

type xmlNode struct {
	Type    int           `xml:"Type,attr"`
	Name    string        `xml:"Name,attr"`
	KeyType int           `xml:"KeyType,attr"`
	Tracks  []xmlNodeItem `xml:"TRACK"`
	Nodes   []xmlNode     `xml:"NODE"`
}

type xmlNodeItem struct {
	Key string `xml:"Key,attr"`
}

// XML is a read-only [Source] over a rekordbox.xml collection export.
//
// Exports carry no soft-delete markers and no playlist ids, so playlists are
// numbered in document order and every row is live.
type XML struct {
	path string

	mu        sync.RWMutex
	content   []models.Fields
	playlists []models.Fields
	songs     []models.Fields
	closed    bool
}

// OpenXML parses the export at path.
func OpenXML(path string) (*XML, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	x, err := ParseXML(f)
	if err != nil {
		return nil, err
	}
	x.path = path
	return x, nil
}

// ParseXML decodes a rekordbox.xml document.
func ParseXML(r io.Reader) (*XML, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse rekordbox xml: %w", err)
	}

	x := &XML{}
	byLocation := make(map[string]string, len(doc.Collection.Tracks))
	for _, t := range doc.Collection.Tracks {
		x.content = append(x.content, xmlTrackFields(t))
		byLocation[t.Location] = t.TrackID
	}

	next := 0
	var walk func(n xmlNode, parent string)
	walk = func(n xmlNode, parent string) {
		for _, child := range n.Nodes {
			next++
			id := strconv.Itoa(next)
			attr := 0
			if child.Type == xmlNodeFolder {
				attr = 1
			}
			x.playlists = append(x.playlists, models.Fields{
				"ID":        id,
				"Seq":       next,
				"Name":      child.Name,
				"Attribute": attr,
				"ParentID":  parent,
			})
			for i, item := range child.Tracks {
				contentID := item.Key
				if child.KeyType == 1 {
					contentID = byLocation[item.Key]
				}
				x.songs = append(x.songs, models.Fields{
					"ID":         fmt.Sprintf("%s-%d", id, i+1),
					"PlaylistID": id,
					"ContentID":  contentID,
					"TrackNo":    i + 1,
				})
			}
			if child.Type == xmlNodeFolder {
				walk(child, id)
			}
		}
	}
	walk(doc.Root, "root")
	return x, nil
}

func xmlTrackFields(t xmlTrack) models.Fields {
	f := models.Fields{
		"ID":          t.TrackID,
		"Title":       t.Name,
		"ArtistName":  t.Artist,
		"AlbumName":   t.Album,
		"GenreName":   t.Genre,
		"KeyName":     t.Tonality,
		"Length":      atoi(t.TotalTime),
		"DJPlayCount": atoi(t.PlayCount),
		"Rating":      xmlRating(atoi(t.Rating)),
		"BitRate":     atoi(t.BitRate),
		"SampleRate":  atoi(t.SampleRate),
		"FolderPath":  locationPath(t.Location),
		"DateCreated": t.DateAdded,
		"StockDate":   t.DateModified,
		"Commnt":      t.Comments,
	}
	if y := atoi(t.Year); y > 0 {
		f["ReleaseYear"] = y
	}
	if bpm, err := strconv.ParseFloat(strings.TrimSpace(t.AverageBpm), 64); err == nil {
		f["BPM"] = int(math.Round(bpm * 100))
	}
	return f
}

// xmlRating maps the 0-255 export scale to stars. Values already in 0-5 are kept.
func xmlRating(v int) int {
	if v <= 5 {
		return max(v, 0)
	}
	return min(v/xmlRatingStep, 5)
}

// locationPath turns a file://localhost URL into a file path.
func locationPath(loc string) string {
	if loc == "" {
		return ""
	}
	u, err := url.Parse(loc)
	if err != nil || u.Scheme != "file" {
		return loc
	}
	path := u.Path
	// file://localhost/C:/Music on Windows
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func (x *XML) read(rows []models.Fields) ([]models.Record, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, shared.ErrConnectionLost
	}
	return records(rows), nil
}

func (x *XML) Content(ctx context.Context) ([]models.Record, error) { return x.read(x.content) }

func (x *XML) Playlists(ctx context.Context) ([]models.Record, error) { return x.read(x.playlists) }

func (x *XML) PlaylistSongs(ctx context.Context, playlistID string) ([]models.Record, error) {
	if playlistID == "" {
		return x.read(x.songs)
	}
	var rows []models.Fields
	for _, r := range x.songs {
		if sameID(r["PlaylistID"], playlistID) {
			rows = append(rows, r)
		}
	}
	return x.read(rows)
}

// UpdateContent always fails: exports are never written back.
func (x *XML) UpdateContent(ctx context.Context, id, field string, value int) (int, error) {
	return 0, shared.ErrReadOnlySource
}

// ReadOnly reports that the source rejects updates.
func (x *XML) ReadOnly() bool { return true }

func (x *XML) Ping(ctx context.Context) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return shared.ErrConnectionLost
	}
	return nil
}

func (x *XML) Path() string { return x.path }

func (x *XML) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	return nil
}
