package models

// Track is a normalized library track.
//
// BPM is the stored integer divided by 100. Absent source fields are "" or 0.
type Track struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Album        string  `json:"album"`
	Genre        string  `json:"genre"`
	Key          string  `json:"key"`
	BPM          float64 `json:"bpm"`
	Rating       int     `json:"rating"`
	PlayCount    int     `json:"play_count"`
	Length       int     `json:"length"`
	Year         int     `json:"year"`
	FilePath     string  `json:"file_path"`
	DateAdded    string  `json:"date_added"`
	DateModified string  `json:"date_modified"`
	Bitrate      int     `json:"bitrate"`
	SampleRate   int     `json:"sample_rate"`
	Comments     string  `json:"comments"`
}

// Playlist is a normalized playlist, smart playlist, or folder.
//
// ParentID is nil for root-level playlists.
type Playlist struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	TrackCount      int     `json:"track_count"`
	CreatedDate     string  `json:"created_date"`
	ModifiedDate    string  `json:"modified_date"`
	IsFolder        bool    `json:"is_folder"`
	IsSmartPlaylist bool    `json:"is_smart_playlist"`
	SmartCriteria   *string `json:"smart_criteria"`
	ParentID        *string `json:"parent_id"`
}

// Kind reports the playlist classification as a label.
func (p Playlist) Kind() string {
	switch {
	case p.IsFolder:
		return "folder"
	case p.IsSmartPlaylist:
		return "smart"
	default:
		return "playlist"
	}
}

// Membership places one track in one playlist. OrderKey is only compared, never assumed contiguous.
type Membership struct {
	PlaylistID string `json:"playlist_id"`
	ContentID  string `json:"content_id"`
	OrderKey   int    `json:"order_key"`
}

// PlaylistNode is a playlist with its resolved children, used for tree views.
type PlaylistNode struct {
	Playlist
	Children []*PlaylistNode `json:"children,omitempty"`
}

// FileLocation is the on-disk location of a track.
type FileLocation struct {
	TrackID  string `json:"track_id"`
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}
