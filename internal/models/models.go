// Package models holds the library entities produced from archive data.
package models

// Model is implemented by every library entity. The set is closed.
type Model interface {
	model()
}

// Artist is a performer, composer or creator.
type Artist struct {
	URI  string `json:"uri,omitempty"`
	Name string `json:"name"`
}

// Album is an archive item presented as an album.
type Album struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists,omitempty"`
	Date    string   `json:"date,omitempty"`
}

// Track is a single audio file of an archive item.
type Track struct {
	URI          string   `json:"uri"`
	Name         string   `json:"name"`
	Album        *Album   `json:"album,omitempty"`
	Artists      []Artist `json:"artists,omitempty"`
	Composers    []Artist `json:"composers,omitempty"`
	Performers   []Artist `json:"performers,omitempty"`
	Genre        string   `json:"genre,omitempty"`
	Date         string   `json:"date,omitempty"`
	Comment      string   `json:"comment,omitempty"`
	TrackNo      int      `json:"track_no,omitempty"`
	Length       int      `json:"length,omitempty"`  // milliseconds
	Bitrate      int      `json:"bitrate,omitempty"` // kbit/s
	LastModified int64    `json:"last_modified,omitempty"`
}

// Image is a cover image reachable by URL.
type Image struct {
	URI string `json:"uri"`
}

// RefType is the kind of entry a Ref points to.
type RefType string

const (
	RefDirectory RefType = "directory"
	RefAlbum     RefType = "album"
	RefArtist    RefType = "artist"
	RefTrack     RefType = "track"
)

// Ref is a lightweight browse entry.
type Ref struct {
	URI  string  `json:"uri"`
	Name string  `json:"name"`
	Type RefType `json:"type"`
}

func DirectoryRef(uri, name string) Ref { return Ref{URI: uri, Name: name, Type: RefDirectory} }
func AlbumRef(uri, name string) Ref     { return Ref{URI: uri, Name: name, Type: RefAlbum} }
func ArtistRef(uri, name string) Ref    { return Ref{URI: uri, Name: name, Type: RefArtist} }
func TrackRef(uri, name string) Ref     { return Ref{URI: uri, Name: name, Type: RefTrack} }

// SearchResult is the outcome of a library search.
type SearchResult struct {
	URI    string  `json:"uri"`
	Albums []Album `json:"albums"`
}

// ArtistNames returns the names of artists, in order.
func ArtistNames(artists []Artist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

func (Artist) model() {}
func (Album) model()  {}
func (Track) model()  {}
func (Image) model()  {}
func (Ref) model()    {}
