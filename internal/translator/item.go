package translator

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"iarchive/internal/archive"
	"iarchive/internal/models"
	"iarchive/internal/parsing"
	"iarchive/internal/uri"
)

// Scheme prefixes every library URI.
const Scheme = "internetarchive"

// URI identifies an item, or one of its files when filename is set.
func URI(identifier, filename string) string {
	return uri.Compose(Scheme, identifier, filename, nil)
}

// QueryURI identifies a saved search, optionally within a collection.
func QueryURI(identifier string, q url.Values) string {
	return uri.Compose(Scheme, identifier, "", q)
}

// Artists converts creator names, skipping blanks.
func Artists(names archive.Strings) []models.Artist {
	var out []models.Artist
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		out = append(out, models.Artist{Name: name})
	}
	return out
}

func metadataArtists(md archive.Metadata) []models.Artist {
	if len(md.Artist) > 0 {
		return Artists(md.Artist)
	}
	return Artists(md.Creator)
}

func fileArtists(f archive.File) []models.Artist {
	if len(f.Artist) > 0 {
		return Artists(f.Artist)
	}
	return Artists(f.Creator)
}

func nameOf(md archive.Metadata) string {
	if md.Title != "" {
		return string(md.Title)
	}
	return string(md.Identifier)
}

// Album converts item or search document metadata.
func Album(md archive.Metadata) models.Album {
	return models.Album{
		URI:     URI(string(md.Identifier), ""),
		Name:    nameOf(md),
		Artists: metadataArtists(md),
		Date:    parsing.ParseDate(string(md.Date), ""),
	}
}

// Ref converts metadata into a browse entry. Saved searches become
// directories over their query, other items become albums, and collections
// become artists when titled after one of their creators.
func Ref(md archive.Metadata) models.Ref {
	id := string(md.Identifier)
	name := nameOf(md)
	switch {
	case md.Mediatype == "search":
		return models.DirectoryRef(QueryURI("", url.Values{"q": {id}}), name)
	case md.Mediatype != "collection":
		return models.AlbumRef(URI(id, ""), name)
	case md.Creator.Contains(name):
		return models.ArtistRef(URI(id, ""), name)
	default:
		return models.DirectoryRef(URI(id, ""), name)
	}
}

// SelectFiles returns the files of the first preferred format present.
// Formats compare case-insensitively; an exact format match is preferred
// over a partial one. Derived files inherit unset attributes from their
// original.
func SelectFiles(files []archive.File, formats []string) []archive.File {
	byName := make(map[string]archive.File, len(files))
	byFormat := make(map[string][]archive.File)
	var order []string
	for _, f := range files {
		byName[f.Name] = f
		key := strings.ToLower(string(f.Format))
		if _, ok := byFormat[key]; !ok {
			order = append(order, key)
		}
		byFormat[key] = append(byFormat[key], f)
	}

	selected := selectGroup(byFormat, order, formats)

	out := make([]archive.File, 0, len(selected))
	for _, f := range selected {
		if orig, ok := byName[string(f.Original)]; ok && f.Original != "" {
			f = overlay(orig, f)
		}
		out = append(out, f)
	}
	return out
}

// selectGroup returns the group of the first preferred format present
// exactly. Only when none is present does the first preferred format that is
// a substring of some group select that group.
func selectGroup(byFormat map[string][]archive.File, order, formats []string) []archive.File {
	for _, format := range formats {
		if group, ok := byFormat[strings.ToLower(format)]; ok {
			return group
		}
	}
	for _, format := range formats {
		want := strings.ToLower(format)
		if i := slices.IndexFunc(order, func(k string) bool { return strings.Contains(k, want) }); i >= 0 {
			return byFormat[order[i]]
		}
	}
	return nil
}

// overlay returns base with every non-empty attribute of f applied.
func overlay(base, f archive.File) archive.File {
	base.Name = f.Name
	base.Format = f.Format
	base.Original = f.Original
	setText(&base.Title, f.Title)
	setText(&base.Track, f.Track)
	setText(&base.Length, f.Length)
	setText(&base.Bitrate, f.Bitrate)
	setText(&base.Mtime, f.Mtime)
	setText(&base.Genre, f.Genre)
	if len(f.Creator) > 0 {
		base.Creator = f.Creator
	}
	if len(f.Artist) > 0 {
		base.Artist = f.Artist
	}
	return base
}

func setText(dst *archive.Text, v archive.Text) {
	if v != "" {
		*dst = v
	}
}

// Tracks converts the item's files of the first preferred format, ordered
// by track number then URI. Files without a track number sort first.
func Tracks(item *archive.Item, formats []string) []models.Track {
	id := string(item.Metadata.Identifier)
	album := Album(item.Metadata)

	files := SelectFiles(item.Files, formats)
	tracks := make([]models.Track, 0, len(files))
	for _, f := range files {
		name := string(f.Title)
		if name == "" {
			name = f.Name
		}
		artists := fileArtists(f)
		if len(artists) == 0 {
			artists = album.Artists
		}
		tracks = append(tracks, models.Track{
			URI:          URI(id, f.Name),
			Name:         name,
			Album:        &album,
			Artists:      artists,
			Genre:        string(f.Genre),
			Date:         album.Date,
			TrackNo:      parsing.ParseTrackNo(string(f.Track), 0),
			Length:       parsing.ParseLength(string(f.Length), 0),
			Bitrate:      parsing.ParseBitrate(string(f.Bitrate), 0),
			LastModified: parsing.ParseMtime(string(f.Mtime), 0),
		})
	}

	slices.SortStableFunc(tracks, func(a, b models.Track) int {
		if c := cmp.Compare(a.TrackNo, b.TrackNo); c != 0 {
			return c
		}
		return cmp.Compare(a.URI, b.URI)
	})
	return tracks
}

// Images converts the item's files of the first preferred image format.
// urlFunc maps an identifier and filename to a download location.
func Images(item *archive.Item, formats []string, urlFunc func(identifier, filename string) string) []models.Image {
	id := string(item.Metadata.Identifier)
	var images []models.Image
	for _, f := range SelectFiles(item.Files, formats) {
		images = append(images, models.Image{URI: urlFunc(id, f.Name)})
	}
	return images
}
