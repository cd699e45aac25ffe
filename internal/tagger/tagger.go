// Package tagger writes library metadata into downloaded audio files.
package tagger

import (
	"fmt"
	"path/filepath"
	"strconv"

	"go.senan.xyz/taglib"

	"iarchive/internal/models"
	"iarchive/pkg/utils"
)

// TagLib property keys without a named constant in the binding.
const (
	composer  = "COMPOSER"
	performer = "PERFORMER"
	comment   = "COMMENT"
)

// Tags maps a track to TagLib properties. Empty attributes are omitted.
func Tags(t models.Track) map[string][]string {
	tags := make(map[string][]string)

	if t.Name != "" {
		tags[taglib.Title] = []string{t.Name}
	}
	if names := models.ArtistNames(t.Artists); len(names) > 0 {
		tags[taglib.Artist] = names
	}
	if t.Album != nil {
		if t.Album.Name != "" {
			tags[taglib.Album] = []string{t.Album.Name}
		}
		if names := models.ArtistNames(t.Album.Artists); len(names) > 0 {
			tags[taglib.AlbumArtist] = names
		}
	}
	if names := models.ArtistNames(t.Composers); len(names) > 0 {
		tags[composer] = names
	}
	if names := models.ArtistNames(t.Performers); len(names) > 0 {
		tags[performer] = names
	}
	if t.TrackNo > 0 {
		tags[taglib.TrackNumber] = []string{strconv.Itoa(t.TrackNo)}
	}
	date := t.Date
	if date == "" && t.Album != nil {
		date = t.Album.Date
	}
	if date != "" {
		tags[taglib.Date] = []string{date}
	}
	if t.Genre != "" {
		tags[taglib.Genre] = []string{t.Genre}
	}
	if t.Comment != "" {
		tags[comment] = []string{t.Comment}
	}
	return tags
}

// WriteTags writes the track's metadata to the audio file at path.
func WriteTags(path string, t models.Track) error {
	if err := taglib.WriteTags(path, Tags(t), 0); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}
	return nil
}

// ReadTags returns the tags stored in the audio file at path.
func ReadTags(path string) (map[string][]string, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}
	return tags, nil
}

// WriteArtwork embeds artwork image data into an audio file.
func WriteArtwork(path string, imageData []byte) error {
	if len(imageData) == 0 {
		return nil
	}
	if err := taglib.WriteImage(path, imageData); err != nil {
		return fmt.Errorf("failed to write artwork to %s: %w", path, err)
	}
	return nil
}

// SubDir returns an "Artist/Album" directory for filing the track.
func SubDir(t models.Track) string {
	var artist, album string
	if t.Album != nil {
		album = t.Album.Name
		if len(t.Album.Artists) > 0 {
			artist = t.Album.Artists[0].Name
		}
	}
	if artist == "" && len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}

	if artist == "" {
		artist = "Unknown Artist"
	}
	if album == "" {
		album = "Unknown Album"
	}

	return filepath.Join(utils.SanitizePath(artist), utils.SanitizePath(album))
}
