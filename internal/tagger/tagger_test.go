package tagger

import (
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"

	"iarchive/internal/models"
)

// createTestAudioFile generates a minimal MP3 using ffmpeg.
// Skips the test if ffmpeg is not available.
func createTestAudioFile(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping tagger test")
	}

	path := filepath.Join(dir, "test.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "0.1", "-q:a", "9", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

func sampleTrack() models.Track {
	return models.Track{
		URI:  "internetarchive:gd1977#d1t02.mp3",
		Name: "Loser",
		Album: &models.Album{
			URI:     "internetarchive:gd1977",
			Name:    "Live at Barton Hall",
			Artists: []models.Artist{{Name: "Grateful Dead"}},
			Date:    "1977-05-08",
		},
		Artists: []models.Artist{{Name: "Grateful Dead"}},
		Genre:   "Rock",
		TrackNo: 2,
	}
}

func TestTags(t *testing.T) {
	got := Tags(sampleTrack())
	want := map[string][]string{
		"TITLE":       {"Loser"},
		"ARTIST":      {"Grateful Dead"},
		"ALBUM":       {"Live at Barton Hall"},
		"ALBUMARTIST": {"Grateful Dead"},
		"TRACKNUMBER": {"2"},
		"DATE":        {"1977-05-08"},
		"GENRE":       {"Rock"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestTagsEmptyTrack(t *testing.T) {
	if got := Tags(models.Track{}); len(got) != 0 {
		t.Errorf("Tags(empty) = %v, want no tags", got)
	}
}

func TestWriteTags(t *testing.T) {
	path := createTestAudioFile(t, t.TempDir())

	if err := WriteTags(path, sampleTrack()); err != nil {
		t.Fatalf("WriteTags failed: %v", err)
	}

	tags, err := ReadTags(path)
	if err != nil {
		t.Fatalf("failed to read tags: %v", err)
	}

	checks := map[string]string{
		"TITLE":       "Loser",
		"ARTIST":      "Grateful Dead",
		"ALBUM":       "Live at Barton Hall",
		"TRACKNUMBER": "2",
		"GENRE":       "Rock",
	}
	for key, want := range checks {
		got := ""
		if vals, ok := tags[key]; ok && len(vals) > 0 {
			got = vals[0]
		}
		if got != want {
			t.Errorf("tag %s = %q, want %q", key, got, want)
		}
	}
}

func TestWriteArtworkEmpty(t *testing.T) {
	if err := WriteArtwork("/nonexistent", nil); err != nil {
		t.Errorf("expected nil error for empty image, got %v", err)
	}
}

func TestWriteTagsNonexistentFile(t *testing.T) {
	if err := WriteTags("/nonexistent/file.mp3", sampleTrack()); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestSubDir(t *testing.T) {
	tests := []struct {
		name  string
		track models.Track
		want  string
	}{
		{"album artist", sampleTrack(), filepath.Join("Grateful Dead", "Live at Barton Hall")},
		{"track artist", models.Track{Artists: []models.Artist{{Name: "AC/DC"}}}, filepath.Join("AC_DC", "Unknown Album")},
		{"unknown", models.Track{}, filepath.Join("Unknown Artist", "Unknown Album")},
	}
	for _, tt := range tests {
		if got := SubDir(tt.track); got != tt.want {
			t.Errorf("%s: SubDir() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
