package parsing

import (
	"testing"

	"iarchive/internal/logger"
)

func init() {
	logger.SetDefault(logger.Nop())
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1:02:03", 3723000},
		{"3:00", 180000},
		{"90", 90000},
		{"180.27", 180000},
		{"00:00:05", 5000},
		{"", -1},
		{"bad", -1},
		{":30", -1},
		{"3000000000000000:0:0", -1},
		{"99999999999999999999", -1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLength(tt.input, -1); got != tt.want {
				t.Errorf("ParseLength(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2014", "2014-01-01"},
		{"2014-05", "2014-05-01"},
		{"2014-05-12", "2014-05-12"},
		{"2014-05-12T10:00:00Z", "2014-05-12"},
		{"2014-5", "2014-01-01"},
		{"not-a-date", "default"},
		{"201", "default"},
		{"", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseDate(tt.input, "default"); got != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTrackNo(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"3/12", 3},
		{"7", 7},
		{" 4 ", 4},
		{"x", 0},
		{"/12", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseTrackNo(tt.input, 0); got != tt.want {
				t.Errorf("ParseTrackNo(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"128", 128},
		{"192.7", 192},
		{"320.0", 320},
		{"NaN", 0},
		{"fast", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseBitrate(tt.input, 0); got != tt.want {
				t.Errorf("ParseBitrate(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMtime(t *testing.T) {
	if got := ParseMtime("1388534400", 0); got != 1388534400 {
		t.Errorf("ParseMtime() = %d, want 1388534400", got)
	}
	if got := ParseMtime("yesterday", 42); got != 42 {
		t.Errorf("ParseMtime(bad) = %d, want default 42", got)
	}
	if got := ParseMtime("", 42); got != 42 {
		t.Errorf("ParseMtime(empty) = %d, want default 42", got)
	}
}
