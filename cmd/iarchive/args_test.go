package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")

	opts, err := parseArgs([]string{"-c", cfgPath, "-v", "--exact", "-u", "internetarchive:etree", "search", "artist=Grateful Dead", "1977"})
	require.NoError(t, err)
	assert.Equal(t, "search", opts.command)
	assert.Equal(t, []string{"artist=Grateful Dead", "1977"}, opts.args)
	assert.Equal(t, []string{"internetarchive:etree"}, opts.uris)
	assert.True(t, opts.exact)
	assert.True(t, opts.cfg.Verbose)
	assert.Equal(t, cfgPath, opts.configPath)
}

func TestParseArgsDownloadFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	out := t.TempDir()

	opts, err := parseArgs([]string{"--config", cfgPath, "-p", "8", "-o", out, "download", "internetarchive:gd1977"})
	require.NoError(t, err)
	assert.Equal(t, "download", opts.command)
	assert.Equal(t, 8, opts.cfg.ParallelJobs)
	assert.Equal(t, out, opts.cfg.DownloadDir)
}

func TestParseArgsErrors(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-c", cfgPath, "--bogus", "search", "x"}},
		{"unknown command", []string{"-c", cfgPath, "play"}},
		{"no command", []string{"-c", cfgPath, "-v"}},
		{"missing config path", []string{"search", "-c"}},
		{"bad parallel", []string{"-c", cfgPath, "-p", "many", "download", "x"}},
		{"missing output", []string{"-c", cfgPath, "download", "x", "-o"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	opts, err := parseArgs(nil)
	require.NoError(t, err)
	assert.True(t, opts.help)

	opts, err = parseArgs([]string{"search", "--help"})
	require.NoError(t, err)
	assert.True(t, opts.help)

	opts, err = parseArgs([]string{"--init-config"})
	require.NoError(t, err)
	assert.True(t, opts.initConfig)
}

func TestParseTerms(t *testing.T) {
	got := parseTerms([]string{"artist=Grateful Dead", "album=Barton Hall", "1977", "foo=bar", "artist=Bob Weir"})
	assert.Equal(t, map[string][]string{
		"artist": {"Grateful Dead", "Bob Weir"},
		"album":  {"Barton Hall"},
		"any":    {"1977", "foo=bar"},
	}, got)
}
