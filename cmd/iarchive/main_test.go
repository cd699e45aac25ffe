package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iarchive/internal/archive"
	"iarchive/internal/cache"
	"iarchive/internal/config"
	"iarchive/internal/library"
	"iarchive/internal/logger"
	"iarchive/internal/models"
)

func newTestApp(t *testing.T, handler http.HandlerFunc) (*app, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.CachePath = ""

	client := archive.New(cfg.BaseURL, time.Second, archive.WithCache(cache.NewMemory(0)))
	var out bytes.Buffer
	return &app{
		cfg:    cfg,
		log:    logger.Nop(),
		client: client,
		lib:    library.New(client, cfg, logger.Nop()),
		out:    &out,
	}, &out
}

func TestSearchCommand(t *testing.T) {
	var gotQuery string
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"responseHeader":{"params":{"q":"creator:(\"Grateful Dead\")"}},"response":{"numFound":1,"docs":[
			{"identifier":"gd1977","title":"Barton Hall","creator":"Grateful Dead","date":"1977-05-08"}
		]}}`))
	})

	require.NoError(t, a.search(context.Background(), []string{"artist=Grateful Dead"}, []string{"internetarchive:etree"}, false))
	assert.Contains(t, gotQuery, `creator:("Grateful Dead")`)
	assert.Contains(t, gotQuery, `collection:(etree)`)
	assert.Contains(t, out.String(), "1 albums")
	assert.Contains(t, out.String(), "internetarchive:gd1977  Barton Hall - Grateful Dead (1977-05-08)")
}

func TestSearchCommandUnsupported(t *testing.T) {
	a, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	require.NoError(t, a.search(context.Background(), []string{"track_no=3"}, nil, false))
	assert.Equal(t, "No results\n", out.String())

	assert.Error(t, a.search(context.Background(), nil, nil, false))
}

func TestPrintTracks(t *testing.T) {
	var buf bytes.Buffer
	printTracks(&buf, []models.Track{{
		URI:     "internetarchive:gd1977#d1t01.mp3",
		Name:    "Minglewood Blues",
		TrackNo: 1,
		Artists: []models.Artist{{Name: "Grateful Dead"}},
		Length:  330000,
		Bitrate: 192,
	}})
	assert.Equal(t, "  1. Minglewood Blues - Grateful Dead [5:30] 192 kbit/s\n     internetarchive:gd1977#d1t01.mp3\n", buf.String())
}

func TestPrintRefs(t *testing.T) {
	var buf bytes.Buffer
	printRefs(&buf, []models.Ref{models.AlbumRef("internetarchive:gd1977", "Barton Hall")})
	assert.Equal(t, "album     internetarchive:gd1977  Barton Hall\n", buf.String())
}

func TestFormatLength(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{59999, "0:59"},
		{180000, "3:00"},
		{3723000, "1:02:03"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatLength(tt.ms))
	}
}
