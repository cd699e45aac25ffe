package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iarchive/internal/archive"
	"iarchive/internal/logger"
	"iarchive/internal/models"
	"iarchive/internal/query"
)

type fakeLibrary struct {
	refreshed bool
}

func (f *fakeLibrary) Root() models.Ref {
	return models.DirectoryRef("internetarchive:", "Internet Archive")
}

func (f *fakeLibrary) Browse(_ context.Context, uri string) ([]models.Ref, error) {
	switch uri {
	case "internetarchive:":
		return []models.Ref{models.DirectoryRef("internetarchive:etree", "Live Music")}, nil
	case "internetarchive:gd1977":
		return []models.Ref{models.TrackRef("internetarchive:gd1977#a.mp3", "Loser")}, nil
	}
	return nil, fmt.Errorf("item %s: %w", uri, archive.ErrNotFound)
}

func (f *fakeLibrary) Search(_ context.Context, fields map[string][]string, uris []string, exact bool) (*models.SearchResult, error) {
	if len(fields) == 0 {
		return nil, query.ErrEmptyQuery
	}
	if _, ok := fields["track_no"]; ok {
		return nil, nil
	}
	return &models.SearchResult{
		URI:    "internetarchive:?q=x",
		Albums: []models.Album{{URI: "internetarchive:gd1977", Name: "Barton Hall"}},
	}, nil
}

func (f *fakeLibrary) Lookup(_ context.Context, uri string) ([]models.Track, error) {
	if uri == "internetarchive:gd1977#a.mp3" {
		return []models.Track{{URI: uri, Name: "Loser", TrackNo: 2}}, nil
	}
	return nil, archive.ErrNotFound
}

func (f *fakeLibrary) Images(_ context.Context, uris []string) (map[string][]models.Image, error) {
	out := make(map[string][]models.Image)
	for _, u := range uris {
		out[u] = []models.Image{{URI: "https://archive.org/download/gd1977/cover.jpg"}}
	}
	return out, nil
}

func (f *fakeLibrary) Refresh() error {
	f.refreshed = true
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeLibrary) {
	t.Helper()
	lib := &fakeLibrary{}
	srv := httptest.NewServer(NewServer(lib, logger.Nop()).Router())
	t.Cleanup(srv.Close)
	return srv, lib
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestBrowseHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/browse")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	refs := decode[[]models.Ref](t, resp)
	assert.Equal(t, []models.Ref{models.DirectoryRef("internetarchive:etree", "Live Music")}, refs)

	resp, err = http.Get(srv.URL + "/api/browse?uri=internetarchive%3Anope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decode[ErrorResponse](t, resp)
	assert.Contains(t, e.Error, "not found")

	resp, err = http.Post(srv.URL+"/api/browse", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSearchHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/search", "application/json",
		strings.NewReader(`{"query": {"artist": ["Grateful Dead"]}}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[models.SearchResult](t, resp)
	require.Len(t, result.Albums, 1)
	assert.Equal(t, "Barton Hall", result.Albums[0].Name)

	resp, err = http.Post(srv.URL+"/api/search", "application/json", strings.NewReader(`{"query": {}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/search", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLookupHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/lookup?uri=" + "internetarchive%3Agd1977%23a.mp3")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	tracks := decode[[]models.Track](t, resp)
	require.Len(t, tracks, 1)
	assert.Equal(t, 2, tracks[0].TrackNo)

	resp, err = http.Get(srv.URL + "/api/lookup")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImagesAndRefreshHandlers(t *testing.T) {
	srv, lib := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/images", "application/json",
		strings.NewReader(`{"uris": ["internetarchive:gd1977"]}`))
	require.NoError(t, err)
	images := decode[map[string][]models.Image](t, resp)
	assert.Len(t, images["internetarchive:gd1977"], 1)

	resp, err = http.Post(srv.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, lib.refreshed)
}

func rpcCall(t *testing.T, srv *httptest.Server, body string) rpcResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/rpc", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return decode[rpcResponse](t, resp)
}

func TestRPC(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := rpcCall(t, srv, `{"jsonrpc": "2.0", "id": 1, "method": "core.library.browse", "params": {"uri": "internetarchive:gd1977"}}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `1`, string(resp.ID))
	var refs []models.Ref
	require.NoError(t, json.Unmarshal(resp.Result, &refs))
	assert.Equal(t, []models.Ref{models.TrackRef("internetarchive:gd1977#a.mp3", "Loser")}, refs)

	resp = rpcCall(t, srv, `{"jsonrpc": "2.0", "id": "s", "method": "core.library.search", "params": {"query": {"track_no": ["1"]}}}`)
	require.Nil(t, resp.Error)
	assert.Equal(t, "null", string(resp.Result))

	resp = rpcCall(t, srv, `{"jsonrpc": "2.0", "id": 2, "method": "core.library.lookup", "params": {"uris": ["internetarchive:gd1977#a.mp3", "internetarchive:nope"]}}`)
	require.Nil(t, resp.Error)
	var lookup map[string][]models.Track
	require.NoError(t, json.Unmarshal(resp.Result, &lookup))
	assert.Len(t, lookup["internetarchive:gd1977#a.mp3"], 1)
	assert.NotNil(t, lookup["internetarchive:nope"])
	assert.Empty(t, lookup["internetarchive:nope"])
}

func TestRPCErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"parse error", `{`, codeParseError},
		{"invalid request", `{"id": 1, "method": "core.library.browse"}`, codeInvalidRequest},
		{"unknown method", `{"jsonrpc": "2.0", "id": 1, "method": "core.playback.play"}`, codeMethodNotFound},
		{"invalid params", `{"jsonrpc": "2.0", "id": 1, "method": "core.library.browse", "params": [1]}`, codeInvalidParams},
		{"application error", `{"jsonrpc": "2.0", "id": 1, "method": "core.library.search", "params": {"query": {}}}`, codeServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rpcCall(t, srv, tt.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestRPCNotification(t *testing.T) {
	srv, lib := newTestServer(t)

	resp, err := http.Post(srv.URL+"/rpc", "application/json",
		strings.NewReader(`{"jsonrpc": "2.0", "method": "core.library.refresh"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, lib.refreshed)
}

func TestWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"jsonrpc": "2.0", "id": 7, "method": "core.library.get_images", "params": {"uris": ["internetarchive:gd1977"]}}`)))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `7`, string(resp.ID))
	assert.JSONEq(t, `{"internetarchive:gd1977": [{"uri": "https://archive.org/download/gd1977/cover.jpg"}]}`, string(resp.Result))
}
