// Package library exposes the archive as a browsable, searchable music
// library.
package library

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"iarchive/internal/archive"
	"iarchive/internal/config"
	"iarchive/internal/logger"
	"iarchive/internal/models"
	"iarchive/internal/query"
	"iarchive/internal/translator"
	"iarchive/internal/uri"
)

// RootName is the display name of the root directory.
const RootName = "Internet Archive"

const defaultBrowseOrder = "downloads desc"

var ErrTrackNotFound = errors.New("track not found")

var (
	browseFields = []string{"identifier", "title", "mediatype", "creator"}
	searchFields = []string{"identifier", "title", "creator", "date"}
)

// Client is the subset of the archive client the library needs.
type Client interface {
	Search(ctx context.Context, p archive.SearchParams) (*archive.SearchResult, error)
	Item(ctx context.Context, identifier string) (*archive.Item, error)
	Bookmarks(ctx context.Context, user string) ([]archive.Metadata, error)
	URL(identifier, filename string) string
	ClearCache() error
}

// Provider answers browse, search and lookup requests.
type Provider struct {
	client Client
	cfg    config.Config
	log    *logger.Logger

	browseFilter string
	searchFilter string

	mu     sync.Mutex
	tracks map[string]models.Track // tracks of the most recently fetched item
}

// New creates a Provider.
func New(client Client, cfg config.Config, log *logger.Logger) *Provider {
	formats := translator.Group(map[string][]string{"format": cfg.AudioFormats}, translator.Or)
	return &Provider{
		client:       client,
		cfg:          cfg,
		log:          log,
		browseFilter: "(mediatype:collection OR " + formats + ")",
		searchFilter: formats,
		tracks:       make(map[string]models.Track),
	}
}

// Root returns the top-level directory.
func (p *Provider) Root() models.Ref {
	return models.DirectoryRef(translator.URI("", ""), RootName)
}

// Browse lists the entries below s. Track URIs have no children.
func (p *Provider) Browse(ctx context.Context, s string) ([]models.Ref, error) {
	u, err := uri.Split(s)
	if err != nil {
		return nil, err
	}
	switch {
	case u.Fragment != "":
		return nil, nil
	case len(u.Query) > 0:
		return p.browseCollection(ctx, u.Path, u.Query)
	case u.Path != "":
		return p.browseItem(ctx, u.Path)
	default:
		return p.browseRoot(ctx)
	}
}

func (p *Provider) browseCollection(ctx context.Context, identifier string, params url.Values) ([]models.Ref, error) {
	var qs string
	if identifier != "" {
		qs = "collection:" + identifier
	} else {
		qs = strings.Join(params["q"], " AND ")
	}
	sort := params["sort"]
	if len(sort) == 0 {
		sort = []string{defaultBrowseOrder}
	}

	result, err := p.client.Search(ctx, archive.SearchParams{
		Query:  and(qs, p.browseFilter),
		Fields: browseFields,
		Sort:   sort,
		Rows:   p.cfg.BrowseLimit,
	})
	if err != nil {
		return nil, err
	}

	refs := make([]models.Ref, 0, len(result.Docs))
	for _, doc := range result.Docs {
		refs = append(refs, translator.Ref(doc))
	}
	return refs, nil
}

func (p *Provider) browseItem(ctx context.Context, identifier string) ([]models.Ref, error) {
	item, err := p.client.Item(ctx, identifier)
	if err != nil {
		return nil, err
	}

	switch {
	case item.Metadata.Mediatype != "collection":
		tracks := p.cacheTracks(item)
		refs := make([]models.Ref, 0, len(tracks))
		for _, t := range tracks {
			refs = append(refs, models.TrackRef(t.URI, t.Name))
		}
		return refs, nil
	case item.HasMembers():
		refs := make([]models.Ref, 0, len(item.Members))
		for _, m := range item.Members {
			refs = append(refs, translator.Ref(m))
		}
		return refs, nil
	default:
		return p.views(identifier), nil
	}
}

func (p *Provider) browseRoot(ctx context.Context) ([]models.Ref, error) {
	if len(p.cfg.Collections) == 0 {
		return nil, nil
	}

	result, err := p.client.Search(ctx, archive.SearchParams{
		Query: translator.Group(map[string][]string{
			"mediatype":  {"collection"},
			"identifier": p.cfg.Collections,
		}, translator.Or),
		Fields: browseFields,
		Rows:   len(p.cfg.Collections),
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]archive.Metadata, len(result.Docs))
	for _, doc := range result.Docs {
		byID[string(doc.Identifier)] = doc
	}

	var refs []models.Ref
	for _, id := range p.cfg.Collections {
		doc, ok := byID[id]
		if !ok {
			p.log.Warn("Internet Archive collection %q not found", id)
			continue
		}
		refs = append(refs, translator.Ref(doc))
	}
	return refs, nil
}

func (p *Provider) views(identifier string) []models.Ref {
	refs := make([]models.Ref, 0, len(p.cfg.BrowseViews))
	for _, v := range p.cfg.BrowseViews {
		u := translator.QueryURI(identifier, url.Values{"sort": {v.Order}})
		refs = append(refs, models.DirectoryRef(u, v.Name))
	}
	return refs
}

// Search finds albums matching fields within the collections named by
// uris, or the configured collections when uris is empty or contains the
// root. Exact criteria are matched locally against the remote results.
// Criteria the archive cannot express yield a nil result.
func (p *Provider) Search(ctx context.Context, fields map[string][]string, uris []string, exact bool) (*models.SearchResult, error) {
	q, err := query.New(fields, exact)
	if err != nil {
		return nil, err
	}

	qs, err := translator.Query(fields, p.scope(uris), false)
	if err != nil {
		if errors.Is(err, translator.ErrUnsupportedField) {
			p.log.Info("Not searching Internet Archive: %v", err)
			return nil, nil
		}
		return nil, err
	}
	p.log.Debug("Internet Archive query: %s", qs)

	result, err := p.client.Search(ctx, archive.SearchParams{
		Query:  and(qs, p.searchFilter),
		Fields: searchFields,
		Sort:   p.cfg.SearchOrder,
		Rows:   p.cfg.SearchLimit,
	})
	if err != nil {
		return nil, err
	}

	albums := make([]models.Album, 0, len(result.Docs))
	for _, doc := range result.Docs {
		albums = append(albums, translator.Album(doc))
	}
	if exact {
		albums, err = filterAlbums(q, albums)
		if err != nil {
			return nil, err
		}
	}
	return &models.SearchResult{
		URI:    translator.QueryURI("", url.Values{"q": {result.Query}}),
		Albums: albums,
	}, nil
}

// albumFields are the criteria an album result carries enough data to match.
var albumFields = []query.Field{
	query.FieldURI,
	query.FieldAlbum,
	query.FieldArtist,
	query.FieldAlbumArtist,
	query.FieldDate,
	query.FieldAny,
}

// filterAlbums keeps the albums matching the album-level criteria of q.
// Track-level criteria were already applied remotely and are ignored.
func filterAlbums(q *query.Query, albums []models.Album) ([]models.Album, error) {
	all := q.Map()
	criteria := make(map[string][]string)
	for _, f := range albumFields {
		if values, ok := all[string(f)]; ok {
			criteria[string(f)] = values
		}
	}
	if len(criteria) == 0 {
		return albums, nil
	}
	aq, err := query.New(criteria, true)
	if err != nil {
		return nil, err
	}
	return aq.FilterAlbums(albums), nil
}

func (p *Provider) scope(uris []string) []string {
	root := p.Root().URI
	if len(uris) == 0 {
		uris = []string{root}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range uris {
		if s != root {
			add(s)
			continue
		}
		for _, id := range p.cfg.Collections {
			add(translator.URI(id, ""))
		}
	}
	return out
}

// Lookup returns the track named by s, or every track of an item URI.
func (p *Provider) Lookup(ctx context.Context, s string) ([]models.Track, error) {
	p.mu.Lock()
	t, ok := p.tracks[s]
	p.mu.Unlock()
	if ok {
		return []models.Track{t}, nil
	}
	p.log.Debug("Lookup cache miss for %q", s)

	tracks, err := p.lookup(ctx, s)
	if err != nil {
		p.log.Error("Lookup failed for %s: %v", s, err)
		return nil, err
	}
	return tracks, nil
}

func (p *Provider) lookup(ctx context.Context, s string) ([]models.Track, error) {
	u, err := uri.Split(s)
	if err != nil {
		return nil, err
	}
	item, err := p.client.Item(ctx, u.Path)
	if err != nil {
		return nil, err
	}

	tracks := p.cacheTracks(item)
	if u.Fragment == "" {
		return tracks, nil
	}
	for _, t := range tracks {
		if t.URI == s {
			return []models.Track{t}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, s)
}

// cacheTracks converts item and replaces the lookup cache with its tracks.
func (p *Provider) cacheTracks(item *archive.Item) []models.Track {
	tracks := translator.Tracks(item, p.cfg.AudioFormats)
	byURI := make(map[string]models.Track, len(tracks))
	for _, t := range tracks {
		byURI[t.URI] = t
	}

	p.mu.Lock()
	p.tracks = byURI
	p.mu.Unlock()
	return tracks
}

// Images returns the images of each URI's item, keyed by URI. URIs without
// an identifier are skipped.
func (p *Provider) Images(ctx context.Context, uris []string) (map[string][]models.Image, error) {
	byID := make(map[string][]string)
	var order []string
	for _, s := range uris {
		u, err := uri.Split(s)
		if err != nil || u.Path == "" {
			p.log.Warn("No images for %s", s)
			continue
		}
		if _, ok := byID[u.Path]; !ok {
			order = append(order, u.Path)
		}
		byID[u.Path] = append(byID[u.Path], s)
	}

	results := make(map[string][]models.Image, len(uris))
	for _, id := range order {
		item, err := p.client.Item(ctx, id)
		if err != nil {
			return nil, err
		}
		images := translator.Images(item, p.cfg.ImageFormats, p.client.URL)
		for _, s := range byID[id] {
			results[s] = images
		}
	}
	return results, nil
}

// Bookmarks lists the items bookmarked by user.
func (p *Provider) Bookmarks(ctx context.Context, user string) ([]models.Ref, error) {
	docs, err := p.client.Bookmarks(ctx, user)
	if err != nil {
		return nil, err
	}
	refs := make([]models.Ref, 0, len(docs))
	for _, doc := range docs {
		refs = append(refs, translator.Ref(doc))
	}
	return refs, nil
}

// Refresh drops every cached item and track.
func (p *Provider) Refresh() error {
	p.mu.Lock()
	p.tracks = make(map[string]models.Track)
	p.mu.Unlock()
	return p.client.ClearCache()
}

func and(terms ...string) string {
	var nonEmpty []string
	for _, t := range terms {
		if t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	return strings.Join(nonEmpty, " AND ")
}
