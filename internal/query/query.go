// Package query validates search criteria and matches them against library
// models.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"iarchive/internal/models"
)

// Field is a search criteria key.
type Field string

const (
	FieldURI         Field = "uri"
	FieldTrackName   Field = "track_name"
	FieldTrackNo     Field = "track_no"
	FieldAlbum       Field = "album"
	FieldArtist      Field = "artist"
	FieldComposer    Field = "composer"
	FieldPerformer   Field = "performer"
	FieldAlbumArtist Field = "albumartist"
	FieldGenre       Field = "genre"
	FieldDate        Field = "date"
	FieldComment     Field = "comment"
	FieldAny         Field = "any"
)

var fieldOrder = []Field{
	FieldURI,
	FieldTrackName,
	FieldTrackNo,
	FieldAlbum,
	FieldArtist,
	FieldComposer,
	FieldPerformer,
	FieldAlbumArtist,
	FieldGenre,
	FieldDate,
	FieldComment,
	FieldAny,
}

var (
	ErrEmptyQuery       = errors.New("empty query not allowed")
	ErrInvalidField     = errors.New("invalid query field")
	ErrMissingValue     = errors.New("missing query value")
	ErrUnsupportedModel = errors.New("unsupported model type")
)

// Fields returns every valid field in canonical order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

// ValidField reports whether name is a known field.
func ValidField(name string) bool {
	for _, f := range fieldOrder {
		if string(f) == name {
			return true
		}
	}
	return false
}

// Query is a validated, immutable set of search criteria. Values of one
// field must all match (AND), as must all fields.
type Query struct {
	fields map[Field][]Value
	order  []Field
	exact  bool

	track  predicate[*models.Track]
	album  predicate[*models.Album]
	artist predicate[*models.Artist]
}

// New validates criteria and builds a Query. Unless exact is set, values are
// normalized for case-insensitive substring matching.
func New(criteria map[string][]string, exact bool) (*Query, error) {
	if len(criteria) == 0 {
		return nil, ErrEmptyQuery
	}

	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	sort.Strings(names)

	q := &Query{
		fields: make(map[Field][]Value, len(criteria)),
		exact:  exact,
	}
	for _, name := range names {
		if !ValidField(name) {
			return nil, fmt.Errorf("%w %q", ErrInvalidField, name)
		}
		raw := criteria[name]
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w for %q", ErrMissingValue, name)
		}
		values := make([]Value, len(raw))
		for i, s := range raw {
			if strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("%w for %q", ErrMissingValue, name)
			}
			if exact {
				values[i] = Exact(s)
			} else {
				values[i] = Normalized(s)
			}
		}
		q.fields[Field(name)] = values
	}

	for _, f := range fieldOrder {
		if _, ok := q.fields[f]; ok {
			q.order = append(q.order, f)
		}
	}
	return q, nil
}

// FromStrings builds a Query from single-valued criteria.
func FromStrings(criteria map[string]string, exact bool) (*Query, error) {
	m := make(map[string][]string, len(criteria))
	for k, v := range criteria {
		m[k] = []string{v}
	}
	return New(m, exact)
}

// Exact reports whether values are compared byte for byte.
func (q *Query) Exact() bool { return q.exact }

// Len returns the number of fields.
func (q *Query) Len() int { return len(q.order) }

// Fields returns the fields present, in canonical order.
func (q *Query) Fields() []Field {
	return append([]Field(nil), q.order...)
}

// Get returns the values of field, or nil.
func (q *Query) Get(field Field) []Value {
	return append([]Value(nil), q.fields[field]...)
}

// Map returns the criteria as plain strings, normalized unless exact.
func (q *Query) Map() map[string][]string {
	m := make(map[string][]string, len(q.fields))
	for f, values := range q.fields {
		s := make([]string, len(values))
		for i, v := range values {
			s[i] = v.String()
		}
		m[string(f)] = s
	}
	return m
}

// Match reports whether m satisfies the query. Only tracks, albums and
// artists can be matched.
func (q *Query) Match(m models.Model) (bool, error) {
	switch m := m.(type) {
	case models.Track:
		return q.MatchTrack(&m), nil
	case *models.Track:
		return m != nil && q.MatchTrack(m), nil
	case models.Album:
		return q.MatchAlbum(&m), nil
	case *models.Album:
		return m != nil && q.MatchAlbum(m), nil
	case models.Artist:
		return q.MatchArtist(&m), nil
	case *models.Artist:
		return m != nil && q.MatchArtist(m), nil
	default:
		return false, fmt.Errorf("%w: %T", ErrUnsupportedModel, m)
	}
}

func (q *Query) MatchTrack(t *models.Track) bool {
	return q.track.get(func() func(*models.Track) bool { return compile(q, trackFilters) })(t)
}

func (q *Query) MatchAlbum(a *models.Album) bool {
	return q.album.get(func() func(*models.Album) bool { return compile(q, albumFilters) })(a)
}

func (q *Query) MatchArtist(a *models.Artist) bool {
	return q.artist.get(func() func(*models.Artist) bool { return compile(q, artistFilters) })(a)
}

// FilterTracks returns the tracks matching q, preserving order.
func (q *Query) FilterTracks(tracks []models.Track) []models.Track {
	var out []models.Track
	for i := range tracks {
		if q.MatchTrack(&tracks[i]) {
			out = append(out, tracks[i])
		}
	}
	return out
}

// FilterAlbums returns the albums matching q, preserving order.
func (q *Query) FilterAlbums(albums []models.Album) []models.Album {
	var out []models.Album
	for i := range albums {
		if q.MatchAlbum(&albums[i]) {
			out = append(out, albums[i])
		}
	}
	return out
}

// predicate is a combined match function built once per Query and kind.
type predicate[M any] struct {
	once sync.Once
	fn   func(M) bool
}

func (p *predicate[M]) get(build func() func(M) bool) func(M) bool {
	p.once.Do(func() { p.fn = build() })
	return p.fn
}

func compile[M any](q *Query, table filterTable[M]) func(M) bool {
	var filters []func(M) bool
	for _, f := range q.order {
		fn := table[f]
		for _, v := range q.fields[f] {
			filters = append(filters, func(m M) bool { return fn(v, m) })
		}
	}
	return func(m M) bool {
		for _, match := range filters {
			if !match(m) {
				return false
			}
		}
		return true
	}
}
