// Package uri composes and splits the opaque identifiers used to address
// archive items, files and saved queries:
//
//	scheme:identifier            an item or collection
//	scheme:identifier#filename   a single file
//	scheme:?q=...&sort=...       a saved search or browse directive
package uri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalid is returned for identifiers that cannot be split.
var ErrInvalid = errors.New("invalid uri")

// URI is the decomposed form of an opaque identifier.
type URI struct {
	Scheme   string
	Path     string
	Fragment string
	Query    url.Values
}

// Compose builds an identifier. A non-empty fragment takes precedence over
// the query; the query is encoded with its keys sorted.
func Compose(scheme, path, fragment string, query url.Values) string {
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteByte(':')
	b.WriteString(escapePath(path))

	switch {
	case fragment != "":
		b.WriteByte('#')
		b.WriteString((&url.URL{Fragment: fragment}).EscapedFragment())
	case len(query) > 0:
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

// String recomposes u.
func (u URI) String() string {
	return Compose(u.Scheme, u.Path, u.Fragment, u.Query)
}

// IsRoot reports whether u addresses the scheme root.
func (u URI) IsRoot() bool {
	return u.Path == "" && u.Fragment == "" && len(u.Query) == 0
}

// Split decomposes an identifier. Query is never nil.
func Split(s string) (URI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URI{}, fmt.Errorf("%w %q: %w", ErrInvalid, s, err)
	}

	path := u.Opaque
	if path == "" {
		path = strings.TrimPrefix(u.EscapedPath(), "/")
	}
	path, err = url.PathUnescape(path)
	if err != nil {
		return URI{}, fmt.Errorf("%w path %q: %w", ErrInvalid, s, err)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return URI{}, fmt.Errorf("%w query %q: %w", ErrInvalid, s, err)
	}

	return URI{
		Scheme:   u.Scheme,
		Path:     path,
		Fragment: u.Fragment,
		Query:    query,
	}, nil
}

func escapePath(path string) string {
	return strings.ReplaceAll(url.PathEscape(path), "%2F", "/")
}
