// Package translator converts between library models and the archive's
// search syntax and item documents.
package translator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"iarchive/internal/query"
	"iarchive/internal/uri"
)

var (
	ErrUnsupportedField  = errors.New("field not supported")
	ErrInvalidURI        = errors.New("cannot search uri")
	ErrExactNotSupported = errors.New("exact queries not supported")
)

var reserved = regexp.MustCompile(`([+!(){}\[\]^"~*?:\\]|&&|\|\|)`)

// Quote renders value as a phrase with reserved characters escaped.
func Quote(value string) string {
	return `"` + reserved.ReplaceAllString(value, `\${1}`) + `"`
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Quote(v)
	}
	return out
}

type renderFunc func(values []string) (string, error)

func group(field, sep string) renderFunc {
	return func(values []string) (string, error) {
		return field + ":(" + strings.Join(quoteAll(values), sep) + ")", nil
	}
}

// fieldTerms maps query fields to archive search terms. track_no has no
// archive counterpart.
var fieldTerms = map[query.Field]renderFunc{
	query.FieldAny: func(values []string) (string, error) {
		return strings.Join(quoteAll(values), " AND "), nil
	},
	query.FieldAlbum:       group("title", " "),
	query.FieldTrackName:   group("title", " "),
	query.FieldArtist:      group("creator", " "),
	query.FieldAlbumArtist: group("creator", " "),
	query.FieldComposer:    group("creator", " "),
	query.FieldPerformer:   group("creator", " "),
	query.FieldGenre:       group("subject", " "),
	query.FieldComment:     group("description", " "),
	query.FieldDate: func(values []string) (string, error) {
		terms := make([]string, len(values))
		for i, v := range values {
			terms[i] = "date:" + Quote(v)
		}
		return strings.Join(terms, " AND "), nil
	},
	query.FieldURI: func(values []string) (string, error) {
		ids := make([]string, len(values))
		for i, v := range values {
			u, err := uri.Split(v)
			if err != nil {
				return "", err
			}
			if u.Path == "" {
				return "", fmt.Errorf("%w %q", ErrInvalidURI, v)
			}
			ids[i] = u.Path
		}
		return group("identifier", " ")(ids)
	},
}

// Criteria renders search criteria as an archive query. Fields are emitted
// in canonical order and joined with AND.
func Criteria(fields map[string][]string) (string, error) {
	for name := range fields {
		if _, ok := fieldTerms[query.Field(name)]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedField, name)
		}
	}

	var terms []string
	for _, f := range query.Fields() {
		values, ok := fields[string(f)]
		if !ok {
			continue
		}
		if len(values) == 0 {
			return "", fmt.Errorf("%w for %q", query.ErrMissingValue, f)
		}
		term, err := fieldTerms[f](values)
		if err != nil {
			return "", err
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, " AND "), nil
}

// Scoped restricts criteria to the collections named by uris. Root URIs
// are ignored.
func Scoped(criteria string, uris []string) (string, error) {
	var collections []string
	for _, s := range uris {
		u, err := uri.Split(s)
		if err != nil {
			return "", err
		}
		switch {
		case u.Path != "":
			collections = append(collections, u.Path)
		case u.Fragment != "" || len(u.Query) > 0:
			return "", fmt.Errorf("%w %q", ErrInvalidURI, s)
		}
	}

	var terms []string
	if criteria != "" {
		terms = append(terms, criteria)
	}
	if len(collections) > 0 {
		terms = append(terms, "collection:("+strings.Join(collections, " OR ")+")")
	}
	return strings.Join(terms, " AND "), nil
}

// Query translates criteria scoped to uris. Exact matching cannot be
// expressed remotely; callers filter the results locally instead.
func Query(fields map[string][]string, uris []string, exact bool) (string, error) {
	if exact {
		return "", ErrExactNotSupported
	}
	criteria, err := Criteria(fields)
	if err != nil {
		return "", err
	}
	return Scoped(criteria, uris)
}

// Operator joins the values of a group.
type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// Group renders each field as field:("v1" OP "v2"), with fields sorted and
// joined with AND. Fields without values are skipped.
func Group(fields map[string][]string, op Operator) string {
	names := make([]string, 0, len(fields))
	for name, values := range fields {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	terms := make([]string, len(names))
	for i, name := range names {
		terms[i] = name + ":(" + strings.Join(quoteAll(fields[name]), " "+string(op)+" ") + ")"
	}
	return strings.Join(terms, " AND ")
}
