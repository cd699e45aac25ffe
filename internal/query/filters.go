package query

import "iarchive/internal/models"

// filterTable maps every field to a predicate for one model kind.
type filterTable[M any] map[Field]func(Value, M) bool

var trackFilters = newTable(map[Field]func(Value, *models.Track) bool{
	FieldURI:       func(v Value, t *models.Track) bool { return v.Equal(t.URI) },
	FieldTrackName: func(v Value, t *models.Track) bool { return v.Equal(t.Name) },
	FieldTrackNo: func(v Value, t *models.Track) bool {
		n, ok := v.Int()
		return ok && t.TrackNo != 0 && n == t.TrackNo
	},
	FieldAlbum: func(v Value, t *models.Track) bool {
		return t.Album != nil && v.Equal(t.Album.Name)
	},
	FieldArtist:    func(v Value, t *models.Track) bool { return anyArtist(v, t.Artists) },
	FieldComposer:  func(v Value, t *models.Track) bool { return anyArtist(v, t.Composers) },
	FieldPerformer: func(v Value, t *models.Track) bool { return anyArtist(v, t.Performers) },
	FieldAlbumArtist: func(v Value, t *models.Track) bool {
		return t.Album != nil && anyArtist(v, t.Album.Artists)
	},
	FieldGenre:   func(v Value, t *models.Track) bool { return v.Equal(t.Genre) },
	FieldDate:    func(v Value, t *models.Track) bool { return v.Equal(t.Date) },
	FieldComment: func(v Value, t *models.Track) bool { return v.Equal(t.Comment) },
})

var albumFilters = newTable(map[Field]func(Value, *models.Album) bool{
	FieldURI:         func(v Value, a *models.Album) bool { return v.Equal(a.URI) },
	FieldAlbum:       func(v Value, a *models.Album) bool { return v.Equal(a.Name) },
	FieldArtist:      func(v Value, a *models.Album) bool { return anyArtist(v, a.Artists) },
	FieldAlbumArtist: func(v Value, a *models.Album) bool { return anyArtist(v, a.Artists) },
	FieldDate:        func(v Value, a *models.Album) bool { return v.Equal(a.Date) },
})

var artistFilters = newTable(map[Field]func(Value, *models.Artist) bool{
	FieldURI:    func(v Value, a *models.Artist) bool { return v.Equal(a.URI) },
	FieldArtist: func(v Value, a *models.Artist) bool { return v.Equal(a.Name) },
})

// newTable fills in never-matching predicates for fields that mean nothing to
// the kind and derives "any" as the OR of all other fields.
func newTable[M any](filters map[Field]func(Value, M) bool) filterTable[M] {
	table := make(filterTable[M], len(fieldOrder))
	others := make([]func(Value, M) bool, 0, len(fieldOrder)-1)
	for _, f := range fieldOrder {
		if f == FieldAny {
			continue
		}
		fn, ok := filters[f]
		if !ok {
			fn = never[M]
		}
		table[f] = fn
		others = append(others, fn)
	}
	table[FieldAny] = func(v Value, m M) bool {
		for _, fn := range others {
			if fn(v, m) {
				return true
			}
		}
		return false
	}
	return table
}

func never[M any](Value, M) bool { return false }

func anyArtist(v Value, artists []models.Artist) bool {
	for _, a := range artists {
		if v.Equal(a.Name) {
			return true
		}
	}
	return false
}
