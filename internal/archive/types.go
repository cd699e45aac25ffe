package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item is the document served by the metadata endpoint.
type Item struct {
	Metadata Metadata   `json:"metadata"`
	Files    []File     `json:"files"`
	Members  []Metadata `json:"members,omitempty"`
}

// HasMembers reports whether the item lists its members inline. An empty
// members array still counts.
func (it *Item) HasMembers() bool { return it.Members != nil }

// Metadata describes an item. Search result documents share this shape.
type Metadata struct {
	Identifier Text    `json:"identifier"`
	Mediatype  Text    `json:"mediatype"`
	Title      Text    `json:"title,omitempty"`
	Creator    Strings `json:"creator,omitempty"`
	Artist     Strings `json:"artist,omitempty"`
	Date       Text    `json:"date,omitempty"`
}

// File is one entry of an item's file listing. Derived files name their
// source in Original.
type File struct {
	Name     string  `json:"name"`
	Format   Text    `json:"format"`
	Title    Text    `json:"title,omitempty"`
	Original Text    `json:"original,omitempty"`
	Track    Text    `json:"track,omitempty"`
	Length   Text    `json:"length,omitempty"`
	Bitrate  Text    `json:"bitrate,omitempty"`
	Mtime    Text    `json:"mtime,omitempty"`
	Genre    Text    `json:"genre,omitempty"`
	Creator  Strings `json:"creator,omitempty"`
	Artist   Strings `json:"artist,omitempty"`
}

// SearchResult is a page of advancedsearch documents.
type SearchResult struct {
	Query    string
	NumFound int
	Docs     []Metadata
}

// Text is a string attribute. The archive is loose about types, so a JSON
// number or the first element of an array is accepted as well.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '[':
		var list []Text
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = ""
		if len(list) > 0 {
			*t = list[0]
		}
	case '{':
		return fmt.Errorf("cannot decode object into text: %s", data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			// true / false
			*t = Text(data)
			return nil
		}
		*t = Text(n.String())
	}
	return nil
}

// Strings is a list attribute that may also arrive as a single value.
type Strings []string

func (s *Strings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '[' {
		var list []Text
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make(Strings, 0, len(list))
		for _, v := range list {
			out = append(out, string(v))
		}
		*s = out
		return nil
	}
	var v Text
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Strings{string(v)}
	return nil
}

// Contains reports whether v is one of the values.
func (s Strings) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Internet Archive API response types

type searchResponse struct {
	ResponseHeader struct {
		Params struct {
			Q Text `json:"q"`
		} `json:"params"`
	} `json:"responseHeader"`
	Response struct {
		NumFound int        `json:"numFound"`
		Docs     []Metadata `json:"docs"`
	} `json:"response"`
}

type metadataEnvelope struct {
	Error  *string         `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}
