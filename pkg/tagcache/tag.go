// Package tagcache is a read-through cache for query results with tag based
// invalidation.
//
// A query is identified by its endpoint name and the canonical JSON encoding of
// its argument. Successful results carry a set of tags; a mutation declares the
// tags it touches, and every entry sharing one of them becomes stale and is
// fetched again the next time it is observed.
package tagcache

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ListID is the sentinel id of the tag that stands for a whole collection.
const ListID = "LIST"

type Tag struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func ItemTag(typ, id string) Tag {
	return Tag{Type: typ, ID: id}
}

func ListTag(typ string) Tag {
	return Tag{Type: typ, ID: ListID}
}

func (t Tag) IsList() bool {
	return t.ID == ListID
}

func (t Tag) String() string {
	return t.Type + ":" + t.ID
}

// Key builds the cache identity of a query.
func Key(endpoint string, arg any) (string, error) {
	if arg == nil {
		return endpoint + "()", nil
	}
	encoded, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("encode arguments of %s: %w", endpoint, err)
	}
	if string(encoded) == "null" {
		return endpoint + "()", nil
	}
	return endpoint + "(" + string(encoded) + ")", nil
}

func uniqueTags(tags []Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[Tag]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
