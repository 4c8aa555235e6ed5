package tagcache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is the cached state of one query.
//
// Data always holds the last successful result. A failed fetch keeps it and
// records Err instead, so callers can keep showing stale data next to an error.
type Entry struct {
	Data      json.RawMessage `json:"data,omitempty"`
	Err       string          `json:"error,omitempty"`
	Tags      []Tag           `json:"tags,omitempty"`
	Stale     bool            `json:"stale,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Fresh reports whether the entry can be served without a fetch.
func (e Entry) Fresh() bool {
	return !e.Stale && e.Err == ""
}

// Failed reports whether the last fetch ended in an error.
func (e Entry) Failed() bool {
	return e.Err != ""
}

// Backend stores entries together with a tag to key index.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
	// MarkStale flags every entry carrying one of the tags and returns their keys.
	MarkStale(ctx context.Context, tags []Tag) ([]string, error)
	Remove(ctx context.Context, key string) error
}

// NopBackend never stores anything; every query goes to the network.
type NopBackend struct{}

func (NopBackend) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }

func (NopBackend) Put(context.Context, string, Entry) error { return nil }

func (NopBackend) MarkStale(context.Context, []Tag) ([]string, error) { return nil, nil }

func (NopBackend) Remove(context.Context, string) error { return nil }
