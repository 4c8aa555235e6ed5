package tagcache

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]Entry
	index   map[Tag]map[string]struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]Entry),
		index:   make(map[Tag]map[string]struct{}),
	}
}

func (b *MemoryBackend) Get(_ context.Context, key string) (Entry, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.entries[key]
	return entry, ok, nil
}

func (b *MemoryBackend) Put(_ context.Context, key string, entry Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.entries[key]; ok {
		b.unlinkLocked(key, old.Tags)
	}
	entry.Tags = uniqueTags(entry.Tags)
	b.entries[key] = entry
	for _, tag := range entry.Tags {
		keys, ok := b.index[tag]
		if !ok {
			keys = make(map[string]struct{})
			b.index[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (b *MemoryBackend) MarkStale(_ context.Context, tags []Tag) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	affected := make(map[string]struct{})
	for _, tag := range tags {
		for key := range b.index[tag] {
			affected[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(affected))
	for key := range affected {
		entry := b.entries[key]
		entry.Stale = true
		b.entries[key] = entry
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *MemoryBackend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.entries[key]; ok {
		b.unlinkLocked(key, old.Tags)
		delete(b.entries, key)
	}
	return nil
}

// Len returns the number of cached entries.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *MemoryBackend) unlinkLocked(key string, tags []Tag) {
	for _, tag := range tags {
		keys := b.index[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(b.index, tag)
		}
	}
}
