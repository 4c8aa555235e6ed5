package tagcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"content-planner/pkg/logger"

	"golang.org/x/sync/singleflight"
)

type EventType string

const (
	EventFetched EventType = "fetched"
	EventFailed  EventType = "failed"
	EventStale   EventType = "stale"
)

// Event tells observers that the entry under Key changed.
type Event struct {
	Type EventType
	Key  string
	Tags []Tag
}

// QueryDef describes a cacheable read. ProvidesTags is only consulted for
// successful results; failures are cached without tags.
type QueryDef[A, R any] struct {
	Endpoint     string
	Fetch        func(ctx context.Context, arg A) (R, error)
	ProvidesTags func(result R, arg A) []Tag
}

// MutationDef describes a write. Its result is never read from the cache.
type MutationDef[A, R any] struct {
	Endpoint        string
	Do              func(ctx context.Context, arg A) (R, error)
	InvalidatesTags func(result R, arg A) []Tag
}

type Option func(*Cache)

// WithEagerRefetch refetches invalidated entries right after the mutation
// instead of waiting for the next observation.
func WithEagerRefetch() Option {
	return func(c *Cache) { c.eager = true }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Cache) { c.logger = log }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

type Cache struct {
	backend Backend
	group   singleflight.Group
	logger  *logger.Logger
	now     func() time.Time
	eager   bool

	mu        sync.Mutex
	refetches map[string]func(context.Context) error
	observers map[int]func(Event)
	nextID    int
	// clock counts invalidations; epochs holds the clock value of the last
	// invalidation of each tag.
	clock  uint64
	epochs map[Tag]uint64
}

// fetchResult is what one load hands to every caller sharing it.
type fetchResult struct {
	data  []byte
	tags  []Tag
	start uint64
}

// maxRejoins bounds how often a caller that joined an outdated in-flight fetch
// starts another one.
const maxRejoins = 3

func New(backend Backend, opts ...Option) *Cache {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	c := &Cache{
		backend:   backend,
		now:       time.Now,
		refetches: make(map[string]func(context.Context) error),
		observers: make(map[int]func(Event)),
		epochs:    make(map[Tag]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query serves a fresh cached result or fetches it, sharing one in-flight
// request between concurrent callers with the same identity.
func Query[A, R any](ctx context.Context, c *Cache, def QueryDef[A, R], arg A) (R, error) {
	var result R

	key, err := Key(def.Endpoint, arg)
	if err != nil {
		return result, err
	}

	if entry, ok := c.lookup(ctx, key); ok && entry.Fresh() {
		if err := json.Unmarshal(entry.Data, &result); err == nil {
			return result, nil
		}
		c.logger.Warn("Discarding undecodable cache entry %s", key)
	}

	load := func(ctx context.Context) ([]byte, []Tag, error) {
		value, err := def.Fetch(ctx, arg)
		if err != nil {
			return nil, nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, nil, fmt.Errorf("encode result of %s: %w", def.Endpoint, err)
		}
		var tags []Tag
		if def.ProvidesTags != nil {
			tags = def.ProvidesTags(value, arg)
		}
		return data, tags, nil
	}
	c.remember(key, load)

	data, err := c.do(ctx, key, load)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decode result of %s: %w", def.Endpoint, err)
	}
	return result, nil
}

// Peek returns the last good result of a query without fetching, along with
// the entry state (stale flag, last error).
func Peek[A, R any](ctx context.Context, c *Cache, def QueryDef[A, R], arg A) (R, Entry, bool, error) {
	var result R

	key, err := Key(def.Endpoint, arg)
	if err != nil {
		return result, Entry{}, false, err
	}
	entry, ok := c.lookup(ctx, key)
	if !ok {
		return result, Entry{}, false, nil
	}
	if len(entry.Data) > 0 {
		if err := json.Unmarshal(entry.Data, &result); err != nil {
			return result, entry, true, fmt.Errorf("decode result of %s: %w", def.Endpoint, err)
		}
	}
	return result, entry, true, nil
}

// Mutate runs a write and, only if it succeeds, invalidates the tags it declares.
func Mutate[A, R any](ctx context.Context, c *Cache, def MutationDef[A, R], arg A) (R, error) {
	result, err := def.Do(ctx, arg)
	if err != nil {
		return result, err
	}
	if def.InvalidatesTags != nil {
		if _, err := c.Invalidate(ctx, def.InvalidatesTags(result, arg)...); err != nil {
			c.logger.Warn("Failed to invalidate tags after %s: %v", def.Endpoint, err)
		}
	}
	return result, nil
}

// Invalidate marks every entry carrying one of the tags as stale and returns
// the affected keys.
//
// Fetches already in flight for those tags store their result as stale, and
// callers arriving afterwards do not share them. The epochs are per process:
// an invalidation made by another process reaches in-flight fetches here only
// when it is replayed through Invalidate, e.g. from a change event.
func (c *Cache) Invalidate(ctx context.Context, tags ...Tag) ([]string, error) {
	tags = uniqueTags(tags)
	if len(tags) == 0 {
		return nil, nil
	}

	// The epoch must move before the backend is touched, see fetch.
	c.mu.Lock()
	c.clock++
	for _, tag := range tags {
		c.epochs[tag] = c.clock
	}
	c.mu.Unlock()

	keys, err := c.backend.MarkStale(ctx, tags)
	if err != nil {
		return keys, fmt.Errorf("mark stale: %w", err)
	}
	for _, key := range keys {
		c.group.Forget(key)
		c.emit(Event{Type: EventStale, Key: key, Tags: tags})
	}

	if c.eager && len(keys) > 0 {
		if err := c.Refetch(ctx, keys...); err != nil {
			c.logger.Warn("Eager refetch failed: %v", err)
		}
	}
	return keys, nil
}

// Refetch fetches the given keys again. Keys whose query was never run by this
// process are skipped.
func (c *Cache) Refetch(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		c.mu.Lock()
		refetch, ok := c.refetches[key]
		c.mu.Unlock()
		if !ok {
			continue
		}
		if err := refetch(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the raw entry stored under key.
func (c *Cache) Lookup(ctx context.Context, key string) (Entry, bool) {
	return c.lookup(ctx, key)
}

// Forget drops an entry and its refetch hook.
func (c *Cache) Forget(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.refetches, key)
	c.mu.Unlock()
	return c.backend.Remove(ctx, key)
}

// Subscribe registers fn for entry change events. The returned function
// removes the subscription.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Cache) lookup(ctx context.Context, key string) (Entry, bool) {
	entry, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache lookup of %s failed, fetching instead: %v", key, err)
		return Entry{}, false
	}
	return entry, ok
}

func (c *Cache) remember(key string, load func(context.Context) ([]byte, []Tag, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refetches[key] = func(ctx context.Context) error {
		_, err := c.do(ctx, key, load)
		return err
	}
}

// do shares one fetch per key. A caller that joined a fetch started before an
// invalidation it has already seen fetches again instead of taking its result.
func (c *Cache) do(ctx context.Context, key string, load func(context.Context) ([]byte, []Tag, error)) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		joined := c.epoch()
		value, err, _ := c.group.Do(key, func() (interface{}, error) {
			return c.fetch(ctx, key, load)
		})
		if err != nil {
			return nil, err
		}
		result := value.(fetchResult)
		if attempt < maxRejoins && c.invalidatedBetween(result.tags, result.start, joined) {
			continue
		}
		return result.data, nil
	}
}

// fetch loads and stores one result. Invalidate moves the epoch before it marks
// entries, so an invalidation racing with the Put is either seen by the
// re-check after it or marks the stored entry itself.
func (c *Cache) fetch(ctx context.Context, key string, load func(context.Context) ([]byte, []Tag, error)) (fetchResult, error) {
	start := c.epoch()
	data, tags, err := load(ctx)
	if err != nil {
		previous, _ := c.lookup(ctx, key)
		c.store(ctx, key, Entry{Data: previous.Data, Err: err.Error(), FetchedAt: c.now()})
		c.emit(Event{Type: EventFailed, Key: key})
		return fetchResult{}, err
	}

	entry := Entry{Data: data, Tags: tags, FetchedAt: c.now()}
	entry.Stale = c.invalidatedSince(tags, start)
	c.store(ctx, key, entry)
	if !entry.Stale && c.invalidatedSince(tags, start) {
		entry.Stale = true
		c.store(ctx, key, entry)
	}

	c.emit(Event{Type: EventFetched, Key: key, Tags: uniqueTags(tags)})
	if entry.Stale {
		c.emit(Event{Type: EventStale, Key: key, Tags: uniqueTags(tags)})
	}
	return fetchResult{data: data, tags: tags, start: start}, nil
}

func (c *Cache) epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

func (c *Cache) invalidatedSince(tags []Tag, since uint64) bool {
	return c.invalidatedBetween(tags, since, ^uint64(0))
}

// invalidatedBetween reports whether one of the tags was invalidated after
// epoch from and no later than epoch to.
func (c *Cache) invalidatedBetween(tags []Tag, from, to uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		if e := c.epochs[tag]; e > from && e <= to {
			return true
		}
	}
	return false
}

func (c *Cache) store(ctx context.Context, key string, entry Entry) {
	if err := c.backend.Put(ctx, key, entry); err != nil {
		c.logger.Warn("Failed to cache %s: %v", key, err)
	}
}

func (c *Cache) emit(event Event) {
	c.mu.Lock()
	observers := make([]func(Event), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(event)
	}
}
