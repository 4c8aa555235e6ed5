package persistent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"content-planner/services/planner/internal/entity"

	"github.com/google/uuid"
)

// Collection gives typed access to the document of one kind.
type Collection[T entity.Record[T]] struct {
	store Store
	kind  entity.Kind
	newID func() string
}

func NewCollection[T entity.Record[T]](store Store, kind entity.Kind) *Collection[T] {
	return &Collection[T]{
		store: store,
		kind:  kind,
		newID: func() string { return uuid.New().String() },
	}
}

func (c *Collection[T]) Kind() entity.Kind {
	return c.kind
}

// ReadAll returns the records in store order; an absent document reads as empty.
func (c *Collection[T]) ReadAll(ctx context.Context) ([]T, error) {
	data, exists, err := c.store.Load(ctx, c.kind)
	if err != nil {
		return nil, err
	}
	return c.decode(data, exists)
}

// WriteAll replaces the whole document. Records without an id get one.
func (c *Collection[T]) WriteAll(ctx context.Context, records []T) error {
	data, err := c.encode(c.assignIDs(records))
	if err != nil {
		return err
	}
	return c.store.Save(ctx, c.kind, data)
}

// Update runs fn over the current records under the kind's lock and writes
// back what it returns. An error from fn aborts without writing; ErrNoChange
// does so silently.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	err := c.store.Mutate(ctx, c.kind, func(current []byte, exists bool) ([]byte, error) {
		records, err := c.decode(current, exists)
		if err != nil {
			return nil, err
		}
		next, err := fn(records)
		if err != nil {
			return nil, err
		}
		return c.encode(c.assignIDs(next))
	})
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	return err
}

// RemoveWhere deletes every record matching match and returns them.
func (c *Collection[T]) RemoveWhere(ctx context.Context, match func(T) bool) ([]T, error) {
	var removed []T
	err := c.Update(ctx, func(records []T) ([]T, error) {
		kept := make([]T, 0, len(records))
		for _, record := range records {
			if match(record) {
				removed = append(removed, record)
				continue
			}
			kept = append(kept, record)
		}
		if len(removed) == 0 {
			return nil, ErrNoChange
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// UpdateWhere rewrites every record matching match with fn and returns the
// rewritten records.
func (c *Collection[T]) UpdateWhere(ctx context.Context, match func(T) bool, fn func(T) T) ([]T, error) {
	var changed []T
	err := c.Update(ctx, func(records []T) ([]T, error) {
		for i, record := range records {
			if !match(record) {
				continue
			}
			records[i] = fn(record).WithID(record.GetID())
			changed = append(changed, records[i])
		}
		if len(changed) == 0 {
			return nil, ErrNoChange
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (c *Collection[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	records, err := c.ReadAll(ctx)
	if err != nil {
		return zero, err
	}
	if i := indexOf(records, id); i >= 0 {
		return records[i], nil
	}
	return zero, ErrNotFound
}

// Insert appends record, assigning a fresh id when it has none.
func (c *Collection[T]) Insert(ctx context.Context, record T) (T, error) {
	if record.GetID() == "" {
		record = record.WithID(c.newID())
	}
	err := c.Update(ctx, func(records []T) ([]T, error) {
		if indexOf(records, record.GetID()) >= 0 {
			return nil, fmt.Errorf("%s %s already exists", c.kind, record.GetID())
		}
		return append(records, record), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return record, nil
}

// Replace swaps the record with the result of fn. The id is kept whatever fn
// returns.
func (c *Collection[T]) Replace(ctx context.Context, id string, fn func(current T) (T, error)) (T, error) {
	var updated T
	err := c.Update(ctx, func(records []T) ([]T, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		next, err := fn(records[i])
		if err != nil {
			return nil, err
		}
		updated = next.WithID(id)
		records[i] = updated
		return records, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Remove deletes the record and returns it. A missing id leaves the document
// untouched.
func (c *Collection[T]) Remove(ctx context.Context, id string) (T, error) {
	var removed T
	err := c.Update(ctx, func(records []T) ([]T, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		removed = records[i]
		return append(records[:i], records[i+1:]...), nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return removed, nil
}

func (c *Collection[T]) assignIDs(records []T) []T {
	for i, record := range records {
		if record.GetID() == "" {
			records[i] = record.WithID(c.newID())
		}
	}
	return records
}

func (c *Collection[T]) decode(data []byte, exists bool) ([]T, error) {
	records := make([]T, 0)
	if !exists || len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s collection: %w", c.kind, err)
	}
	if records == nil {
		records = make([]T, 0)
	}
	return records, nil
}

func (c *Collection[T]) encode(records []T) ([]byte, error) {
	return encodeRecords(c.kind, records)
}

func encodeRecords[T any](kind entity.Kind, records []T) ([]byte, error) {
	if records == nil {
		records = make([]T, 0)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s collection: %w", kind, err)
	}
	return data, nil
}

func indexOf[T entity.Record[T]](records []T, id string) int {
	for i, record := range records {
		if record.GetID() == id {
			return i
		}
	}
	return -1
}

// Repositories bundles the four collections over one store.
type Repositories struct {
	Store     Store
	Posts     *Collection[entity.Post]
	Channels  *Collection[entity.Channel]
	Campaigns *Collection[entity.Campaign]
	Schedules *Collection[entity.Schedule]
}

func NewRepositories(store Store) *Repositories {
	return &Repositories{
		Store:     store,
		Posts:     NewCollection[entity.Post](store, entity.KindPost),
		Channels:  NewCollection[entity.Channel](store, entity.KindChannel),
		Campaigns: NewCollection[entity.Campaign](store, entity.KindCampaign),
		Schedules: NewCollection[entity.Schedule](store, entity.KindSchedule),
	}
}
