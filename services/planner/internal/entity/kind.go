package entity

import (
	"encoding/json"
	"fmt"

	"content-planner/pkg/tagcache"
)

// Kind names a collection. It doubles as the tag type used for cache invalidation.
type Kind string

const (
	KindPost     Kind = "Post"
	KindChannel  Kind = "Channel"
	KindCampaign Kind = "Campaign"
	KindSchedule Kind = "Schedule"
)

// Kinds lists every collection in seeding order.
var Kinds = []Kind{KindPost, KindChannel, KindCampaign, KindSchedule}

func (k Kind) Valid() bool {
	switch k {
	case KindPost, KindChannel, KindCampaign, KindSchedule:
		return true
	}
	return false
}

// FileName is the document a file store keeps this collection in.
func (k Kind) FileName() string {
	switch k {
	case KindPost:
		return "posts.json"
	case KindChannel:
		return "channels.json"
	case KindCampaign:
		return "campaigns.json"
	case KindSchedule:
		return "schedules.json"
	}
	return ""
}

// Label is the human name used in API messages ("Post not found").
func (k Kind) Label() string {
	return string(k)
}

func (k Kind) ItemTag(id string) tagcache.Tag {
	return tagcache.ItemTag(string(k), id)
}

func (k Kind) ListTag() tagcache.Tag {
	return tagcache.ListTag(string(k))
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// Record is implemented by every persisted entity.
type Record[T any] interface {
	GetID() string
	WithID(id string) T
}

// FieldErrors maps a JSON field name to what is wrong with it.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Optional distinguishes a field that is absent from a patch body from one
// that is present, and from one that is explicitly null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, Set: true}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// IsZero makes absent fields disappear under the omitzero tag option.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

func requireNonNull[T any](errs FieldErrors, field string, o Optional[T]) {
	if o.Set && o.Null {
		errs.Add(field, "must not be null")
	}
}
