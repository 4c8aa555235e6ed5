package entity

import "content-planner/pkg/tagcache"

// ProvidedTags tags a list result: one tag per record plus the LIST tag.
func ProvidedTags[T Record[T]](kind Kind, records []T) []tagcache.Tag {
	tags := make([]tagcache.Tag, 0, len(records)+1)
	for _, record := range records {
		tags = append(tags, kind.ItemTag(record.GetID()))
	}
	return append(tags, kind.ListTag())
}

// CreatedTags is what a successful create invalidates. The new record cannot
// be cached under its own tag yet.
func CreatedTags(kind Kind) []tagcache.Tag {
	return withRelated(kind, kind.ListTag())
}

// ChangedTags is what a successful update or delete of id invalidates.
func ChangedTags(kind Kind, id string) []tagcache.Tag {
	return withRelated(kind, kind.ItemTag(id), kind.ListTag())
}

// schedules feed post adjacent views
func withRelated(kind Kind, tags ...tagcache.Tag) []tagcache.Tag {
	if kind == KindSchedule {
		tags = append(tags, KindPost.ListTag())
	}
	return tags
}
