package usecase

import (
	"context"
	"time"

	"content-planner/pkg/logger"
	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/repo/persistent"
)

// Notifier broadcasts the tags a mutation invalidated to other processes.
type Notifier interface {
	PublishInvalidation(ctx context.Context, tags []tagcache.Tag) error
}

type nopNotifier struct{}

func (nopNotifier) PublishInvalidation(context.Context, []tagcache.Tag) error { return nil }

// ChangeEvents fans a successful mutation out to the server cache and the
// notifier. Neither failure undoes the mutation.
type ChangeEvents struct {
	cache    *tagcache.Cache
	notifier Notifier
	logger   *logger.Logger
}

func NewChangeEvents(cache *tagcache.Cache, notifier Notifier, log *logger.Logger) *ChangeEvents {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ChangeEvents{cache: cache, notifier: notifier, logger: log}
}

func (e *ChangeEvents) Changed(ctx context.Context, tags ...tagcache.Tag) {
	if len(tags) == 0 {
		return
	}
	if _, err := e.cache.Invalidate(ctx, tags...); err != nil {
		e.logger.Warn("Failed to invalidate cached queries: %v", err)
	}
	if err := e.notifier.PublishInvalidation(ctx, tags); err != nil {
		e.logger.Warn("Failed to publish invalidation event: %v", err)
	}
}

// Env carries what every use case shares.
type Env struct {
	Repos   *persistent.Repositories
	Cache   *tagcache.Cache
	Events  *ChangeEvents
	Deleter *Deleter
	Logger  *logger.Logger
	Now     func() time.Time
}

// NewEnv wires the shared dependencies. A nil cache disables server side
// caching, a nil notifier disables change events.
func NewEnv(repos *persistent.Repositories, cache *tagcache.Cache, notifier Notifier, policies DeletePolicies, log *logger.Logger) *Env {
	if cache == nil {
		cache = tagcache.New(tagcache.NopBackend{}, tagcache.WithLogger(log))
	}
	env := &Env{
		Repos:  repos,
		Cache:  cache,
		Events: NewChangeEvents(cache, notifier, log),
		Logger: log,
		Now:    time.Now,
	}
	env.Deleter = NewDeleter(repos, policies, env.now)
	return env
}

func (e *Env) now() time.Time {
	return e.Now().UTC()
}
