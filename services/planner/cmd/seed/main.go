package main

import (
	"context"
	"flag"
	"time"

	"content-planner/pkg/cache"
	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/queue"
	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/app"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/repo/persistent"
)

func main() {
	reset := flag.Bool("reset", false, "overwrite every collection with the sample data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	store, err := persistent.Open(cfg)
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.StoreDriver, err)
		panic(err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seed := persistent.DefaultSeed(time.Now())

	if !*reset {
		seeded, err := persistent.Initialize(ctx, store, seed)
		if err != nil {
			log.Error("Failed to seed data: %v", err)
			panic(err)
		}
		if len(seeded) == 0 {
			log.Info("Every collection already exists, nothing to seed (use -reset to overwrite)")
			return
		}
		for _, kind := range seeded {
			log.Info("Seeded %s collection", kind)
		}
		notify(ctx, cfg, log, listTags(seeded))
		return
	}

	repos := persistent.NewRepositories(store)
	before, err := recordTags(ctx, repos)
	if err != nil {
		log.Error("Failed to read current data: %v", err)
		panic(err)
	}

	if err := persistent.Reset(ctx, store, seed); err != nil {
		log.Error("Failed to reset data: %v", err)
		panic(err)
	}
	log.Info("Reset every collection to the sample data")

	after, err := recordTags(ctx, repos)
	if err != nil {
		log.Error("Failed to read seeded data: %v", err)
		panic(err)
	}
	notify(ctx, cfg, log, append(before, after...))
}

// notify invalidates the shared Redis cache and tells running servers about
// the rewritten collections.
func notify(ctx context.Context, cfg *config.Config, log *logger.Logger, tags []tagcache.Tag) {
	if cfg.CacheBackend == config.CacheBackendRedis {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Warn("Failed to connect to redis, cached queries were not invalidated: %v", err)
		} else {
			keys, err := app.NewCache(cfg, log, redisClient).Invalidate(ctx, tags...)
			if err != nil {
				log.Warn("Failed to invalidate cached queries: %v", err)
			} else {
				log.Info("Invalidated %d cached queries", len(keys))
			}
			redisClient.Close()
		}
	}

	if cfg.RabbitMQEnabled() {
		queueClient, err := queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Warn("Failed to connect to RabbitMQ, servers were not notified: %v", err)
			return
		}
		defer queueClient.Close()
		if err := queueClient.PublishInvalidation(ctx, tags); err != nil {
			log.Warn("Failed to publish invalidation: %v", err)
		}
	}
}

func listTags(kinds []entity.Kind) []tagcache.Tag {
	tags := make([]tagcache.Tag, 0, len(kinds))
	for _, kind := range kinds {
		tags = append(tags, kind.ListTag())
	}
	return tags
}

func recordTags(ctx context.Context, repos *persistent.Repositories) ([]tagcache.Tag, error) {
	posts, err := repos.Posts.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := repos.Channels.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	campaigns, err := repos.Campaigns.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	schedules, err := repos.Schedules.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	var tags []tagcache.Tag
	tags = append(tags, entity.ProvidedTags(entity.KindPost, posts)...)
	tags = append(tags, entity.ProvidedTags(entity.KindChannel, channels)...)
	tags = append(tags, entity.ProvidedTags(entity.KindCampaign, campaigns)...)
	tags = append(tags, entity.ProvidedTags(entity.KindSchedule, schedules)...)
	return tags, nil
}
