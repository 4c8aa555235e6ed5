package main

import (
	"context"
	"time"

	"content-planner/pkg/cache"
	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/queue"
	"content-planner/pkg/s3"
	"content-planner/services/planner/internal/app"
	"content-planner/services/planner/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

// @title           Content Planner API
// @version         1.0
// @description     Posts, channels, campaigns and schedules for planning content.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3001
// @BasePath  /api

func main() {
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

	// Postgres tables are created by goose - see cmd/migrate/main.go
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	seeded, err := persistent.Initialize(ctx, store, persistent.DefaultSeed(time.Now()))
	cancel()
	if err != nil {
		log.Error("Failed to initialize data: %v", err)
		panic(err)
	}
	for _, kind := range seeded {
		log.Info("Seeded %s collection", kind)
	}

	var redisClient *redis.Client
	if cfg.CacheBackend == config.CacheBackendRedis {
		redisClient, err = cache.NewRedisClient(cfg)
		if err != nil {
			log.Error("Failed to connect to redis: %v", err)
			panic(err)
		}
	}

	var queueClient *queue.Client
	if cfg.RabbitMQEnabled() {
		queueClient, err = queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Warn("Failed to connect to RabbitMQ, change events disabled: %v", err)
			queueClient = nil
		}
	}

	var s3Client *s3.Client
	if cfg.S3Enabled() {
		s3Client, err = s3.NewClient(cfg)
		if err != nil {
			log.Warn("Failed to create S3 client, snapshot export disabled: %v", err)
			s3Client = nil
		}
	}

	app.Run(cfg, log, store, redisClient, queueClient, s3Client)
}
