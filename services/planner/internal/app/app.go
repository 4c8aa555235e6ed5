package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/middleware"
	"content-planner/pkg/queue"
	"content-planner/pkg/s3"
	"content-planner/pkg/tagcache"
	plannerHTTP "content-planner/services/planner/internal/controller/http"
	"content-planner/services/planner/internal/repo/persistent"
	"content-planner/services/planner/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/expvar"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "content-planner/services/planner/docs" // Swagger docs
)

// Dependencies are the collaborators of the router. Cache, Notifier,
// Uploader and Redis are optional.
type Dependencies struct {
	Store    persistent.Store
	Cache    *tagcache.Cache
	Notifier usecase.Notifier
	Uploader usecase.SnapshotUploader
	Redis    redis.Cmdable
	Policies usecase.DeletePolicies
}

func NewRouter(cfg *config.Config, log *logger.Logger, deps Dependencies) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	// Initialize use cases
	env := usecase.NewEnv(persistent.NewRepositories(deps.Store), deps.Cache, deps.Notifier, deps.Policies, log)
	postUseCase := usecase.NewPostUseCase(env)
	channelUseCase := usecase.NewChannelUseCase(env)
	campaignUseCase := usecase.NewCampaignUseCase(env)
	scheduleUseCase := usecase.NewScheduleUseCase(env)
	snapshotUseCase := usecase.NewSnapshotUseCase(env, deps.Uploader)

	// Initialize HTTP handlers
	postHandler := plannerHTTP.NewPostHandler(postUseCase, log)
	channelHandler := plannerHTTP.NewChannelHandler(channelUseCase, log)
	campaignHandler := plannerHTTP.NewCampaignHandler(campaignUseCase, log)
	scheduleHandler := plannerHTTP.NewScheduleHandler(scheduleUseCase, log)
	snapshotHandler := plannerHTTP.NewSnapshotHandler(snapshotUseCase, log)

	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Writer()), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg.CORSAllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", plannerHTTP.Health)
	r.GET("/debug/vars", expvar.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	if deps.Redis != nil && cfg.RateLimitPerMinute > 0 {
		api.Use(middleware.RateLimitMiddleware(deps.Redis, cfg.RateLimitPerMinute, time.Minute))
	}

	{
		api.GET("/health", plannerHTTP.Health)

		api.GET("/posts", postHandler.ListPosts)
		api.GET("/posts/summary", postHandler.GetSummary)
		api.GET("/posts/calendar", postHandler.GetCalendar)
		api.GET("/posts/:id", postHandler.GetPost)
		api.POST("/posts", postHandler.CreatePost)
		api.PUT("/posts/:id", postHandler.UpdatePost)
		api.DELETE("/posts/:id", postHandler.DeletePost)

		api.GET("/channels", channelHandler.ListChannels)
		api.GET("/channels/:id", channelHandler.GetChannel)
		api.POST("/channels", channelHandler.CreateChannel)
		api.PUT("/channels/:id", channelHandler.UpdateChannel)
		api.DELETE("/channels/:id", channelHandler.DeleteChannel)

		api.GET("/campaigns", campaignHandler.ListCampaigns)
		api.GET("/campaigns/:id", campaignHandler.GetCampaign)
		api.POST("/campaigns", campaignHandler.CreateCampaign)
		api.PUT("/campaigns/:id", campaignHandler.UpdateCampaign)
		api.DELETE("/campaigns/:id", campaignHandler.DeleteCampaign)

		api.GET("/schedules", scheduleHandler.ListSchedules)
		api.GET("/schedules/:id", scheduleHandler.GetSchedule)
		api.POST("/schedules", scheduleHandler.CreateSchedule)
		api.PUT("/schedules/:id", scheduleHandler.UpdateSchedule)
		api.DELETE("/schedules/:id", scheduleHandler.DeleteSchedule)

		api.GET("/snapshot", snapshotHandler.GetSnapshot)
		api.POST("/snapshot/export", snapshotHandler.ExportSnapshot)
	}

	return r
}

// NewCache builds the server side query cache selected by CACHE_BACKEND.
func NewCache(cfg *config.Config, log *logger.Logger, redisClient redis.Cmdable) *tagcache.Cache {
	var backend tagcache.Backend
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		if redisClient == nil {
			log.Warn("CACHE_BACKEND=redis without a Redis connection, using the memory backend")
			backend = tagcache.NewMemoryBackend()
			break
		}
		backend = tagcache.NewRedisBackend(redisClient, "planner", cfg.CacheTTL)
	case config.CacheBackendNone:
		backend = tagcache.NopBackend{}
	default:
		backend = tagcache.NewMemoryBackend()
	}
	return tagcache.New(backend, tagcache.WithLogger(log))
}

func Run(cfg *config.Config, log *logger.Logger, store persistent.Store, redisClient *redis.Client, queueClient *queue.Client, s3Client *s3.Client) {
	policies, err := usecase.DeletePoliciesFromConfig(cfg)
	if err != nil {
		log.Error("Invalid delete policy: %v", err)
		panic(err)
	}

	deps := Dependencies{Store: store, Policies: policies}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	deps.Cache = NewCache(cfg, log, deps.Redis)

	if queueClient != nil {
		deps.Notifier = queueClient
		err := queueClient.ConsumeInvalidations(func(event queue.InvalidationEvent) error {
			_, err := deps.Cache.Invalidate(context.Background(), event.Tags...)
			return err
		})
		if err != nil {
			log.Warn("Failed to consume invalidation events: %v", err)
		}
	}
	if s3Client != nil {
		deps.Uploader = s3Client
	}

	r := NewRouter(cfg, log, deps)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Planner service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down planner service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing store: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	if queueClient != nil {
		queueClient.Close()
	}

	log.Info("Planner service exited")
}

func allowedOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
